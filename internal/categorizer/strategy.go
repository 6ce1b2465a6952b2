package categorizer

import (
	"context"

	"fjacquet/expense-bot/internal/models"
)

// Request is the input every strategy sees: the normalized comment and the
// user's combined keyword map, fetched once per resolution.
type Request struct {
	User     string
	Comment  string
	Mappings map[string]models.Category
}

// CategorizationStrategy defines one way of resolving a comment to a category.
type CategorizationStrategy interface {
	// Categorize returns the category and true on a hit. A miss is ("", false, nil).
	Categorize(ctx context.Context, req Request) (models.Category, bool, error)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}
