package categorizer

import (
	"context"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
)

// ExactMatchStrategy looks the whole comment up in the combined map.
type ExactMatchStrategy struct {
	logger logging.Logger
}

// NewExactMatchStrategy creates a new ExactMatchStrategy instance.
func NewExactMatchStrategy(logger logging.Logger) *ExactMatchStrategy {
	return &ExactMatchStrategy{logger: logger}
}

// Name returns the name of this strategy for logging and debugging.
func (s *ExactMatchStrategy) Name() string {
	return "ExactMatch"
}

// Categorize returns the mapping for the full comment, if any.
func (s *ExactMatchStrategy) Categorize(ctx context.Context, req Request) (models.Category, bool, error) {
	if req.Comment == "" {
		return "", false, nil
	}

	category, found := req.Mappings[req.Comment]
	if !found {
		return "", false, nil
	}

	s.logger.WithFields(
		logging.F(logging.FieldStrategy, s.Name()),
		logging.F(logging.FieldUser, req.User),
		logging.F(logging.FieldComment, req.Comment),
		logging.F(logging.FieldCategory, category),
	).Debug("Comment categorized by exact match")
	return category, true, nil
}
