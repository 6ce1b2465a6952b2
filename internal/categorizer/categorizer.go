// Package categorizer resolves an expense comment to a category using the
// user's combined keyword map: an exact match on the whole comment first,
// then a per-word lemma match.
package categorizer

import (
	"context"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/morph"
)

// MappingSource provides the keyword map used for resolution.
type MappingSource interface {
	CombinedMap(user string) map[string]models.Category
}

// Categorizer runs its strategies in order and stops at the first hit.
type Categorizer struct {
	source     MappingSource
	strategies []CategorizationStrategy
	logger     logging.Logger
}

// NewCategorizer creates a Categorizer with the exact-match and lemma strategies.
func NewCategorizer(source MappingSource, normalizer morph.Normalizer, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return NewCategorizerWithStrategies(source, logger,
		NewExactMatchStrategy(logger),
		NewLemmaStrategy(normalizer, logger),
	)
}

// NewCategorizerWithStrategies creates a Categorizer with a custom strategy chain.
func NewCategorizerWithStrategies(source MappingSource, logger logging.Logger, strategies ...CategorizationStrategy) *Categorizer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Categorizer{
		source:     source,
		strategies: strategies,
		logger:     logger,
	}
}

// Resolve returns the category for comment, or false when no strategy matches.
// A failing strategy is logged and the next one is tried.
func (c *Categorizer) Resolve(ctx context.Context, user, comment string) (models.Category, bool) {
	req := Request{
		User:     user,
		Comment:  comment,
		Mappings: c.source.CombinedMap(user),
	}

	for _, strategy := range c.strategies {
		category, found, err := strategy.Categorize(ctx, req)
		if err != nil {
			c.logger.WithError(err).Warn("Strategy failed",
				logging.F(logging.FieldStrategy, strategy.Name()),
				logging.F(logging.FieldUser, user))
			continue
		}
		if found {
			return category, true
		}
	}

	c.logger.Debug("No category found",
		logging.F(logging.FieldUser, user),
		logging.F(logging.FieldComment, comment))
	return "", false
}

// StrategyNames lists the configured strategies in order.
func (c *Categorizer) StrategyNames() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}
