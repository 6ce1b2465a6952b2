package categorizer

import (
	"context"
	"strings"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/morph"
)

// LemmaStrategy lemmatizes each word of the comment in order and returns the
// category of the first lemma present in the combined map. Words the
// normalizer rejects are skipped.
type LemmaStrategy struct {
	normalizer morph.Normalizer
	logger     logging.Logger
}

// NewLemmaStrategy creates a new LemmaStrategy instance.
func NewLemmaStrategy(normalizer morph.Normalizer, logger logging.Logger) *LemmaStrategy {
	return &LemmaStrategy{normalizer: normalizer, logger: logger}
}

// Name returns the name of this strategy for logging and debugging.
func (s *LemmaStrategy) Name() string {
	return "Lemma"
}

// Categorize walks the comment tokens left to right.
func (s *LemmaStrategy) Categorize(ctx context.Context, req Request) (models.Category, bool, error) {
	for _, token := range strings.Fields(req.Comment) {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		lemma, err := s.normalizer.Lemmatize(token)
		if err != nil {
			s.logger.WithError(err).Debug("Skipping token", logging.F("token", token))
			continue
		}

		if category, found := req.Mappings[lemma]; found {
			s.logger.WithFields(
				logging.F(logging.FieldStrategy, s.Name()),
				logging.F(logging.FieldUser, req.User),
				logging.F("token", token),
				logging.F("lemma", lemma),
				logging.F(logging.FieldCategory, category),
			).Debug("Comment categorized by lemma")
			return category, true, nil
		}
	}
	return "", false, nil
}
