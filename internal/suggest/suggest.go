// Package suggest asks a language model which category an unresolved comment
// most likely belongs to. The answer only orders the choices shown to the
// user; it is never recorded on its own.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// Suggester proposes one of options for a comment.
type Suggester interface {
	Suggest(ctx context.Context, comment string, options []models.Category) (models.Category, error)
}

// ErrNoSuggestion is returned when the model answer names none of the options.
var ErrNoSuggestion = errors.New("no usable suggestion")

// Gemini implements Suggester with Google Gemini.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger logging.Logger
}

// NewGemini creates a Gemini suggester.
func NewGemini(ctx context.Context, apiKey, modelName string, logger logging.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Gemini{client: client, model: model, logger: logger}, nil
}

// Suggest asks the model to pick exactly one option.
func (g *Gemini) Suggest(ctx context.Context, comment string, options []models.Category) (models.Category, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildPrompt(comment, options)))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var answer strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			answer.WriteString(string(text))
		}
	}

	category, ok := MatchCategory(answer.String(), options)
	if !ok {
		g.logger.Debug("Model answer matched no category",
			logging.F(logging.FieldComment, comment),
			logging.F("answer", answer.String()))
		return "", ErrNoSuggestion
	}
	return category, nil
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// BuildPrompt renders the classification prompt.
func BuildPrompt(comment string, options []models.Category) string {
	names := make([]string, len(options))
	for i, o := range options {
		names[i] = string(o)
	}
	return fmt.Sprintf(
		"Классифицируй расход по описанию.\nОписание: %q\nКатегории: %s\nОтветь только названием одной категории из списка.",
		comment, strings.Join(names, ", "))
}

// MatchCategory maps a free-text answer onto one of options, ignoring case,
// quotes and trailing punctuation. An exact match wins over a substring match.
func MatchCategory(answer string, options []models.Category) (models.Category, bool) {
	cleaned := strings.Trim(strings.TrimSpace(answer), "\"'`«».!* \n")
	if cleaned == "" {
		return "", false
	}
	for _, o := range options {
		if strings.EqualFold(cleaned, string(o)) {
			return o, true
		}
	}
	lower := strings.ToLower(cleaned)
	for _, o := range options {
		if strings.Contains(lower, strings.ToLower(string(o))) {
			return o, true
		}
	}
	return "", false
}

// Reorder returns options with first moved to the front. Unknown first leaves the order as is.
func Reorder(options []models.Category, first models.Category) []models.Category {
	out := make([]models.Category, 0, len(options))
	found := false
	for _, o := range options {
		if o == first {
			found = true
			break
		}
	}
	if !found {
		return append(out, options...)
	}
	out = append(out, first)
	for _, o := range options {
		if o != first {
			out = append(out, o)
		}
	}
	return out
}
