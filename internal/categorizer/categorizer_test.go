package categorizer

import (
	"context"
	"errors"
	"testing"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/morph"
	"fjacquet/expense-bot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNormalizer maps words through a table; listed failures return an error
// and unknown words come back unchanged.
type fakeNormalizer struct {
	lemmas   map[string]string
	failures map[string]bool
	calls    []string
}

func (f *fakeNormalizer) Lemmatize(word string) (string, error) {
	f.calls = append(f.calls, word)
	if f.failures[word] {
		return "", morph.ErrNotAWord
	}
	if l, ok := f.lemmas[word]; ok {
		return l, nil
	}
	return word, nil
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "Failing" }

func (failingStrategy) Categorize(context.Context, Request) (models.Category, bool, error) {
	return "", false, errors.New("backend down")
}

func newSource() *store.MockCategoryStore {
	return &store.MockCategoryStore{
		Set: models.NewCategorySet("Еда", "Транспорт", "Развлечения"),
		Static: map[string]models.Category{
			"кофе":  "Еда",
			"такси": "Транспорт",
			"билет": "Транспорт",
			"кино":  "Развлечения",
		},
		Learned: map[string]map[string]models.Category{
			"alice": {"билеты в кино": "Развлечения", "кофе": "Развлечения"},
		},
	}
}

func TestResolve(t *testing.T) {
	normalizer := &fakeNormalizer{
		lemmas:   map[string]string{"билеты": "билет", "такси,": "такси"},
		failures: map[string]bool{"123": true},
	}

	tests := []struct {
		name     string
		user     string
		comment  string
		expected models.Category
		found    bool
	}{
		{name: "exact static match", user: "bob", comment: "кофе", expected: "Еда", found: true},
		{name: "exact learned match wins over lemma", user: "alice", comment: "билеты в кино", expected: "Развлечения", found: true},
		{name: "learned overrides static", user: "alice", comment: "кофе", expected: "Развлечения", found: true},
		{name: "first token lemma wins", user: "bob", comment: "билеты в кино", expected: "Транспорт", found: true},
		{name: "lemma after unknown words", user: "bob", comment: "вечернее такси,", expected: "Транспорт", found: true},
		{name: "failing token skipped", user: "bob", comment: "123 кино", expected: "Развлечения", found: true},
		{name: "no match", user: "bob", comment: "вкусный пирог", found: false},
		{name: "empty comment", user: "bob", comment: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCategorizer(newSource(), normalizer, logging.NewMockLogger())
			category, found := c.Resolve(context.Background(), tt.user, tt.comment)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, category)
		})
	}
}

func TestResolve_StopsAtFirstLemmaHit(t *testing.T) {
	normalizer := &fakeNormalizer{}
	c := NewCategorizer(newSource(), normalizer, nil)

	category, found := c.Resolve(context.Background(), "bob", "такси кофе кино")
	require.True(t, found)
	assert.Equal(t, models.Category("Транспорт"), category)
	assert.Equal(t, []string{"такси"}, normalizer.calls)
}

func TestResolve_FailingStrategyIsLoggedAndSkipped(t *testing.T) {
	logger := logging.NewMockLogger()
	c := NewCategorizerWithStrategies(newSource(), logger, failingStrategy{}, NewExactMatchStrategy(logger))

	category, found := c.Resolve(context.Background(), "bob", "такси")
	require.True(t, found)
	assert.Equal(t, models.Category("Транспорт"), category)
	assert.True(t, logger.HasEntry("WARN", "Strategy failed"))
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCategorizer(newSource(), &fakeNormalizer{}, nil)
	_, found := c.Resolve(ctx, "bob", "поездка на такси")
	assert.False(t, found)
}

func TestResolve_WithAnalyzer(t *testing.T) {
	dict, err := morph.LoadDictionary("")
	require.NoError(t, err)
	src := newSource()
	analyzer := morph.NewAnalyzer(dict, []string{"кофе", "такси", "билет", "кино"})
	c := NewCategorizer(src, analyzer, nil)

	category, found := c.Resolve(context.Background(), "bob", "три билетов")
	require.True(t, found)
	assert.Equal(t, models.Category("Транспорт"), category)

	_, found = c.Resolve(context.Background(), "bob", "вкусный пирог")
	assert.False(t, found)
}

func TestStrategyNames(t *testing.T) {
	c := NewCategorizer(newSource(), &fakeNormalizer{}, nil)
	assert.Equal(t, []string{"ExactMatch", "Lemma"}, c.StrategyNames())
}
