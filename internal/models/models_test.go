package models

import (
	"errors"
	"testing"
	"time"

	"fjacquet/expense-bot/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		expectErr error
	}{
		{name: "integer", input: "200", expected: "200"},
		{name: "dot decimal", input: "200.50", expected: "200.50"},
		{name: "comma decimal", input: "1,5", expected: "1.5"},
		{name: "zero", input: "0", expectErr: parsererror.ErrNonPositiveAmount},
		{name: "zero with fraction", input: "0.00", expectErr: parsererror.ErrNonPositiveAmount},
		{name: "negative", input: "-3", expectErr: parsererror.ErrNonPositiveAmount},
		{name: "garbage", input: "abc", expectErr: parsererror.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAmount(tt.input)
			if tt.expectErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, a.String())
		})
	}
}

func TestAmount_Equal(t *testing.T) {
	assert.True(t, MustParseAmount("200").Equal(MustParseAmount("200.00")))
	assert.True(t, MustParseAmount("1,5").Decimal().Equal(decimal.RequireFromString("1.5")))
	assert.True(t, Amount{}.IsZero())
}

func TestCategorySet(t *testing.T) {
	set := NewCategorySet("Еда", "Транспорт", "Еда", "", "Развлечения")

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []Category{"Еда", "Транспорт", "Развлечения"}, set.List())
	assert.True(t, set.Contains("Транспорт"))
	assert.False(t, set.Contains("Пицца"))

	i, ok := set.Index("Развлечения")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	c, ok := set.At(1)
	assert.True(t, ok)
	assert.Equal(t, Category("Транспорт"), c)

	_, ok = set.At(3)
	assert.False(t, ok)
	_, ok = set.At(-1)
	assert.False(t, ok)

	list := set.List()
	list[0] = "mutated"
	assert.True(t, set.Contains("Еда"))
}

func TestExpenseRecord_Validate(t *testing.T) {
	valid := ExpenseRecord{
		Timestamp: time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC),
		Amount:    MustParseAmount("200"),
		Category:  "Еда",
		Comment:   "кофе",
		User:      "alice",
	}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, "2025-03-01 09:05:07", valid.FormattedTimestamp())

	noUser := valid
	noUser.User = ""
	assert.Error(t, noUser.Validate())

	noAmount := valid
	noAmount.Amount = Amount{}
	assert.Error(t, noAmount.Validate())
}

func TestPendingChoice(t *testing.T) {
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := PendingChoice{
		Amount:    MustParseAmount("500"),
		Comment:   "билеты в кино",
		Options:   []Category{"Еда", "Развлечения"},
		CreatedAt: created,
	}

	assert.False(t, p.Expired(created.Add(24*time.Hour), 0))
	assert.False(t, p.Expired(created.Add(time.Minute), time.Hour))
	assert.True(t, p.Expired(created.Add(2*time.Hour), time.Hour))

	assert.True(t, p.Offers("Развлечения"))
	assert.False(t, p.Offers("Транспорт"))
}
