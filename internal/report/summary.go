// Package report summarizes the expense ledger into per-category totals and
// renders the summary as text, JSON or CSV.
package report

import (
	"sort"

	"fjacquet/expense-bot/internal/dateutils"
	"fjacquet/expense-bot/internal/models"

	"github.com/shopspring/decimal"
)

// Filter selects the records a summary covers. Empty fields match everything.
type Filter struct {
	User  string
	Range dateutils.DateRange
}

// Matches reports whether rec passes the filter.
func (f Filter) Matches(rec models.ExpenseRecord) bool {
	if f.User != "" && rec.User != f.User {
		return false
	}
	return f.Range.Contains(rec.Timestamp)
}

// CategoryTotal is the spend of one category.
type CategoryTotal struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// Summary is the aggregated view of a set of records.
type Summary struct {
	User       string          `json:"user,omitempty"`
	Period     string          `json:"period,omitempty"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Categories []CategoryTotal `json:"categories"`
}

// Summarize totals the records matching filter by category, largest first.
func Summarize(records []models.ExpenseRecord, filter Filter) Summary {
	byCategory := make(map[models.Category]*CategoryTotal)
	summary := Summary{
		User:       filter.User,
		Period:     filter.Range.String(),
		Total:      decimal.Zero,
		Categories: []CategoryTotal{},
	}

	for _, rec := range records {
		if !filter.Matches(rec) {
			continue
		}
		ct, ok := byCategory[rec.Category]
		if !ok {
			ct = &CategoryTotal{Category: rec.Category, Total: decimal.Zero}
			byCategory[rec.Category] = ct
		}
		ct.Count++
		ct.Total = ct.Total.Add(rec.Amount.Decimal())
		summary.Count++
		summary.Total = summary.Total.Add(rec.Amount.Decimal())
	}

	for _, ct := range byCategory {
		summary.Categories = append(summary.Categories, *ct)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if cmp := a.Total.Cmp(b.Total); cmp != 0 {
			return cmp > 0
		}
		return a.Category < b.Category
	})
	return summary
}
