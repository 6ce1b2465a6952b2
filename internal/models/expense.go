package models

import (
	"errors"
	"time"
)

// ExpenseRecord is one finalized expense, the unit appended to the ledger.
type ExpenseRecord struct {
	Timestamp time.Time
	Amount    Amount
	Category  Category
	Comment   string
	User      string
}

// Validate checks that a record is complete.
func (r ExpenseRecord) Validate() error {
	switch {
	case r.User == "":
		return errors.New("expense record has no user")
	case r.Amount.IsZero():
		return errors.New("expense record has no amount")
	case r.Category == "":
		return errors.New("expense record has no category")
	case r.Comment == "":
		return errors.New("expense record has no comment")
	}
	return nil
}

// FormattedTimestamp returns the timestamp in TimestampLayout.
func (r ExpenseRecord) FormattedTimestamp() string {
	return r.Timestamp.Format(TimestampLayout)
}
