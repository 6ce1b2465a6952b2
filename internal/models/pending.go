package models

import "time"

// PendingChoice holds a parsed expense waiting for the user to pick a category.
type PendingChoice struct {
	Amount    Amount
	Comment   string
	Options   []Category
	CreatedAt time.Time
}

// Expired reports whether the choice is older than ttl. A ttl of zero never expires.
func (p PendingChoice) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(p.CreatedAt) > ttl
}

// Offers reports whether c was among the presented options.
func (p PendingChoice) Offers(c Category) bool {
	for _, o := range p.Options {
		if o == c {
			return true
		}
	}
	return false
}
