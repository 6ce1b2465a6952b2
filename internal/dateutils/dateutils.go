// Package dateutils provides common date and time operations used throughout the application.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
	MonthLayout        = "2006-01"
)

// CommonFormats is a list of standard formats to try when parsing dates
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutEuropean,
	DateLayoutFull,
	"02/01/2006",
	"2006/01/02",
}

// DateRange is a half-open interval [Start, End). A zero bound is unbounded.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() && dr.End.IsZero() {
		return ""
	}
	start, end := "", ""
	if !dr.Start.IsZero() {
		start = dr.Start.Format(DateLayoutISO)
	}
	if !dr.End.IsZero() {
		end = dr.End.AddDate(0, 0, -1).Format(DateLayoutISO)
	}
	return fmt.Sprintf("%s_%s", start, end)
}

// Contains reports whether t falls inside the range.
func (dr DateRange) Contains(t time.Time) bool {
	if !dr.Start.IsZero() && t.Before(dr.Start) {
		return false
	}
	if !dr.End.IsZero() && !t.Before(dr.End) {
		return false
	}
	return true
}

// ParseDate parses a date in one of CommonFormats in loc.
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	dateStr = strings.Join(strings.Fields(dateStr), " ")
	for _, format := range CommonFormats {
		if t, err := time.ParseInLocation(format, dateStr, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// StartOfMonth returns midnight of the first day of date's month.
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// MonthRange returns the range covering the month of date.
func MonthRange(date time.Time) DateRange {
	start := StartOfMonth(date)
	return DateRange{Start: start, End: start.AddDate(0, 1, 0)}
}

// ParseMonth parses "YYYY-MM" into the range covering that month.
func ParseMonth(month string, loc *time.Location) (DateRange, error) {
	t, err := time.ParseInLocation(MonthLayout, strings.TrimSpace(month), loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("unable to parse month %q (want YYYY-MM)", month)
	}
	return MonthRange(t), nil
}

// NewDateRange builds a range from inclusive from/to dates, either of which may be empty.
func NewDateRange(from, to string, loc *time.Location) (DateRange, error) {
	var dr DateRange
	if from != "" {
		t, err := ParseDate(from, loc)
		if err != nil {
			return DateRange{}, err
		}
		dr.Start = t
	}
	if to != "" {
		t, err := ParseDate(to, loc)
		if err != nil {
			return DateRange{}, err
		}
		dr.End = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
	}
	if !dr.Start.IsZero() && !dr.End.IsZero() && !dr.Start.Before(dr.End) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s", from, to)
	}
	return dr, nil
}
