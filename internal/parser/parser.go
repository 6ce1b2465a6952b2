// Package parser turns a raw chat message such as "200 кофе" into an amount
// and a normalized comment.
package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/parsererror"
)

// messagePattern captures a leading amount and everything after it.
// \d+ is greedy so "200" yields an empty remainder rather than "20" + "0".
var messagePattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)(.*)$`)

// Message is a successfully parsed expense message.
type Message struct {
	Amount  models.Amount
	Comment string
}

// Normalize lowercases text, trims it, and collapses whitespace runs to a single space.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// Parse extracts the amount and comment from a raw message.
//
// The message is normalized first. It must start with a positive decimal
// amount ("." or "," as separator) followed by a non-empty comment of at most
// models.MaxCommentLength characters. Failures are returned as *parsererror.ParseError.
func Parse(raw string) (Message, error) {
	normalized := Normalize(raw)

	m := messagePattern.FindStringSubmatch(normalized)
	if m == nil {
		return Message{}, &parsererror.ParseError{Input: raw, Err: parsererror.ErrNoAmount}
	}

	comment := strings.TrimSpace(m[2])
	if comment == "" {
		return Message{}, &parsererror.ParseError{Input: raw, Err: parsererror.ErrEmptyComment}
	}
	if utf8.RuneCountInString(comment) > models.MaxCommentLength {
		return Message{}, &parsererror.ParseError{Input: raw, Err: parsererror.ErrCommentTooLong}
	}

	amount, err := models.ParseAmount(m[1])
	if err != nil {
		return Message{}, &parsererror.ParseError{Input: raw, Err: err}
	}

	return Message{Amount: amount, Comment: comment}, nil
}
