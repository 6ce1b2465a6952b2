// Package parsererror defines the typed errors shared by the expense bot
// components: parse failures, validation failures, durable storage failures
// and mirror failures.
package parsererror

import (
	"errors"
	"fmt"
)

// Parse failure reasons.
var (
	ErrNoAmount          = errors.New("message does not start with an amount")
	ErrInvalidAmount     = errors.New("amount is not a valid number")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrEmptyComment      = errors.New("comment is empty")
	ErrCommentTooLong    = errors.New("comment is too long")
)

// Validation failure reasons.
var (
	ErrEmptyValue      = errors.New("value is empty")
	ErrKeywordTooLong  = errors.New("keyword is too long")
	ErrCategoryTooLong = errors.New("category is too long")
	ErrUnknownCategory = errors.New("category is not in the category set")
)

// ErrStaleSelection is returned when a category choice arrives for a user
// that has no pending expense.
var ErrStaleSelection = errors.New("no pending expense for this selection")

// ParseError represents a message that could not be turned into an amount and comment.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse message '%s': %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a rejected input to the category store or orchestrator.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StateCorruptionError means a durable document exists but cannot be trusted.
// Callers must stop rather than continue with partial state.
type StateCorruptionError struct {
	FilePath string
	Reason   string
	Err      error
}

func (e *StateCorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupted state in '%s': %s: %v", e.FilePath, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupted state in '%s': %s", e.FilePath, e.Reason)
}

func (e *StateCorruptionError) Unwrap() error {
	return e.Err
}

// DurableWriteError represents a failed write to the category store or the ledger.
type DurableWriteError struct {
	Target string
	Err    error
}

func (e *DurableWriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Target, e.Err)
}

func (e *DurableWriteError) Unwrap() error {
	return e.Err
}

// MirrorError represents a failed best-effort mirror write. It is logged,
// never returned to the user.
type MirrorError struct {
	Sink string
	Err  error
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("mirror %s failed: %v", e.Sink, e.Err)
}

func (e *MirrorError) Unwrap() error {
	return e.Err
}

// IsParseFailure reports whether err is a parse failure.
func IsParseFailure(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
