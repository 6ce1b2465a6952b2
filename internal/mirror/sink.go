// Package mirror copies recorded expenses to a secondary destination (a Google
// Sheet, or an AMQP queue feeding one). Mirroring is best effort: failures are
// logged and never reach the user.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fjacquet/expense-bot/internal/models"
)

// Backend names accepted in configuration.
const (
	BackendNone   = "none"
	BackendSheets = "sheets"
	BackendAMQP   = "amqp"
)

// Sink writes one record to a mirror destination.
type Sink interface {
	Name() string
	Mirror(ctx context.Context, rec models.ExpenseRecord) error
}

// NoopSink discards records.
type NoopSink struct{}

// Name returns "none".
func (NoopSink) Name() string { return BackendNone }

// Mirror does nothing.
func (NoopSink) Mirror(context.Context, models.ExpenseRecord) error { return nil }

// RowValues returns the mirror row: datetime, amount, category, comment, username.
func RowValues(rec models.ExpenseRecord) []interface{} {
	return []interface{}{
		rec.FormattedTimestamp(),
		rec.Amount.String(),
		rec.Category.String(),
		rec.Comment,
		rec.User,
	}
}

// Message is the JSON body published to AMQP for each record.
type Message struct {
	Datetime string `json:"datetime"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Comment  string `json:"comment"`
	Username string `json:"username"`
}

// NewMessage builds a Message from a record.
func NewMessage(rec models.ExpenseRecord) Message {
	return Message{
		Datetime: rec.FormattedTimestamp(),
		Amount:   rec.Amount.String(),
		Category: rec.Category.String(),
		Comment:  rec.Comment,
		Username: rec.User,
	}
}

// ToJSON encodes the message.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes a message body.
func MessageFromJSON(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("unmarshal mirror message: %w", err)
	}
	return m, nil
}

// Record converts the message back to an expense record in local time.
func (m Message) Record() (models.ExpenseRecord, error) {
	ts, err := time.ParseInLocation(models.TimestampLayout, m.Datetime, time.Local)
	if err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("invalid datetime '%s': %w", m.Datetime, err)
	}
	amount, err := models.ParseAmount(m.Amount)
	if err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("invalid amount '%s': %w", m.Amount, err)
	}
	rec := models.ExpenseRecord{
		Timestamp: ts,
		Amount:    amount,
		Category:  models.Category(m.Category),
		Comment:   m.Comment,
		User:      m.Username,
	}
	if err := rec.Validate(); err != nil {
		return models.ExpenseRecord{}, err
	}
	return rec, nil
}
