package ledger

import (
	"context"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
)

// Ledger is the authoritative store of expense records.
type Ledger interface {
	Append(ctx context.Context, rec models.ExpenseRecord) error
}

// Mirror receives records after they are durably recorded. Enqueue must not
// block and must not fail the caller.
type Mirror interface {
	Enqueue(rec models.ExpenseRecord)
}

// Recorder writes records to the ledger and then hands them to the mirror.
type Recorder struct {
	ledger Ledger
	mirror Mirror
	logger logging.Logger
}

// NewRecorder creates a Recorder. mirror may be nil.
func NewRecorder(ledger Ledger, mirror Mirror, logger logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Recorder{ledger: ledger, mirror: mirror, logger: logger}
}

// Record appends rec to the ledger. Only a ledger failure is returned; the
// mirror is reached only after the ledger write succeeds.
func (r *Recorder) Record(ctx context.Context, rec models.ExpenseRecord) error {
	if err := r.ledger.Append(ctx, rec); err != nil {
		return err
	}

	r.logger.Info("Expense recorded",
		logging.F(logging.FieldUser, rec.User),
		logging.F(logging.FieldAmount, rec.Amount.String()),
		logging.F(logging.FieldCategory, rec.Category),
		logging.F(logging.FieldComment, rec.Comment))

	if r.mirror != nil {
		r.mirror.Enqueue(rec)
	}
	return nil
}
