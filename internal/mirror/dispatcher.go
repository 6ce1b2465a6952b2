package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/parsererror"
)

// Dispatcher feeds records to a Sink from a bounded queue on a single worker
// goroutine. Enqueue never blocks: when the queue is full the record is
// dropped with a warning.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	logger  logging.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan models.ExpenseRecord
	done   chan struct{}
}

// NewDispatcher starts a dispatcher. queueSize < 1 is treated as 1.
func NewDispatcher(sink Sink, queueSize int, timeout time.Duration, logger logging.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	d := &Dispatcher{
		sink:    sink,
		timeout: timeout,
		logger:  logger.WithField(logging.FieldSink, sink.Name()),
		queue:   make(chan models.ExpenseRecord, queueSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue schedules rec for mirroring.
func (d *Dispatcher) Enqueue(rec models.ExpenseRecord) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Mirror dispatcher closed, dropping record", logging.F(logging.FieldUser, rec.User))
		return
	}

	select {
	case d.queue <- rec:
	default:
		d.logger.Warn("Mirror queue full, dropping record",
			logging.F(logging.FieldUser, rec.User),
			logging.F(logging.FieldComment, rec.Comment))
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for rec := range d.queue {
		d.deliver(rec)
	}
}

func (d *Dispatcher) deliver(rec models.ExpenseRecord) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Mirror sink panicked",
				logging.F(logging.FieldUser, rec.User),
				logging.F(logging.FieldReason, fmt.Sprint(r)))
		}
	}()

	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.sink.Mirror(ctx, rec); err != nil {
		d.logger.WithError(&parsererror.MirrorError{Sink: d.sink.Name(), Err: err}).Error("Failed to mirror expense",
			logging.F(logging.FieldUser, rec.User),
			logging.F(logging.FieldComment, rec.Comment))
		return
	}

	d.logger.Debug("Expense mirrored",
		logging.F(logging.FieldUser, rec.User),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
}

// Close stops accepting records and waits for queued ones to be delivered or
// for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mirror dispatcher did not drain: %w", ctx.Err())
	}
}
