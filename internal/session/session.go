// Package session drives the conversation with each user: it parses expense
// messages, records them when a category resolves, and otherwise keeps a
// pending choice until the user picks a category, learning the mapping for
// next time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/parser"
	"fjacquet/expense-bot/internal/parsererror"
	"fjacquet/expense-bot/internal/store"
	"fjacquet/expense-bot/internal/suggest"
)

// Session states reported in logs.
const (
	stateIdle             = "idle"
	stateAwaitingCategory = "awaiting_category"
)

// ReplyKind classifies the outcome of an event.
type ReplyKind int

const (
	// ReplyRecorded means an expense was written to the ledger.
	ReplyRecorded ReplyKind = iota
	// ReplyNeedCategory means the user must pick one of Reply.Options.
	ReplyNeedCategory
	// ReplyFormatHelp means the message could not be parsed.
	ReplyFormatHelp
	// ReplySelectionExpired means a choice arrived with nothing pending.
	ReplySelectionExpired
	// ReplyInvalidChoice means the chosen category was not offered.
	ReplyInvalidChoice
	// ReplyInfo is a plain informational answer.
	ReplyInfo
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyRecorded:
		return "recorded"
	case ReplyNeedCategory:
		return "need_category"
	case ReplyFormatHelp:
		return "format_help"
	case ReplySelectionExpired:
		return "selection_expired"
	case ReplyInvalidChoice:
		return "invalid_choice"
	case ReplyInfo:
		return "info"
	}
	return "unknown"
}

// Reply is what the transport shows the user.
type Reply struct {
	Kind    ReplyKind
	Text    string
	Options []models.Category
	Record  *models.ExpenseRecord
	// Learned is true when a category choice was remembered for the comment.
	Learned bool
	// Err carries the user-level reason for a rejected event, e.g. the parse
	// failure behind ReplyFormatHelp. It is informational only.
	Err error
}

// CategoryStore is the part of the category store the orchestrator needs.
type CategoryStore interface {
	Categories() models.CategorySet
	Save(user, keyword string, category models.Category, overwrite bool) (store.SaveResult, error)
}

// Resolver maps a comment to a category.
type Resolver interface {
	Resolve(ctx context.Context, user, comment string) (models.Category, bool)
}

// Recorder durably records an expense.
type Recorder interface {
	Record(ctx context.Context, rec models.ExpenseRecord) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPendingTTL expires pending choices older than ttl. Zero disables expiry.
func WithPendingTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) { o.ttl = ttl }
}

// WithSuggester orders the category options with s, bounded by timeout.
func WithSuggester(s suggest.Suggester, timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.suggester = s
		o.suggestTimeout = timeout
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator handles expense messages and category choices. Events of one
// user are serialized; different users proceed concurrently.
type Orchestrator struct {
	store    CategoryStore
	resolver Resolver
	recorder Recorder
	logger   logging.Logger

	ttl            time.Duration
	suggester      suggest.Suggester
	suggestTimeout time.Duration
	now            func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]models.PendingChoice
}

// New creates an Orchestrator.
func New(categoryStore CategoryStore, resolver Resolver, recorder Recorder, logger logging.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	o := &Orchestrator{
		store:    categoryStore,
		resolver: resolver,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
		pending:  make(map[string]models.PendingChoice),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) lockUser(user string) func() {
	o.locksMu.Lock()
	l, ok := o.locks[user]
	if !ok {
		l = &sync.Mutex{}
		o.locks[user] = l
	}
	o.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// Pending returns the pending choice of user, if any.
func (o *Orchestrator) Pending(user string) (models.PendingChoice, bool) {
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	p, ok := o.pending[user]
	return p, ok
}

func (o *Orchestrator) setPending(user string, p models.PendingChoice) {
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	o.pending[user] = p
}

func (o *Orchestrator) clearPending(user string) {
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	delete(o.pending, user)
}

// HandleMessage processes a free-text expense message. A parseable message
// replaces any choice still pending for the user. The returned error is set
// only when the expense could not be stored.
func (o *Orchestrator) HandleMessage(ctx context.Context, user, text string) (Reply, error) {
	unlock := o.lockUser(user)
	defer unlock()

	log := o.logger.WithField(logging.FieldUser, user)

	msg, err := parser.Parse(text)
	if err != nil {
		log.WithError(err).Debug("Unparseable message")
		return Reply{Kind: ReplyFormatHelp, Text: TextFormatHelp, Err: err}, nil
	}

	if old, ok := o.Pending(user); ok {
		log.Info("Discarding pending choice for new message",
			logging.F(logging.FieldComment, old.Comment),
			logging.F(logging.FieldState, stateIdle))
		o.clearPending(user)
	}

	if category, found := o.resolver.Resolve(ctx, user, msg.Comment); found {
		rec := models.ExpenseRecord{
			Timestamp: o.now(),
			Amount:    msg.Amount,
			Category:  category,
			Comment:   msg.Comment,
			User:      user,
		}
		if err := o.recorder.Record(ctx, rec); err != nil {
			return Reply{}, fmt.Errorf("record expense: %w", err)
		}
		return Reply{
			Kind:   ReplyRecorded,
			Text:   fmt.Sprintf(TextRecorded, rec.Amount, rec.Category, rec.Comment),
			Record: &rec,
		}, nil
	}

	options := o.orderedOptions(ctx, msg.Comment)
	o.setPending(user, models.PendingChoice{
		Amount:    msg.Amount,
		Comment:   msg.Comment,
		Options:   options,
		CreatedAt: o.now(),
	})
	log.Info("Awaiting category choice",
		logging.F(logging.FieldState, stateAwaitingCategory),
		logging.F(logging.FieldComment, msg.Comment),
		logging.F(logging.FieldAmount, msg.Amount.String()))

	return Reply{
		Kind:    ReplyNeedCategory,
		Text:    fmt.Sprintf(TextNeedCategory, msg.Comment),
		Options: options,
	}, nil
}

func (o *Orchestrator) orderedOptions(ctx context.Context, comment string) []models.Category {
	options := o.store.Categories().List()
	if o.suggester == nil {
		return options
	}

	sctx := ctx
	if o.suggestTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, o.suggestTimeout)
		defer cancel()
	}

	suggestion, err := o.suggester.Suggest(sctx, comment, options)
	if err != nil {
		o.logger.WithError(err).Debug("No category suggestion", logging.F(logging.FieldComment, comment))
		return options
	}
	return suggest.Reorder(options, suggestion)
}

// HandleChoice completes a pending expense with the chosen category: the
// comment is learned as a keyword for the user (without overwriting), the
// expense is recorded and the pending choice is cleared. If storage fails the
// pending choice is kept so the user can pick again.
func (o *Orchestrator) HandleChoice(ctx context.Context, user string, choice models.Category) (Reply, error) {
	unlock := o.lockUser(user)
	defer unlock()

	log := o.logger.WithFields(
		logging.F(logging.FieldUser, user),
		logging.F(logging.FieldCategory, choice))

	p, ok := o.Pending(user)
	if !ok {
		log.Info("Category choice with nothing pending")
		return Reply{Kind: ReplySelectionExpired, Text: TextSelectionExpired, Err: parsererror.ErrStaleSelection}, nil
	}
	if p.Expired(o.now(), o.ttl) {
		o.clearPending(user)
		log.Info("Pending choice expired",
			logging.F(logging.FieldComment, p.Comment),
			logging.F(logging.FieldState, stateIdle))
		return Reply{Kind: ReplySelectionExpired, Text: TextSelectionExpired, Err: parsererror.ErrStaleSelection}, nil
	}

	if !o.store.Categories().Contains(choice) || !p.Offers(choice) {
		log.Warn("Rejected category choice")
		return Reply{
			Kind:    ReplyInvalidChoice,
			Text:    TextInvalidChoice,
			Options: p.Options,
			Err:     &parsererror.ValidationError{Field: "category", Value: string(choice), Err: parsererror.ErrUnknownCategory},
		}, nil
	}

	learned := true
	result, err := o.store.Save(user, p.Comment, choice, false)
	switch {
	case err == nil:
		log.Debug("Learned mapping", logging.F(logging.FieldStatus, result.String()))
	case parsererror.IsValidation(err):
		learned = false
		log.WithError(err).Warn("Comment not learned as keyword")
	default:
		return Reply{}, fmt.Errorf("save category mapping: %w", err)
	}

	rec := models.ExpenseRecord{
		Timestamp: o.now(),
		Amount:    p.Amount,
		Category:  choice,
		Comment:   p.Comment,
		User:      user,
	}
	if err := o.recorder.Record(ctx, rec); err != nil {
		return Reply{}, fmt.Errorf("record expense: %w", err)
	}
	o.clearPending(user)

	text := fmt.Sprintf(TextRecorded, rec.Amount, rec.Category, rec.Comment)
	if !learned {
		text += TextNotLearned
	}
	return Reply{Kind: ReplyRecorded, Text: text, Record: &rec, Learned: learned}, nil
}

// Cancel drops the pending choice of user.
func (o *Orchestrator) Cancel(user string) Reply {
	unlock := o.lockUser(user)
	defer unlock()

	if _, ok := o.Pending(user); !ok {
		return Reply{Kind: ReplyInfo, Text: TextNothingToCancel}
	}
	o.clearPending(user)
	return Reply{Kind: ReplyInfo, Text: TextCancelled}
}

// Categories returns the closed category set in display order.
func (o *Orchestrator) Categories() []models.Category {
	return o.store.Categories().List()
}

// IsStorageFailure reports whether err came from a failed durable write.
func IsStorageFailure(err error) bool {
	var dw *parsererror.DurableWriteError
	return errors.As(err, &dw)
}
