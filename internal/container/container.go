// Package container provides dependency injection for the expense bot.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"fjacquet/expense-bot/internal/categorizer"
	"fjacquet/expense-bot/internal/config"
	"fjacquet/expense-bot/internal/ledger"
	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/mirror"
	"fjacquet/expense-bot/internal/morph"
	"fjacquet/expense-bot/internal/session"
	"fjacquet/expense-bot/internal/store"
	"fjacquet/expense-bot/internal/suggest"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger       logging.Logger
	config       *config.Config
	store        *store.CategoryStore
	analyzer     *morph.Analyzer
	categorizer  *categorizer.Categorizer
	ledger       *ledger.CSVLedger
	recorder     *ledger.Recorder
	dispatcher   *mirror.Dispatcher
	suggester    suggest.Suggester
	orchestrator *session.Orchestrator

	closers []io.Closer
}

// NewContainer creates and wires all application dependencies using a logger
// built from cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(ctx, cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	c := &Container{logger: logger, config: cfg}

	// Category store: static table plus learned mappings
	c.store = store.NewCategoryStore(cfg.CategoriesPath(), cfg.MappingsPath(), logger)
	if err := c.store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load category store: %w", err)
	}

	// Normalizer knows the static keywords so inflected forms reach them
	dict, err := morph.LoadDictionary(cfg.DictionaryPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load lemma dictionary: %w", err)
	}
	c.analyzer = morph.NewAnalyzer(dict, c.store.StaticKeywords())
	c.categorizer = categorizer.NewCategorizer(c.store, c.analyzer, logger)

	c.ledger = ledger.NewCSVLedger(cfg.LedgerPath(), cfg.DelimiterRune(), logger)

	sink, err := NewMirrorSink(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	var m ledger.Mirror
	if sink.Name() != mirror.BackendNone {
		c.dispatcher = mirror.NewDispatcher(sink, cfg.Mirror.QueueSize, cfg.MirrorTimeout(), logger)
		m = c.dispatcher
	}
	if closer, ok := sink.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}
	c.recorder = ledger.NewRecorder(c.ledger, m, logger)

	opts := []session.Option{session.WithPendingTTL(cfg.Session.PendingTTL)}
	if cfg.AI.Enabled {
		gemini, err := suggest.NewGemini(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
		if err != nil {
			_ = c.Close(ctx)
			return nil, fmt.Errorf("failed to create suggester: %w", err)
		}
		c.suggester = gemini
		c.closers = append(c.closers, gemini)
		opts = append(opts, session.WithSuggester(gemini, cfg.AITimeout()))
	}
	c.orchestrator = session.New(c.store, c.categorizer, c.recorder, logger, opts...)

	logger.Info("Container initialized successfully",
		logging.F("categories", c.store.Categories().Len()),
		logging.F("lemma_forms", c.analyzer.Size()),
		logging.F("strategies", strings.Join(c.categorizer.StrategyNames(), ",")),
		logging.F("mirror", sink.Name()),
		logging.F("ai_enabled", cfg.AI.Enabled))

	return c, nil
}

// NewMirrorSink builds the sink selected by mirror.backend.
func NewMirrorSink(ctx context.Context, cfg *config.Config, logger logging.Logger) (mirror.Sink, error) {
	switch cfg.Mirror.Backend {
	case "", config.MirrorNone:
		return mirror.NoopSink{}, nil
	case config.MirrorSheets:
		return NewSheetsSink(ctx, cfg, logger)
	case config.MirrorAMQP:
		client, err := mirror.NewAMQPClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect mirror queue: %w", err)
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown mirror backend: %s", cfg.Mirror.Backend)
}

// NewSheetsSink builds a Google Sheets sink from the sheets settings.
func NewSheetsSink(ctx context.Context, cfg *config.Config, logger logging.Logger) (*mirror.SheetsSink, error) {
	creds, err := mirror.LoadCredentials(cfg.Sheets.CredentialsJSON, cfg.Sheets.CredentialsFile)
	if err != nil {
		return nil, err
	}
	sink, err := mirror.NewSheetsSink(ctx, creds, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets mirror: %w", err)
	}
	return sink, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the category store.
func (c *Container) GetStore() *store.CategoryStore {
	return c.store
}

// GetAnalyzer returns the lemma analyzer.
func (c *Container) GetAnalyzer() *morph.Analyzer {
	return c.analyzer
}

// GetCategorizer returns the category resolver.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetLedger returns the expense ledger.
func (c *Container) GetLedger() *ledger.CSVLedger {
	return c.ledger
}

// GetRecorder returns the expense recorder.
func (c *Container) GetRecorder() *ledger.Recorder {
	return c.recorder
}

// GetSuggester returns the category suggester, or nil when AI is disabled.
func (c *Container) GetSuggester() suggest.Suggester {
	return c.suggester
}

// GetOrchestrator returns the conversation orchestrator.
func (c *Container) GetOrchestrator() *session.Orchestrator {
	return c.orchestrator
}

// Close drains the mirror queue and releases external clients.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.logger.Info("Container closed")
	return errors.Join(errs...)
}
