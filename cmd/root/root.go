// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"time"

	"fjacquet/expense-bot/internal/config"
	"fjacquet/expense-bot/internal/container"
	"fjacquet/expense-bot/internal/ledger"
	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/store"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	User    string
	DataDir string
}

// shutdownTimeout bounds how long Close waits for the mirror queue to drain.
const shutdownTimeout = 15 * time.Second

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// AppConfig is loaded before any subcommand runs
	AppConfig *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "expense-bot",
		Short: "A Telegram bot that records expenses and learns their categories.",
		Long: `expense-bot records expenses sent as "<amount> <comment>" messages.
Comments are matched to a category from a fixed table or from mappings learned
per user; when no category matches, the user picks one and the choice is remembered.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to expense-bot!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return LoadConfig()
		},
		SilenceUsage: true,
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.User, "user", "u", "", "User the command acts for")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.DataDir, "data-dir", "d", "", "Directory holding the ledger and learned mappings")
}

// LoadConfig reads .env and the layered configuration, applies flag
// overrides and reconfigures Log.
func LoadConfig() error {
	config.LoadEnv(Log)

	cfg, err := config.InitializeConfig()
	if err != nil {
		return err
	}
	if SharedFlags.DataDir != "" {
		cfg.Data.Directory = SharedFlags.DataDir
	}

	AppConfig = cfg
	Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	return nil
}

// RequireUser returns the --user flag or an error when it is missing.
func RequireUser() (string, error) {
	if SharedFlags.User == "" {
		return "", fmt.Errorf("--user is required")
	}
	return SharedFlags.User, nil
}

// NewContainer wires the application from AppConfig.
func NewContainer(ctx context.Context) (*container.Container, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return container.NewContainerWithLogger(ctx, AppConfig, Log)
}

// CloseContainer releases c, waiting a bounded time for pending mirror work.
func CloseContainer(c *container.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		Log.WithError(err).Warn("Failed to close cleanly")
	}
}

// LoadStore opens the category store without wiring the rest of the application.
func LoadStore() (*store.CategoryStore, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	s := store.NewCategoryStore(AppConfig.CategoriesPath(), AppConfig.MappingsPath(), Log)
	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("failed to load category store: %w", err)
	}
	return s, nil
}

// OpenLedger returns the configured expense ledger.
func OpenLedger() (*ledger.CSVLedger, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return ledger.NewCSVLedger(AppConfig.LedgerPath(), AppConfig.DelimiterRune(), Log), nil
}
