// Package serve runs the Telegram bot.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Run the Telegram bot with long polling. The bot token is read from
BOT_TOKEN (or telegram.token in the configuration).`,
	RunE: serveFunc,
}

func serveFunc(cmd *cobra.Command, args []string) error {
	cfg := root.AppConfig
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (set BOT_TOKEN)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := root.NewContainer(ctx)
	if err != nil {
		return err
	}
	defer root.CloseContainer(c)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = cfg.Telegram.Debug

	bot := telegram.NewBot(api, c.GetOrchestrator(), root.Log)
	if err := bot.RegisterCommands(); err != nil {
		root.Log.WithError(err).Warn("Failed to register bot commands")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(u)

	root.Log.Info("Bot authorized", logging.F("bot", api.Self.UserName))
	return Run(ctx, bot, updates, api.StopReceivingUpdates)
}

// Run drives bot until ctx ends or updates is closed, then stops polling.
func Run(ctx context.Context, bot *telegram.Bot, updates tgbotapi.UpdatesChannel, stopPolling func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return bot.Run(gctx, updates)
	})
	g.Go(func() error {
		<-gctx.Done()
		stopPolling()
		return nil
	})
	return g.Wait()
}
