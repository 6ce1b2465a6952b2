// Package mirrorworker moves queued expense records into Google Sheets.
package mirrorworker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/internal/container"
	"fjacquet/expense-bot/internal/mirror"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Cmd represents the mirror-worker command
var Cmd = &cobra.Command{
	Use:   "mirror-worker",
	Short: "Consume mirrored expenses from AMQP and append them to Google Sheets",
	Long: `Run with mirror.backend=amqp on the bot side: the bot publishes each
recorded expense to the queue and this worker appends it to the spreadsheet.
Messages that cannot be appended are requeued.`,
	RunE: workerFunc,
}

// Consumer delivers queued records to a sink.
type Consumer interface {
	Consume(ctx context.Context, sink mirror.Sink) error
}

func workerFunc(cmd *cobra.Command, args []string) error {
	cfg := root.AppConfig
	if cfg.AMQP.URL == "" {
		return fmt.Errorf("amqp.url is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := container.NewSheetsSink(ctx, cfg, root.Log)
	if err != nil {
		return err
	}

	client, err := mirror.NewAMQPClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, root.Log)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			root.Log.WithError(err).Warn("Failed to close AMQP connection")
		}
	}()

	return Run(ctx, client, sink)
}

// Run consumes until ctx is cancelled. Cancellation is a clean stop.
func Run(ctx context.Context, consumer Consumer, sink mirror.Sink) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := consumer.Consume(gctx, sink)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
