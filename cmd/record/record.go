// Package record records a single expense from the command line.
package record

import (
	"fmt"
	"io"
	"strings"

	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/parsererror"
	"fjacquet/expense-bot/internal/session"

	"github.com/spf13/cobra"
)

// Category completes an unresolved expense with this category.
var Category string

// Cmd represents the record command
var Cmd = &cobra.Command{
	Use:   "record <amount> <comment>",
	Short: "Record an expense as if it was sent to the bot",
	Long: `Record an expense for --user, e.g. record -u alice 200 кофе.
When the comment matches no category the options are printed; run again with
--category to pick one and remember it for the comment.`,
	Args: cobra.MinimumNArgs(1),
	RunE: recordFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Category, "category", "c", "", "Category to use when the comment is not recognized")
}

func recordFunc(cmd *cobra.Command, args []string) error {
	user, err := root.RequireUser()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	c, err := root.NewContainer(ctx)
	if err != nil {
		return err
	}
	defer root.CloseContainer(c)

	orch := c.GetOrchestrator()
	reply, err := orch.HandleMessage(ctx, user, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if Category != "" {
		if reply.Kind == session.ReplyNeedCategory {
			reply, err = orch.HandleChoice(ctx, user, models.Category(Category))
			if err != nil {
				return err
			}
		} else {
			root.Log.Info("Comment resolved, --category ignored", logging.F(logging.FieldCategory, Category))
		}
	}

	PrintReply(cmd.OutOrStdout(), reply)
	switch {
	case parsererror.IsParseFailure(reply.Err):
		return fmt.Errorf("cannot record %q: %w", strings.Join(args, " "), reply.Err)
	case reply.Kind == session.ReplyInvalidChoice:
		return reply.Err
	}
	return nil
}

// PrintReply writes reply and its numbered options to w.
func PrintReply(w io.Writer, reply session.Reply) {
	fmt.Fprintln(w, reply.Text)
	for i, opt := range reply.Options {
		fmt.Fprintf(w, "  %d. %s\n", i+1, opt)
	}
}
