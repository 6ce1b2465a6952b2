// Package report prints expense totals per category from the ledger.
package report

import (
	"fmt"
	"time"

	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/internal/dateutils"
	"fjacquet/expense-bot/internal/logging"
	expensereport "fjacquet/expense-bot/internal/report"

	"github.com/spf13/cobra"
)

var (
	// Month restricts the report to one month (YYYY-MM)
	Month string
	// From is the first day included
	From string
	// To is the last day included
	To string
	// Format is text, json or csv
	Format string
)

// Cmd represents the report command
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize recorded expenses by category",
	Long: `Summarize the expense ledger by category. Restrict it to one user with
--user and to a period with --month or --from/--to.`,
	RunE: reportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Month, "month", "m", "", "Month to report (YYYY-MM)")
	Cmd.Flags().StringVar(&From, "from", "", "First day to include")
	Cmd.Flags().StringVar(&To, "to", "", "Last day to include")
	Cmd.Flags().StringVarP(&Format, "format", "f", expensereport.FormatText, "Output format: text, json or csv")
	Cmd.MarkFlagsMutuallyExclusive("month", "from")
	Cmd.MarkFlagsMutuallyExclusive("month", "to")
}

// BuildFilter turns the command flags into a report filter.
func BuildFilter(user, month, from, to string, loc *time.Location) (expensereport.Filter, error) {
	filter := expensereport.Filter{User: user}
	var err error
	if month != "" {
		filter.Range, err = dateutils.ParseMonth(month, loc)
	} else {
		filter.Range, err = dateutils.NewDateRange(from, to, loc)
	}
	return filter, err
}

func reportFunc(cmd *cobra.Command, args []string) error {
	filter, err := BuildFilter(root.SharedFlags.User, Month, From, To, time.Local)
	if err != nil {
		return err
	}

	l, err := root.OpenLedger()
	if err != nil {
		return err
	}
	records, err := l.Records()
	if err != nil {
		return err
	}

	summary := expensereport.Summarize(records, filter)
	root.Log.Debug("Report generated",
		logging.F(logging.FieldCount, summary.Count),
		logging.F(logging.FieldFile, l.Path()))

	out, err := expensereport.NewReportGenerator(root.Log).GenerateReport(summary, Format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
	return err
}
