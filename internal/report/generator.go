package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"fjacquet/expense-bot/internal/logging"

	"github.com/gocarina/gocsv"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// csvRow is the CSV shape of a category total.
type csvRow struct {
	Category string `csv:"category"`
	Count    int    `csv:"count"`
	Total    string `csv:"total"`
}

// ReportGenerator renders summaries in various formats.
type ReportGenerator struct {
	logger logging.Logger
}

// NewReportGenerator creates a new instance of ReportGenerator.
func NewReportGenerator(logger logging.Logger) *ReportGenerator {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &ReportGenerator{logger: logger}
}

// GenerateReport renders summary in the specified format (text, json or csv).
func (g *ReportGenerator) GenerateReport(summary Summary, format string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return g.generateTextReport(summary)
	case FormatJSON:
		return g.generateJSONReport(summary)
	case FormatCSV:
		return g.generateCSVReport(summary)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *ReportGenerator) generateTextReport(summary Summary) ([]byte, error) {
	var buf bytes.Buffer
	if summary.User != "" {
		fmt.Fprintf(&buf, "Пользователь: %s\n", summary.User)
	}
	if summary.Period != "" {
		fmt.Fprintf(&buf, "Период: %s\n", summary.Period)
	}

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Категория\tЗаписей\tСумма\t")
	for _, ct := range summary.Categories {
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", ct.Category, ct.Count, ct.Total.StringFixed(2))
	}
	fmt.Fprintf(w, "Итого\t%d\t%s\t\n", summary.Count, summary.Total.StringFixed(2))
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to render text report: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ReportGenerator) generateJSONReport(summary Summary) ([]byte, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return data, nil
}

func (g *ReportGenerator) generateCSVReport(summary Summary) ([]byte, error) {
	rows := make([]csvRow, 0, len(summary.Categories))
	for _, ct := range summary.Categories {
		rows = append(rows, csvRow{Category: string(ct.Category), Count: ct.Count, Total: ct.Total.StringFixed(2)})
	}
	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal CSV report")
		return nil, fmt.Errorf("failed to marshal CSV report: %w", err)
	}
	return data, nil
}
