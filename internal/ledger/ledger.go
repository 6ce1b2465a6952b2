// Package ledger is the append-only expense journal. Records are written as
// CSV rows with the columns datetime, amount, category, comment, username.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fjacquet/expense-bot/internal/fileutils"
	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/parsererror"

	"github.com/gocarina/gocsv"
)

// Row is the CSV shape of one expense record.
type Row struct {
	Datetime string `csv:"datetime"`
	Amount   string `csv:"amount"`
	Category string `csv:"category"`
	Comment  string `csv:"comment"`
	Username string `csv:"username"`
}

// RowFromRecord converts a record to its CSV row.
func RowFromRecord(rec models.ExpenseRecord) Row {
	return Row{
		Datetime: rec.FormattedTimestamp(),
		Amount:   rec.Amount.String(),
		Category: rec.Category.String(),
		Comment:  rec.Comment,
		Username: rec.User,
	}
}

// Record converts a CSV row back to an expense record. Timestamps are read in loc.
func (r Row) Record(loc *time.Location) (models.ExpenseRecord, error) {
	ts, err := time.ParseInLocation(models.TimestampLayout, r.Datetime, loc)
	if err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("invalid datetime '%s': %w", r.Datetime, err)
	}
	amount, err := models.ParseAmount(r.Amount)
	if err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("invalid amount '%s': %w", r.Amount, err)
	}
	return models.ExpenseRecord{
		Timestamp: ts,
		Amount:    amount,
		Category:  models.Category(r.Category),
		Comment:   r.Comment,
		User:      r.Username,
	}, nil
}

// CSVLedger appends expense records to a CSV file. The header is written once,
// when the file is created, and appends are serialized.
type CSVLedger struct {
	path      string
	delimiter rune
	logger    logging.Logger
	mu        sync.Mutex
	syncFile  func(*os.File) error
}

// NewCSVLedger creates a ledger writing to path with the given delimiter.
func NewCSVLedger(path string, delimiter rune, logger logging.Logger) *CSVLedger {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVLedger{path: path, delimiter: delimiter, logger: logger, syncFile: (*os.File).Sync}
}

// Path returns the ledger file path.
func (l *CSVLedger) Path() string {
	return l.path
}

// Append writes one record. Failures are returned as *parsererror.DurableWriteError
// and leave the file at its previous size, so retrying a failed append cannot
// produce the same row twice.
func (l *CSVLedger) Append(ctx context.Context, rec models.ExpenseRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.appendRow(RowFromRecord(rec)); err != nil {
		l.logger.WithError(err).Error("Failed to append expense to ledger",
			logging.F(logging.FieldFile, l.path),
			logging.F(logging.FieldUser, rec.User))
		return &parsererror.DurableWriteError{Target: l.path, Err: err}
	}
	return nil
}

func (l *CSVLedger) appendRow(row Row) (err error) {
	if err := fileutils.EnsureDirectoryExists(filepath.Dir(l.path), models.PermissionDirectory); err != nil {
		return err
	}

	size, exists, err := fileutils.FileSize(l.path)
	if err != nil {
		return err
	}
	needHeader := !exists || size == 0

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, models.PermissionConfigFile)
	if err != nil {
		return fmt.Errorf("error opening ledger file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing ledger file: %w", closeErr)
		}
	}()

	if err := l.writeRow(file, row, needHeader); err != nil {
		if truncErr := file.Truncate(size); truncErr != nil {
			return errors.Join(err, fmt.Errorf("error rolling back ledger file: %w", truncErr))
		}
		return err
	}
	return nil
}

func (l *CSVLedger) writeRow(file *os.File, row Row, withHeader bool) error {
	csvWriter := csv.NewWriter(file)
	csvWriter.Comma = l.delimiter
	writer := gocsv.NewSafeCSVWriter(csvWriter)

	var err error
	rows := []Row{row}
	if withHeader {
		err = gocsv.MarshalCSV(rows, writer)
	} else {
		err = gocsv.MarshalCSVWithoutHeaders(rows, writer)
	}
	if err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}

	if err := l.syncFile(file); err != nil {
		return fmt.Errorf("error syncing ledger file: %w", err)
	}
	return nil
}

// Rows reads all rows of the ledger. A missing file has no rows.
func (l *CSVLedger) Rows() ([]Row, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Row{}, nil
		}
		return nil, fmt.Errorf("error opening ledger file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			l.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("error checking ledger file: %w", err)
	}
	if info.Size() == 0 {
		return []Row{}, nil
	}

	reader := csv.NewReader(file)
	reader.Comma = l.delimiter

	var rows []Row
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing ledger file: %w", err)
	}
	return rows, nil
}

// Records reads all rows and converts them to expense records in local time.
func (l *CSVLedger) Records() ([]models.ExpenseRecord, error) {
	rows, err := l.Rows()
	if err != nil {
		return nil, err
	}
	records := make([]models.ExpenseRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := row.Record(time.Local)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
