package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetsSink appends each record as a row to a Google Sheet.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        logging.Logger
}

// LoadCredentials returns service account JSON from inline content or a file.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing service account credentials (set sheets.credentials_json or sheets.credentials_file)")
}

// NewSheetsSink creates a Sheets client authenticated with a service account.
func NewSheetsSink(ctx context.Context, credentialsJSON []byte, spreadsheetID, sheetName string, logger logging.Logger) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is required")
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.Info("Google Sheets mirror ready",
		logging.F("spreadsheet_id", spreadsheetID),
		logging.F("sheet", sheetName))
	return &SheetsSink{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, logger: logger}, nil
}

// Name returns "sheets".
func (s *SheetsSink) Name() string { return BackendSheets }

// Mirror appends one row after the last row of the sheet.
func (s *SheetsSink) Mirror(ctx context.Context, rec models.ExpenseRecord) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{RowValues(rec)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, AppendRange(s.sheetName), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// AppendRange returns the A1 range covering the five mirror columns of sheet.
// An empty sheet name targets the first sheet.
func AppendRange(sheet string) string {
	if sheet == "" {
		return "A:E"
	}
	return fmt.Sprintf("'%s'!A:E", strings.ReplaceAll(sheet, "'", "''"))
}
