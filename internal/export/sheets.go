package export

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"babytrack/backend/internal/records"
	"babytrack/backend/internal/summary"
)

// RowAppender appends rows below the data already in sheetRange.
type RowAppender interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]any) error
}

type GoogleSheets struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

func NewGoogleSheets(ctx context.Context, credentialsPath, spreadsheetID string, logger *zap.Logger) (*GoogleSheets, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id must not be empty")
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(credentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("initialize sheets client: %w", err)
	}

	return &GoogleSheets{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
	}, nil
}

func (g *GoogleSheets) AppendRows(ctx context.Context, sheetRange string, rows [][]any) error {
	if sheetRange == "" {
		return errors.New("sheet range must not be empty")
	}
	if len(rows) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	call := g.service.Spreadsheets.Values.Append(g.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	g.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// SheetsExporter writes weekly series as spreadsheet rows:
// date, baby_id, baby_name, feed_count, nappy_count, sleep_duration_minutes.
type SheetsExporter struct {
	appender   RowAppender
	sheetRange string
}

func NewSheetsExporter(appender RowAppender, sheetRange string) *SheetsExporter {
	return &SheetsExporter{appender: appender, sheetRange: sheetRange}
}

func (e *SheetsExporter) ExportWeek(ctx context.Context, baby records.Baby, series summary.WeeklySeries) error {
	return e.appender.AppendRows(ctx, e.sheetRange, WeeklyRows(baby, series))
}

func WeeklyRows(baby records.Baby, series summary.WeeklySeries) [][]any {
	rows := make([][]any, 0, len(series))
	for _, entry := range series {
		rows = append(rows, []any{
			entry.Date,
			baby.ID,
			baby.Name,
			entry.FeedCount,
			entry.NappyCount,
			entry.SleepDurationMinutes,
		})
	}
	return rows
}
