package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"babytrack/backend/internal/summary"
)

var weeklyHeader = []string{
	"date",
	"baby_id",
	"feed_count",
	"nappy_count",
	"sleep_duration_minutes",
}

// WriteWeeklyCSV writes one row per day followed by a totals row.
func WriteWeeklyCSV(w io.Writer, babyID string, series summary.WeeklySeries) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(weeklyHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range series {
		if err := writer.Write([]string{
			entry.Date,
			babyID,
			strconv.Itoa(entry.FeedCount),
			strconv.Itoa(entry.NappyCount),
			strconv.Itoa(entry.SleepDurationMinutes),
		}); err != nil {
			return fmt.Errorf("write csv row %s: %w", entry.Date, err)
		}
	}
	totals := series.Totals()
	if err := writer.Write([]string{
		"total",
		babyID,
		strconv.Itoa(totals.FeedCount),
		strconv.Itoa(totals.NappyCount),
		strconv.Itoa(totals.SleepDurationMinutes),
	}); err != nil {
		return fmt.Errorf("write csv totals: %w", err)
	}

	writer.Flush()
	return writer.Error()
}

func WeeklyFilename(babyName string, startDate time.Time) string {
	return fmt.Sprintf("weekly_%s_%s.csv", SanitizeFilename(babyName), startDate.Format("20060102"))
}

// SanitizeFilename keeps ASCII letters, digits, '-' and '_' and replaces the rest.
func SanitizeFilename(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "baby"
	}
	var b strings.Builder
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	sanitized := strings.Trim(b.String(), "_")
	if sanitized == "" {
		return "baby"
	}
	return sanitized
}
