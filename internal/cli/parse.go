package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/reconcile"
)

const dayLayout = "2006-01-02"

// parseMonth reads YYYY-MM. An empty string means the month of now.
func parseMonth(s string, now time.Time) (int, time.Month, error) {
	if s == "" {
		now = now.Local()
		return now.Year(), now.Month(), nil
	}
	t, err := time.ParseInLocation(interval.PeriodLayout, s, time.Local)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (want YYYY-MM)", s)
	}
	return t.Year(), t.Month(), nil
}

// parseDay reads YYYY-MM-DD as local midnight. "today" is accepted.
func parseDay(s string, now time.Time) (time.Time, error) {
	if s == "today" {
		return interval.StartOfDay(now), nil
	}
	t, err := time.ParseInLocation(dayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// parseRow reads "START,END[,TAGS]". Everything after the second comma is
// the tag text, so "09:00,17:00,work, review" has two tags.
func parseRow(s string) (reconcile.Row, error) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) < 2 {
		return reconcile.Row{}, fmt.Errorf("invalid row %q (want START,END[,TAGS])", s)
	}
	row := reconcile.Row{
		Start: strings.TrimSpace(parts[0]),
		End:   strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		row.Tags = strings.TrimSpace(parts[2])
	}
	return row, nil
}

// formatHM renders d as hours and minutes, e.g. "7:05".
func formatHM(d time.Duration) string {
	mins := int64(d / time.Minute)
	return fmt.Sprintf("%d:%02d", mins/60, mins%60)
}
