package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/worklog/internal/report"
)

// ToCSV writes one row per day with time, then the combined and individual
// tag totals, then the month total.
func ToCSV(sum report.MonthSummary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"Section", "Key", "Seconds", "Duration", "Estimated"}); err != nil {
		return err
	}

	doc := newDocument(sum)
	for _, d := range doc.Days {
		if d.Seconds == 0 {
			continue
		}
		if err := w.Write([]string{"day", d.Date, fmt.Sprintf("%d", d.Seconds), d.Duration, ""}); err != nil {
			return err
		}
	}
	for _, section := range []struct {
		name    string
		entries []tagEntry
	}{
		{"combined", doc.Combined},
		{"individual", doc.Individual},
	} {
		for _, e := range section.entries {
			row := []string{section.name, e.Tag, fmt.Sprintf("%d", e.Seconds), e.Duration, e.Estimated}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	if err := w.Write([]string{"total", doc.Month, fmt.Sprintf("%d", doc.TotalSeconds), doc.Total, ""}); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
