package reconcile

import (
	"strings"
	"time"

	"github.com/sadopc/worklog/internal/interval"
)

// RowsFor returns the editable rows for the intervals starting on day, in
// start order. An open interval yields a row with an empty end. An end on a
// later day is written as 24:00.
func RowsFor(day time.Time, intervals []interval.Interval) []Row {
	var rows []Row
	for _, iv := range interval.Sort(intervals) {
		if !interval.SameDay(iv.Start, day) {
			continue
		}
		r := Row{
			Start: iv.Start.Local().Format("15:04"),
			Tags:  strings.Join(iv.Tags, ", "),
		}
		if iv.End != nil {
			if interval.SameDay(*iv.End, day) {
				r.End = iv.End.Local().Format("15:04")
			} else {
				r.End = "24:00"
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// HasOpen reports whether any interval starting on day is still running.
func HasOpen(day time.Time, intervals []interval.Interval) bool {
	for _, iv := range intervals {
		if iv.IsOpen() && interval.SameDay(iv.Start, day) {
			return true
		}
	}
	return false
}
