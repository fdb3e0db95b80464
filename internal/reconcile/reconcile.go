// Package reconcile replaces one calendar day of a period's intervals with
// a set of edited rows.
package reconcile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/worklog/internal/interval"
)

const (
	ReasonInvalidTime  = "Invalid time values"
	ReasonEndNotAfter  = "End time must be after start time"
	ReasonActiveLapped = "Rows overlap the active tracker"
)

// Row is one editable line of a day: times as HH:MM and tags as free
// comma-separated text.
type Row struct {
	Start string
	End   string
	Tags  string
}

// ValidationError rejects a row. Row is 1-based over the rows passed in.
type ValidationError struct {
	Row    int
	Start  string
	End    string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Row == 0 {
		return e.Reason
	}
	return fmt.Sprintf("row %d (%s-%s): %s", e.Row, e.Start, e.End, e.Reason)
}

// Result is the outcome of a successful reconciliation. Content is the full
// replacement document for Period.
type Result struct {
	Day       time.Time
	Period    string
	Intervals []interval.Interval
	Content   string
}

// Reconcile drops every interval of existing that starts on day and puts
// the intervals described by rows in their place. Rows missing a start or
// an end are ignored. Nothing is returned unless every remaining row is
// valid; existing is never modified.
func Reconcile(day time.Time, rows []Row, existing []interval.Interval) (Result, error) {
	day = interval.StartOfDay(day)

	built, err := BuildIntervals(day, rows)
	if err != nil {
		return Result{}, err
	}

	built = keepOvernightEnds(day, built, existing)

	merged := make([]interval.Interval, 0, len(existing)+len(built))
	for _, iv := range existing {
		if interval.SameDay(iv.Start, day) {
			continue
		}
		merged = append(merged, iv)
	}
	merged = interval.Sort(append(merged, built...))

	if err := interval.ValidateActive(merged); err != nil {
		return Result{}, &ValidationError{Reason: ReasonActiveLapped}
	}

	return Result{
		Day:       day,
		Period:    interval.PeriodOf(day),
		Intervals: merged,
		Content:   interval.FormatAll(merged),
	}, nil
}

// BuildIntervals validates rows and turns them into closed intervals on day.
func BuildIntervals(day time.Time, rows []Row) ([]interval.Interval, error) {
	day = interval.StartOfDay(day)

	var out []interval.Interval
	for i, r := range rows {
		startText := strings.TrimSpace(r.Start)
		endText := strings.TrimSpace(r.End)
		if startText == "" || endText == "" {
			continue
		}

		sh, sm, okStart := parseClock(startText)
		eh, em, okEnd := parseClock(endText)
		if !okStart || !okEnd {
			return nil, &ValidationError{Row: i + 1, Start: startText, End: endText, Reason: ReasonInvalidTime}
		}

		start := onDay(day, sh, sm)
		end := onDay(day, eh, em)
		if !end.After(start) {
			return nil, &ValidationError{Row: i + 1, Start: startText, End: endText, Reason: ReasonEndNotAfter}
		}

		out = append(out, interval.New(start, end, SplitTags(r.Tags)...))
	}
	return out, nil
}

// keepOvernightEnds restores the stored end of intervals that ran past
// midnight. RowsFor shows such an end as 24:00, so a row that still ends
// at 24:00 and starts with a stored overnight interval keeps its end.
func keepOvernightEnds(day time.Time, built, existing []interval.Interval) []interval.Interval {
	midnight := day.AddDate(0, 0, 1)
	for i, iv := range built {
		if !iv.End.Equal(midnight) {
			continue
		}
		for _, old := range existing {
			if old.End == nil || !old.End.After(midnight) || !interval.SameDay(old.Start, day) {
				continue
			}
			if old.Start.Truncate(time.Minute).Equal(iv.Start) {
				built[i] = iv.Stop(*old.End)
				break
			}
		}
	}
	return built
}

// SplitTags splits comma-separated tag text, trimming pieces and dropping
// empty ones.
func SplitTags(s string) []string {
	var tags []string
	for _, piece := range strings.Split(s, ",") {
		if piece = strings.TrimSpace(piece); piece != "" {
			tags = append(tags, piece)
		}
	}
	return tags
}

// parseClock reads HH:MM. 24:00 is accepted as the midnight ending the day.
func parseClock(s string) (hour, minute int, ok bool) {
	hs, ms, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(strings.TrimSpace(ms))
	if err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	if hour == 24 && minute != 0 {
		return 0, 0, false
	}
	return hour, minute, true
}

func onDay(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)
}
