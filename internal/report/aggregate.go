package report

import (
	"strings"
	"time"

	"github.com/sadopc/worklog/internal/interval"
)

// NoTag is the bucket key for intervals without tags.
const NoTag = "no tag"

// Totals is the result of aggregating intervals over a month window.
type Totals struct {
	// Days holds one total per day of month; Days[0] is the 1st.
	Days []time.Duration
	// Combined is keyed by each interval's full tag list.
	Combined map[string]time.Duration
	// Individual credits an interval's full duration to each of its tags,
	// so its values can add up to more than the grand total.
	Individual map[string]time.Duration
	// HasMultiTag is set when any contributing interval has 2+ tags.
	HasMultiTag bool
}

// Total returns the sum of the daily buckets.
func (t Totals) Total() time.Duration {
	var sum time.Duration
	for _, d := range t.Days {
		sum += d
	}
	return sum
}

// CombinedKey joins tags in their original order, or returns NoTag.
func CombinedKey(tags []string) string {
	if len(tags) == 0 {
		return NoTag
	}
	return strings.Join(tags, ", ")
}

// Aggregate buckets the intervals that overlap [monthStart, monthEnd) by
// day of month and by tag. Open intervals run until now. monthStart is
// expected to be local midnight of the 1st of a month.
func Aggregate(intervals []interval.Interval, monthStart, monthEnd, now time.Time) Totals {
	monthStart = monthStart.Local()
	totals := Totals{
		Days:       make([]time.Duration, DaysIn(monthStart.Year(), monthStart.Month())),
		Combined:   make(map[string]time.Duration),
		Individual: make(map[string]time.Duration),
	}

	for _, iv := range intervals {
		start := iv.Start
		if start.Before(monthStart) {
			start = monthStart
		}
		end := iv.EndOr(now)
		if end.After(monthEnd) {
			end = monthEnd
		}
		if !end.After(start) {
			continue
		}

		addDays(totals.Days, monthStart, start, end)

		d := end.Sub(start)
		totals.Combined[CombinedKey(iv.Tags)] += d
		if len(iv.Tags) == 0 {
			totals.Individual[NoTag] += d
		}
		for _, tag := range iv.Tags {
			totals.Individual[tag] += d
		}
		if len(iv.Tags) >= 2 {
			totals.HasMultiTag = true
		}
	}
	return totals
}

// addDays splits [start, end) at local midnights and adds each piece to its
// day's bucket. Pieces outside the month are dropped.
func addDays(days []time.Duration, monthStart, start, end time.Time) {
	for cursor := start; cursor.Before(end); {
		local := cursor.Local()
		next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.Local)
		segEnd := end
		if next.Before(segEnd) {
			segEnd = next
		}
		if local.Year() == monthStart.Year() && local.Month() == monthStart.Month() {
			if idx := local.Day() - 1; idx >= 0 && idx < len(days) {
				days[idx] += segEnd.Sub(cursor)
			}
		}
		cursor = segEnd
	}
}
