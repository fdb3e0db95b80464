package interval

import (
	"fmt"
	"sort"
	"time"
)

// TimeLayout is the on-disk timestamp format, in local time.
const TimeLayout = "20060102T150405"

// PeriodLayout names the period (calendar month) an interval is stored in.
const PeriodLayout = "2006-01"

// Interval is a tracked span of time. A nil End means the interval is
// still running.
type Interval struct {
	Start time.Time
	End   *time.Time
	Tags  []string
}

// New returns a closed interval.
func New(start, end time.Time, tags ...string) Interval {
	return Interval{Start: start, End: &end, Tags: tags}
}

// Open returns an interval without an end.
func Open(start time.Time, tags ...string) Interval {
	return Interval{Start: start, Tags: tags}
}

// IsOpen reports whether the interval has no end yet.
func (iv Interval) IsOpen() bool {
	return iv.End == nil
}

// EndOr returns the end of the interval, or now when it is open.
func (iv Interval) EndOr(now time.Time) time.Time {
	if iv.End == nil {
		return now
	}
	return *iv.End
}

// Duration returns the length of the interval, measuring open intervals up
// to now. It never returns a negative duration.
func (iv Interval) Duration(now time.Time) time.Duration {
	d := iv.EndOr(now).Sub(iv.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Stop returns a copy of the interval closed at end.
func (iv Interval) Stop(end time.Time) Interval {
	iv.End = &end
	return iv
}

// Period returns the period key of the interval's start.
func (iv Interval) Period() string {
	return PeriodOf(iv.Start)
}

// Valid checks the end-after-start invariant.
func (iv Interval) Valid() error {
	if iv.Start.IsZero() {
		return fmt.Errorf("interval has no start")
	}
	if iv.End != nil && !iv.End.After(iv.Start) {
		return fmt.Errorf("end %s is not after start %s",
			iv.End.Format(TimeLayout), iv.Start.Format(TimeLayout))
	}
	return nil
}

// Equal reports whether two intervals have the same instants and tags.
func (iv Interval) Equal(other Interval) bool {
	if !iv.Start.Equal(other.Start) {
		return false
	}
	if (iv.End == nil) != (other.End == nil) {
		return false
	}
	if iv.End != nil && !iv.End.Equal(*other.End) {
		return false
	}
	if len(iv.Tags) != len(other.Tags) {
		return false
	}
	for i := range iv.Tags {
		if iv.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

// PeriodOf returns the period key for t in local time.
func PeriodOf(t time.Time) string {
	return t.Local().Format(PeriodLayout)
}

// SameDay reports whether a and b fall on the same local calendar date.
func SameDay(a, b time.Time) bool {
	a, b = a.Local(), b.Local()
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns local midnight of t's date.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Sort returns a copy of intervals ordered by start. Intervals with equal
// starts keep their relative order.
func Sort(intervals []Interval) []Interval {
	out := make([]Interval, len(intervals))
	copy(out, intervals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// ValidateActive checks that at most one interval is open and that it is
// the chronologically last one.
func ValidateActive(intervals []Interval) error {
	sorted := Sort(intervals)
	for i, iv := range sorted {
		if iv.IsOpen() && i != len(sorted)-1 {
			return fmt.Errorf("open interval started %s is not the last interval",
				iv.Start.Format(TimeLayout))
		}
	}
	return nil
}

// Active returns the open interval of a sorted collection, if any.
func Active(intervals []Interval) (Interval, bool) {
	if len(intervals) == 0 {
		return Interval{}, false
	}
	last := intervals[len(intervals)-1]
	if !last.IsOpen() {
		return Interval{}, false
	}
	return last, true
}
