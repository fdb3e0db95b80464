package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/worklog/internal/interval"
)

// TagTotal is one row of a tag breakdown.
type TagTotal struct {
	Key       string        `json:"tag" yaml:"tag"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Estimated time.Duration `json:"estimated,omitempty" yaml:"estimated,omitempty"`
}

// MonthSummary is the view model rendered for a month.
type MonthSummary struct {
	Title           string
	Year            int
	Month           time.Month
	Days            []time.Duration
	Total           time.Duration
	Combined        []TagTotal
	Individual      []TagTotal
	HasMultiTag     bool
	ShowEstimation  bool
	EstimationLabel string
	EstimatedTotal  time.Duration
}

// Start returns local midnight of the 1st of the summarized month.
func (s MonthSummary) Start() time.Time {
	return MonthStart(s.Year, s.Month)
}

// MonthStart returns local midnight on the 1st of year/month.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
}

// BuildMonthSummary aggregates intervals over year/month and attaches the
// projection relative to today. Open intervals are measured up to now.
func BuildMonthSummary(intervals []interval.Interval, year int, month time.Month, now, today time.Time) MonthSummary {
	start := MonthStart(year, month)
	end := start.AddDate(0, 1, 0)

	totals := Aggregate(intervals, start, end, now)
	proj := Project(year, month, today)

	sum := MonthSummary{
		Title:           fmt.Sprintf("%s %d", month, year),
		Year:            year,
		Month:           month,
		Days:            totals.Days,
		Total:           totals.Total(),
		Combined:        tagTotals(totals.Combined, proj),
		Individual:      tagTotals(totals.Individual, proj),
		HasMultiTag:     totals.HasMultiTag,
		ShowEstimation:  proj.Show,
		EstimationLabel: proj.Label,
	}
	if proj.Show {
		sum.EstimatedTotal = proj.Apply(sum.Total)
	}
	return sum
}

// tagTotals orders buckets by descending duration, then by key.
func tagTotals(buckets map[string]time.Duration, proj Projection) []TagTotal {
	out := make([]TagTotal, 0, len(buckets))
	for k, d := range buckets {
		tt := TagTotal{Key: k, Duration: d}
		if proj.Show {
			tt.Estimated = proj.Apply(d)
		}
		out = append(out, tt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration > out[j].Duration
		}
		return out[i].Key < out[j].Key
	})
	return out
}
