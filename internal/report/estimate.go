package report

import "time"

const (
	LabelCurrentMonth = "Estimated month end"
	LabelFutureMonth  = "Estimation"
)

// Projection scales partial-month tag totals to a full month. The factor is
// Num/Den, kept as integers so durations are never accumulated in floats.
type Projection struct {
	Show  bool
	Label string
	Num   int64
	Den   int64
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Project decides whether and how to project totals for year/month given
// today's date. Past months are not projected. Future months use a factor
// of 1; the current month assumes the remaining days look like the elapsed
// ones.
func Project(year int, month time.Month, today time.Time) Projection {
	today = today.Local()
	monthIndex := year*12 + int(month)
	todayIndex := today.Year()*12 + int(today.Month())

	switch {
	case monthIndex < todayIndex:
		return Projection{Num: 1, Den: 1}
	case monthIndex > todayIndex:
		return Projection{Show: true, Label: LabelFutureMonth, Num: 1, Den: 1}
	}
	return Projection{
		Show:  true,
		Label: LabelCurrentMonth,
		Num:   int64(DaysIn(year, month)),
		Den:   int64(max(1, today.Day())),
	}
}

// Apply scales d by the projection factor.
func (p Projection) Apply(d time.Duration) time.Duration {
	if p.Den == 0 {
		return d
	}
	return time.Duration(int64(d) * p.Num / p.Den)
}
