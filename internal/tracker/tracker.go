// Package tracker is the host around the interval core: it loads period
// documents from the store, caches parsed periods, builds summaries, saves
// edited days and runs the single active tracker.
package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/metrics"
	"github.com/sadopc/worklog/internal/reconcile"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/store"
)

var (
	// ErrNoActiveTracker is returned by Stop when nothing is being tracked.
	ErrNoActiveTracker = errors.New("no active tracker")
	// ErrUnreadablePeriod guards writes to periods holding records that
	// failed to parse; rewriting them would drop those records.
	ErrUnreadablePeriod = errors.New("period has unreadable records")
	// ErrDayHasActiveTracker refuses day edits that would drop the running
	// interval.
	ErrDayHasActiveTracker = errors.New("day holds the active tracker")
)

// Change tells subscribers that a period was rewritten. Day is zero when
// the change is not tied to a single day.
type Change struct {
	Period string
	Day    time.Time
}

// Options configures a Service.
type Options struct {
	CacheSize int
	Clock     Clock
	Logger    zerolog.Logger
}

type cached struct {
	intervals []interval.Interval
	err       error
}

type Service struct {
	store  *store.Store
	cache  *lru.Cache[string, cached]
	clock  Clock
	logger zerolog.Logger

	mu          sync.Mutex
	subscribers []func(Change)
}

func New(s *store.Store, opts Options) (*Service, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 24
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	cache, err := lru.New[string, cached](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create period cache: %w", err)
	}
	return &Service{
		store:  s,
		cache:  cache,
		clock:  opts.Clock,
		logger: opts.Logger.With().Str("component", "tracker").Logger(),
	}, nil
}

// Now returns the service clock's time truncated to whole seconds, the
// precision of stored records.
func (s *Service) Now() time.Time {
	return s.clock.Now().Local().Truncate(time.Second)
}

// Subscribe registers fn to be called after every successful write.
func (s *Service) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Service) notify(c Change) {
	s.mu.Lock()
	subs := make([]func(Change), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}

// Period returns the readable intervals of a period, sorted by start.
// Records that fail to parse are logged and skipped.
func (s *Service) Period(key string) ([]interval.Interval, error) {
	c, err := s.load(key)
	if err != nil {
		return nil, err
	}
	return c.intervals, nil
}

// periodForWrite is Period for callers about to rewrite the period: any
// unreadable record is an error.
func (s *Service) periodForWrite(key string) ([]interval.Interval, error) {
	c, err := s.load(key)
	if err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadablePeriod, key, c.err)
	}
	return c.intervals, nil
}

func (s *Service) load(key string) (cached, error) {
	if c, ok := s.cache.Get(key); ok {
		metrics.PeriodCacheLookups.WithLabelValues("hit").Inc()
		return c, nil
	}
	metrics.PeriodCacheLookups.WithLabelValues("miss").Inc()

	p, err := s.store.GetPeriod(key)
	if err != nil {
		return cached{}, err
	}
	ivs, perr := interval.ParseAll(p.Content)
	metrics.RecordsParsed.Add(float64(len(ivs)))
	for _, pe := range interval.ParseErrors(perr) {
		metrics.RecordsRejected.WithLabelValues(key).Inc()
		s.logger.Warn().
			Str("period", key).
			Int("line", pe.Line).
			Err(pe.Err).
			Msg("Skipping unreadable record")
	}

	c := cached{intervals: interval.Sort(ivs), err: perr}
	s.cache.Add(key, c)
	return c, nil
}

func (s *Service) invalidate(keys ...string) {
	for _, k := range keys {
		s.cache.Remove(k)
	}
}

// Summary builds the month summary for year/month. The previous period is
// read too so that intervals running over the month boundary count.
func (s *Service) Summary(year int, month time.Month) (report.MonthSummary, error) {
	start := report.MonthStart(year, month)
	prev, err := s.Period(interval.PeriodOf(start.AddDate(0, -1, 0)))
	if err != nil {
		return report.MonthSummary{}, err
	}
	cur, err := s.Period(interval.PeriodOf(start))
	if err != nil {
		return report.MonthSummary{}, err
	}

	all := make([]interval.Interval, 0, len(prev)+len(cur))
	all = append(all, prev...)
	all = append(all, cur...)

	now := s.Now()
	return report.BuildMonthSummary(all, year, month, now, now), nil
}

// Day returns the editable rows of day and whether the day holds the
// running interval.
func (s *Service) Day(day time.Time) ([]reconcile.Row, bool, error) {
	ivs, err := s.Period(interval.PeriodOf(day))
	if err != nil {
		return nil, false, err
	}
	return reconcile.RowsFor(day, ivs), reconcile.HasOpen(day, ivs), nil
}

// SaveDay replaces day's intervals with rows. Nothing is written unless
// every row validates.
func (s *Service) SaveDay(day time.Time, rows []reconcile.Row) (reconcile.Result, error) {
	key := interval.PeriodOf(day)
	existing, err := s.periodForWrite(key)
	if err != nil {
		metrics.DaySaves.WithLabelValues("error").Inc()
		return reconcile.Result{}, err
	}

	if reconcile.HasOpen(day, existing) {
		metrics.DaySaves.WithLabelValues("invalid").Inc()
		return reconcile.Result{}, fmt.Errorf("save day %s: %w", day.Format("2006-01-02"), ErrDayHasActiveTracker)
	}

	res, err := reconcile.Reconcile(day, rows, existing)
	if err == nil {
		err = s.checkActiveElsewhere(res)
	}
	if err != nil {
		metrics.DaySaves.WithLabelValues("invalid").Inc()
		s.logger.Info().
			Str("day", day.Format("2006-01-02")).
			Err(err).
			Msg("Rejected day edit")
		return reconcile.Result{}, err
	}

	if err := s.store.PutPeriod(res.Period, res.Content); err != nil {
		metrics.DaySaves.WithLabelValues("error").Inc()
		return reconcile.Result{}, err
	}
	s.invalidate(res.Period)
	metrics.DaySaves.WithLabelValues("ok").Inc()

	s.logger.Info().
		Str("day", res.Day.Format("2006-01-02")).
		Int("intervals", len(res.Intervals)).
		Msg("Saved day")

	s.notify(Change{Period: res.Period, Day: res.Day})
	return res, nil
}

// checkActiveElsewhere rejects a day save that would place intervals after
// a running interval stored in another period. The running interval must
// stay the last one overall.
func (s *Service) checkActiveElsewhere(res reconcile.Result) error {
	active, ok, err := s.Active()
	if err != nil {
		return err
	}
	if !ok || active.Period() == res.Period {
		return nil
	}
	for _, iv := range res.Intervals {
		if !iv.Start.Before(active.Start) {
			return &reconcile.ValidationError{Reason: reconcile.ReasonActiveLapped}
		}
	}
	return nil
}
