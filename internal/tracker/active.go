package tracker

import (
	"fmt"
	"strings"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/metrics"
	"github.com/sadopc/worklog/internal/reconcile"
	"github.com/sadopc/worklog/internal/store"
)

// Active returns the running interval, if any. It can only live in the
// newest period since an open interval is always the last one.
func (s *Service) Active() (interval.Interval, bool, error) {
	latest, err := s.store.LatestPeriod()
	if err != nil {
		return interval.Interval{}, false, err
	}
	if latest == "" {
		return interval.Interval{}, false, nil
	}
	ivs, err := s.Period(latest)
	if err != nil {
		return interval.Interval{}, false, err
	}
	iv, ok := interval.Active(ivs)
	return iv, ok, nil
}

// Start opens a new interval at the current time with tags. A running
// interval is stopped first.
func (s *Service) Start(tags []string) (interval.Interval, error) {
	now := s.Now()
	docs := make(map[string][]interval.Interval)

	latest, err := s.store.LatestPeriod()
	if err != nil {
		return interval.Interval{}, fmt.Errorf("start tracker: %w", err)
	}
	if latest != "" {
		ivs, err := s.periodForWrite(latest)
		if err != nil {
			return interval.Interval{}, fmt.Errorf("start tracker: %w", err)
		}
		if n := len(ivs); n > 0 {
			last := ivs[n-1]
			if !last.Start.Before(now) {
				return interval.Interval{}, fmt.Errorf("start tracker: interval at %s is not before now",
					last.Start.Format(interval.TimeLayout))
			}
			if last.IsOpen() {
				ivs = append([]interval.Interval(nil), ivs...)
				ivs[n-1] = last.Stop(now)
				docs[latest] = ivs
			}
		}
	}

	key := interval.PeriodOf(now)
	cur, ok := docs[key]
	if !ok {
		existing, err := s.periodForWrite(key)
		if err != nil {
			return interval.Interval{}, fmt.Errorf("start tracker: %w", err)
		}
		cur = append([]interval.Interval(nil), existing...)
	}
	started := interval.Open(now, tags...)
	docs[key] = append(cur, started)

	if err := s.write(docs); err != nil {
		return interval.Interval{}, fmt.Errorf("start tracker: %w", err)
	}
	if err := s.store.SetSetting(store.SettingLastTags, strings.Join(tags, ", ")); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to remember tags")
	}
	metrics.TrackerActive.Set(1)

	s.logger.Info().
		Strs("tags", tags).
		Time("start", started.Start).
		Msg("Tracker started")

	s.notify(Change{Period: key})
	return started, nil
}

// Stop closes the running interval at the current time.
func (s *Service) Stop() (interval.Interval, error) {
	now := s.Now()

	latest, err := s.store.LatestPeriod()
	if err != nil {
		return interval.Interval{}, fmt.Errorf("stop tracker: %w", err)
	}
	if latest == "" {
		return interval.Interval{}, ErrNoActiveTracker
	}
	ivs, err := s.periodForWrite(latest)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("stop tracker: %w", err)
	}
	active, ok := interval.Active(ivs)
	if !ok {
		return interval.Interval{}, ErrNoActiveTracker
	}
	if !now.After(active.Start) {
		return interval.Interval{}, fmt.Errorf("stop tracker: interval started at %s has no duration yet",
			active.Start.Format(interval.TimeLayout))
	}

	stopped := active.Stop(now)
	ivs = append([]interval.Interval(nil), ivs...)
	ivs[len(ivs)-1] = stopped

	if err := s.write(map[string][]interval.Interval{latest: ivs}); err != nil {
		return interval.Interval{}, fmt.Errorf("stop tracker: %w", err)
	}
	metrics.TrackerActive.Set(0)

	s.logger.Info().
		Strs("tags", stopped.Tags).
		Dur("duration", stopped.Duration(now)).
		Msg("Tracker stopped")

	s.notify(Change{Period: latest})
	return stopped, nil
}

// Import merges the records of text into the store. Records already
// present are skipped. It returns the number of intervals added.
func (s *Service) Import(text string) (int, error) {
	incoming, err := interval.ParseAll(text)
	if err != nil {
		return 0, fmt.Errorf("import intervals: %w", err)
	}

	docs := make(map[string][]interval.Interval)
	added := 0
	for _, iv := range incoming {
		key := iv.Period()
		cur, ok := docs[key]
		if !ok {
			existing, err := s.periodForWrite(key)
			if err != nil {
				return 0, fmt.Errorf("import intervals: %w", err)
			}
			cur = append([]interval.Interval(nil), existing...)
		}
		if !contains(cur, iv) {
			cur = append(cur, iv)
			added++
		}
		docs[key] = cur
	}
	if added == 0 {
		return 0, nil
	}

	all, err := s.allWith(docs)
	if err != nil {
		return 0, fmt.Errorf("import intervals: %w", err)
	}
	if err := interval.ValidateActive(all); err != nil {
		return 0, fmt.Errorf("import intervals: %w", err)
	}
	if err := s.write(docs); err != nil {
		return 0, fmt.Errorf("import intervals: %w", err)
	}
	if _, ok := interval.Active(interval.Sort(all)); ok {
		metrics.TrackerActive.Set(1)
	}

	s.logger.Info().
		Int("added", added).
		Int("periods", len(docs)).
		Msg("Imported intervals")

	for key := range docs {
		s.notify(Change{Period: key})
	}
	return added, nil
}

// LastTags returns the tags of the most recently started interval.
func (s *Service) LastTags() ([]string, error) {
	v, err := s.store.GetSettingOr(store.SettingLastTags, "")
	if err != nil {
		return nil, err
	}
	return reconcile.SplitTags(v), nil
}

// Periods lists the keys of all periods holding records.
func (s *Service) Periods() ([]string, error) {
	return s.store.ListPeriods()
}

// write serializes and stores docs in one transaction and drops their
// cache entries.
func (s *Service) write(docs map[string][]interval.Interval) error {
	out := make(map[string]string, len(docs))
	keys := make([]string, 0, len(docs))
	for key, ivs := range docs {
		out[key] = interval.FormatAll(interval.Sort(ivs))
		keys = append(keys, key)
	}
	if err := s.store.PutPeriods(out); err != nil {
		return err
	}
	s.invalidate(keys...)
	return nil
}

// allWith returns every stored interval, with the periods in docs
// replaced by their pending content.
func (s *Service) allWith(docs map[string][]interval.Interval) ([]interval.Interval, error) {
	keys, err := s.store.ListPeriods()
	if err != nil {
		return nil, err
	}
	var all []interval.Interval
	for _, key := range keys {
		if _, ok := docs[key]; ok {
			continue
		}
		ivs, err := s.Period(key)
		if err != nil {
			return nil, err
		}
		all = append(all, ivs...)
	}
	for _, ivs := range docs {
		all = append(all, ivs...)
	}
	return all, nil
}

func contains(ivs []interval.Interval, iv interval.Interval) bool {
	for _, have := range ivs {
		if have.Equal(iv) {
			return true
		}
	}
	return false
}

// SetLastTags replaces the tags offered for the next start.
func (s *Service) SetLastTags(tags []string) error {
	return s.store.SetSetting(store.SettingLastTags, strings.Join(tags, ", "))
}

// Settings lists the stored settings.
func (s *Service) Settings() ([]store.Setting, error) {
	return s.store.ListSettings()
}
