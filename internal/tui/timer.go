package tui

import (
	"time"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/tracker"
)

// timerState tracks the current state of the timer.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// timerModel mirrors the service's active interval. Pausing stops the
// interval and remembers its tags; resuming starts a new one with them.
type timerModel struct {
	svc *tracker.Service

	state  timerState
	active interval.Interval
	tags   []string // tags of the running or paused interval
	now    time.Time
}

func newTimerModel(svc *tracker.Service) timerModel {
	return timerModel{
		svc:   svc,
		state: timerStopped,
		now:   svc.Now(),
	}
}

// sync adopts the service's active interval, e.g. after a start from
// another process. A paused timer stays paused while nothing runs.
func (t *timerModel) sync(iv interval.Interval, ok bool) {
	switch {
	case ok:
		t.state = timerRunning
		t.active = iv
		t.tags = iv.Tags
	case t.state == timerRunning:
		t.state = timerStopped
		t.active = interval.Interval{}
	}
}

func (t *timerModel) start(tags []string) (interval.Interval, error) {
	iv, err := t.svc.Start(tags)
	if err != nil {
		return interval.Interval{}, err
	}
	t.state = timerRunning
	t.active = iv
	t.tags = iv.Tags
	t.now = iv.Start
	return iv, nil
}

func (t *timerModel) stop() (interval.Interval, error) {
	if t.state == timerPaused {
		t.state = timerStopped
		return interval.Interval{}, nil
	}
	if t.state == timerStopped {
		return interval.Interval{}, nil
	}
	iv, err := t.svc.Stop()
	if err != nil {
		return interval.Interval{}, err
	}
	t.state = timerStopped
	t.active = interval.Interval{}
	return iv, nil
}

func (t *timerModel) pause() error {
	if t.state != timerRunning {
		return nil
	}
	if _, err := t.svc.Stop(); err != nil {
		return err
	}
	t.state = timerPaused
	t.active = interval.Interval{}
	return nil
}

func (t *timerModel) resume() error {
	if t.state != timerPaused {
		return nil
	}
	_, err := t.start(t.tags)
	return err
}

func (t *timerModel) toggle() error {
	switch t.state {
	case timerRunning:
		return t.pause()
	case timerPaused:
		return t.resume()
	}
	return nil
}

func (t *timerModel) tick() {
	t.now = t.svc.Now()
}

func (t timerModel) running() bool {
	return t.state != timerStopped
}

func (t timerModel) paused() bool {
	return t.state == timerPaused
}

func (t timerModel) currentElapsed() time.Duration {
	if t.state != timerRunning {
		return 0
	}
	return t.active.Duration(t.now)
}
