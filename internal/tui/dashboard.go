package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/reconcile"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/tracker"
)

const recentLimit = 5

type dashboardModel struct {
	svc    *tracker.Service
	timer  timerModel
	width  int
	height int

	defaultTags []string

	today  []interval.Interval
	recent []interval.Interval

	// Start form state
	formActive bool
	form       *huh.Form
	formTags   *string // survives value copies
}

func newDashboardModel(svc *tracker.Service, defaultTags []string) dashboardModel {
	tags := ""
	return dashboardModel{
		svc:         svc,
		timer:       newTimerModel(svc),
		defaultTags: defaultTags,
		formTags:    &tags,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) isPaused() bool  { return d.timer.paused() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	active    interval.Interval
	hasActive bool
	today     []interval.Interval
	recent    []interval.Interval
	err       error
}

func (d dashboardModel) loadData() tea.Cmd {
	svc := d.svc
	return func() tea.Msg {
		now := svc.Now()
		ivs, err := svc.Period(interval.PeriodOf(now))
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		active, ok, err := svc.Active()
		if err != nil {
			return dashboardDataMsg{err: err}
		}

		var today []interval.Interval
		for _, iv := range ivs {
			if interval.SameDay(iv.Start, now) {
				today = append(today, iv)
			}
		}
		recent := ivs
		if len(recent) > recentLimit {
			recent = recent[len(recent)-recentLimit:]
		}
		return dashboardDataMsg{
			active:    active,
			hasActive: ok,
			today:     today,
			recent:    recent,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.err != nil {
			return d, errStatus(msg.err)
		}
		d.today = msg.today
		d.recent = msg.recent
		d.timer.sync(msg.active, msg.hasActive)
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, nil
	}

	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			return d.showStartForm()

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()

		case key.Matches(msg, keys.Pause):
			if err := d.timer.toggle(); err != nil {
				return d, errStatus(err)
			}
			return d, d.loadData()
		}
	}
	return d, nil
}

func (d dashboardModel) showStartForm() (dashboardModel, tea.Cmd) {
	tags, err := d.svc.LastTags()
	if err != nil {
		return d, errStatus(err)
	}
	if len(tags) == 0 {
		tags = d.defaultTags
	}
	*d.formTags = strings.Join(tags, ", ")

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tags").
				Description("Comma-separated, e.g. work, review").
				Value(d.formTags),
		).Title("Start tracking"),
	).WithShowHelp(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		return d.startTimer(reconcile.SplitTags(*d.formTags))
	}
	return d, cmd
}

func (d dashboardModel) startTimer(tags []string) (dashboardModel, tea.Cmd) {
	iv, err := d.timer.start(tags)
	if err != nil {
		return d, errStatus(err)
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return trackerStartedMsg{iv: iv} },
	)
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	iv, err := d.timer.stop()
	if err != nil {
		return d, errStatus(err)
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return trackerStoppedMsg{iv: iv} },
	)
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		return activePanelStyle.Width(contentWidth).Render(d.form.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderTodayPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeStr := formatDuration(d.timer.currentElapsed())

		var timeDisplay, indicator string
		if d.timer.paused() {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			indicator = warningStyle.Render("⏸  PAUSED")
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  RUNNING")
		}
		tagLine := highlightStyle.Render(report.CombinedKey(d.timer.tags))

		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, tagLine)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start tracking"),
	)
	return panelStyle.Width(w).Render(content)
}

// todayTotals sums today's intervals per tag set, measuring the running
// one up to now.
func todayTotals(ivs []interval.Interval, now time.Time) (time.Duration, []report.TagTotal) {
	var total time.Duration
	buckets := make(map[string]time.Duration)
	for _, iv := range ivs {
		d := iv.Duration(now)
		total += d
		buckets[report.CombinedKey(iv.Tags)] += d
	}
	out := make([]report.TagTotal, 0, len(buckets))
	for k, v := range buckets {
		out = append(out, report.TagTotal{Key: k, Duration: v})
	}
	sortTagTotals(out)
	return total, out
}

func (d dashboardModel) renderTodayPanel(w int) string {
	total, tags := todayTotals(d.today, d.timer.now)
	header := fmt.Sprintf("%s  %s", titleStyle.Render("Today"), highlightStyle.Render(formatDuration(total)))

	if len(tags) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("Nothing tracked today"),
		))
	}

	rows := []string{header}
	for i, t := range tags {
		dot := lipgloss.NewStyle().Foreground(tagColor(i)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-24s %s", dot, t.Key, formatDuration(t.Duration)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Intervals")
	if len(d.recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No intervals this month"),
		))
	}

	rows := []string{title}
	for i := len(d.recent) - 1; i >= 0; i-- {
		iv := d.recent[i]
		status := "✓"
		dur := formatDuration(iv.Duration(d.timer.now))
		if iv.IsOpen() {
			status = "●"
			dur = "running"
		}
		rows = append(rows, fmt.Sprintf("  %s %s  %-24s %s",
			status, iv.Start.Format("Jan 02 15:04"), report.CombinedKey(iv.Tags), dur))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
