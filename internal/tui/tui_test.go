package tui

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/sadopc/worklog/internal/export"
	"github.com/sadopc/worklog/internal/reconcile"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tracker"
)

func at(day, hour, min int) time.Time {
	return time.Date(2024, time.June, day, hour, min, 0, 0, time.Local)
}

func newTestService(t *testing.T, now time.Time) (*tracker.Service, *store.Store, *tracker.FixedClock) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := &tracker.FixedClock{T: now}
	svc, err := tracker.New(s, tracker.Options{Clock: clock, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	return svc, s, clock
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// ============================================================
// Timer model
// ============================================================

func TestTimerStartStop(t *testing.T) {
	svc, _, clock := newTestService(t, at(10, 9, 0))

	tm := newTimerModel(svc)
	if tm.running() {
		t.Fatal("timer should start stopped")
	}

	iv, err := tm.start([]string{"work"})
	if err != nil {
		t.Fatal(err)
	}
	if !tm.running() || tm.paused() {
		t.Fatal("timer should be running after start")
	}
	if !iv.Start.Equal(at(10, 9, 0)) || tm.tags[0] != "work" {
		t.Fatalf("started %+v", iv)
	}

	clock.Set(at(10, 9, 45))
	tm.tick()
	if tm.currentElapsed() != 45*time.Minute {
		t.Fatalf("elapsed = %v, want 45m", tm.currentElapsed())
	}

	stopped, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if stopped.End == nil || !stopped.End.Equal(at(10, 9, 45)) {
		t.Fatalf("stopped %+v", stopped)
	}
	if tm.running() {
		t.Fatal("timer should be stopped")
	}
	if tm.currentElapsed() != 0 {
		t.Fatal("stopped timer should have 0 elapsed")
	}
}

func TestTimerStopWhenStopped(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 9, 0))
	tm := newTimerModel(svc)

	iv, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if !iv.Start.IsZero() {
		t.Fatal("stop on stopped timer should return an empty interval")
	}
}

func TestTimerPauseResume(t *testing.T) {
	svc, s, clock := newTestService(t, at(10, 9, 0))

	tm := newTimerModel(svc)
	tm.start([]string{"work"})

	clock.Set(at(10, 10, 0))
	if err := tm.toggle(); err != nil {
		t.Fatal(err)
	}
	if !tm.paused() || !tm.running() {
		t.Fatal("timer should be paused")
	}
	if _, ok, _ := svc.Active(); ok {
		t.Fatal("pausing should stop the interval")
	}

	clock.Set(at(10, 10, 30))
	if err := tm.toggle(); err != nil {
		t.Fatal(err)
	}
	if tm.paused() {
		t.Fatal("timer should be running after resume")
	}

	p, _ := s.GetPeriod("2024-06")
	want := "20240610T090000 - 20240610T100000 # work\n20240610T103000 # work\n"
	if p.Content != want {
		t.Fatalf("stored = %q, want %q", p.Content, want)
	}
}

func TestTimerStopWhilePaused(t *testing.T) {
	svc, _, clock := newTestService(t, at(10, 9, 0))

	tm := newTimerModel(svc)
	tm.start(nil)
	clock.Set(at(10, 9, 30))
	tm.pause()

	if _, err := tm.stop(); err != nil {
		t.Fatalf("stopping a paused timer should not touch the store: %v", err)
	}
	if tm.running() {
		t.Fatal("timer should be stopped")
	}
}

func TestTimerToggleWhenStopped(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 9, 0))
	tm := newTimerModel(svc)

	if err := tm.toggle(); err != nil {
		t.Fatal(err)
	}
	if tm.running() {
		t.Fatal("toggle should not start the timer")
	}
}

func TestTimerSync(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 9, 0))
	tm := newTimerModel(svc)

	iv, _ := svc.Start([]string{"elsewhere"})
	tm.sync(iv, true)
	if !tm.running() || tm.tags[0] != "elsewhere" {
		t.Fatal("sync should adopt the active interval")
	}

	tm.sync(iv, false)
	if tm.running() {
		t.Fatal("sync should stop the timer when nothing runs")
	}
}

// ============================================================
// Helper functions
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{25 * time.Hour, "25:00:00"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatHM(t *testing.T) {
	if got := formatHM(7*time.Hour + 5*time.Minute + 30*time.Second); got != "7:05" {
		t.Fatalf("formatHM = %q", got)
	}
	if got := formatHM(0); got != "0:00" {
		t.Fatalf("formatHM(0) = %q", got)
	}
}

func TestFormatHours(t *testing.T) {
	if got := formatHours(90 * time.Minute); got != "1.5h" {
		t.Fatalf("formatHours = %q", got)
	}
}

func TestValidClock(t *testing.T) {
	for _, ok := range []string{"", "  ", "09:00", "24:00", "99:99"} {
		if err := validClock(ok); err != nil {
			t.Errorf("validClock(%q) = %v, want nil", ok, err)
		}
	}
	if err := validClock("0900"); err == nil {
		t.Fatal("validClock(0900) should fail")
	}
}

func TestSaveErrorText(t *testing.T) {
	err := fmt.Errorf("save day 2024-06-05: %w", tracker.ErrDayHasActiveTracker)
	if got := saveErrorText(err); got != "Stop the active tracker before editing this day." {
		t.Fatalf("saveErrorText = %q", got)
	}
	verr := &reconcile.ValidationError{Row: 2, Start: "10:00", End: "09:00", Reason: reconcile.ReasonEndNotAfter}
	if got := saveErrorText(verr); got != "row 2 (10:00-09:00): End time must be after start time" {
		t.Fatalf("saveErrorText = %q", got)
	}
}

func TestPeriodRange(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, "0"},
		{[]string{"2024-01"}, "1 (2024-01)"},
		{[]string{"2024-01", "2024-02", "2024-06"}, "3 (2024-01 to 2024-06)"},
	}
	for _, tt := range tests {
		if got := periodRange(tt.in); got != tt.want {
			t.Errorf("periodRange(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSettingValue(t *testing.T) {
	if got := formatSettingValue(store.SettingLastTags, ""); got != "(none)" {
		t.Fatalf("empty last_tags = %q", got)
	}
	if got := formatSettingValue(store.SettingLastTags, "a, b"); got != "a, b" {
		t.Fatalf("last_tags = %q", got)
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 4 {
		t.Fatalf("expected 4 views, got %d", len(viewNames))
	}
	if viewNames[viewTracker] != "Tracker" || viewNames[viewSettings] != "Settings" {
		t.Fatalf("viewNames = %v", viewNames)
	}
}

// ============================================================
// Dashboard model
// ============================================================

func TestDashboardLoadData(t *testing.T) {
	svc, s, _ := newTestService(t, at(10, 12, 0))
	s.PutPeriod("2024-06", strings.Join([]string{
		"20240609T090000 - 20240609T100000 # old",
		"20240610T090000 - 20240610T100000 # a",
		"20240610T113000 # b",
	}, "\n")+"\n")

	d := newDashboardModel(svc, nil)
	d, _ = d.update(d.loadData()())

	if len(d.today) != 2 {
		t.Fatalf("today = %d intervals, want 2", len(d.today))
	}
	if len(d.recent) != 3 {
		t.Fatalf("recent = %d intervals, want 3", len(d.recent))
	}
	if !d.isRunning() || d.timer.tags[0] != "b" {
		t.Fatal("dashboard should pick up the running interval")
	}

	total, tags := todayTotals(d.today, at(10, 12, 0))
	if total != 90*time.Minute {
		t.Fatalf("today total = %v, want 1h30m", total)
	}
	if len(tags) != 2 || tags[0].Key != "a" {
		t.Fatalf("today tags = %+v", tags)
	}
}

func TestDashboardStartFormAndStop(t *testing.T) {
	svc, _, clock := newTestService(t, at(10, 9, 0))
	d := newDashboardModel(svc, []string{"work"})
	d.setSize(100, 30)

	d, _ = d.update(runes("s"))
	if !d.formActive {
		t.Fatal("s should open the start form")
	}
	if *d.formTags != "work" {
		t.Fatalf("form prefilled with %q, want default tags", *d.formTags)
	}
	d, _ = d.update(tea.KeyMsg{Type: tea.KeyEsc})
	if d.formActive {
		t.Fatal("esc should close the form")
	}

	d, cmd := d.startTimer([]string{"work"})
	if cmd == nil || !d.isRunning() {
		t.Fatal("startTimer should start the timer")
	}

	clock.Set(at(10, 10, 0))
	d, cmd = d.update(runes("x"))
	if cmd == nil || d.isRunning() {
		t.Fatal("x should stop the timer")
	}
}

func TestDashboardView(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 9, 0))
	d := newDashboardModel(svc, nil)

	if d.view() != "Terminal too small" {
		t.Fatal("expected size warning before a resize")
	}
	d.setSize(100, 30)
	out := d.view()
	for _, want := range []string{"STOPPED", "Today", "Recent Intervals"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

// ============================================================
// Month model
// ============================================================

func TestMonthRefresh(t *testing.T) {
	svc, s, _ := newTestService(t, at(10, 12, 0))
	s.PutPeriod("2024-06", "20240603T090000 - 20240603T110000 # a\n20240604T090000 - 20240604T100000 # a b\n")

	m := newMonthModel(svc)
	m.setSize(120, 40)
	if m.year != 2024 || m.month != time.June || m.cursor != 9 {
		t.Fatalf("initial month = %d-%v cursor %d", m.year, m.month, m.cursor)
	}

	m, _ = m.update(m.refresh()())
	if !m.loaded {
		t.Fatal("month should be loaded")
	}
	if m.summary.Total != 3*time.Hour {
		t.Fatalf("total = %v, want 3h", m.summary.Total)
	}

	out := m.view()
	for _, want := range []string{"June 2024", "By tag set", "By tag", "Estimate"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestMonthNavigation(t *testing.T) {
	svc, _, _ := newTestService(t, at(30, 12, 0))
	m := newMonthModel(svc)

	m, cmd := m.update(tea.KeyMsg{Type: tea.KeyRight})
	if cmd == nil || m.year != 2024 || m.month != time.July {
		t.Fatalf("right: %d-%v", m.year, m.month)
	}
	m.shift(-7)
	if m.year != 2023 || m.month != time.December {
		t.Fatalf("shift(-7): %d-%v", m.year, m.month)
	}

	m.shift(2) // February 2024 has 29 days
	if m.cursor != 28 {
		t.Fatalf("cursor = %d, want clamped to 28", m.cursor)
	}

	m, _ = m.update(runes("t"))
	if m.month != time.June || m.cursor != 29 {
		t.Fatalf("today: %v cursor %d", m.month, m.cursor)
	}
}

func TestMonthStaleDataIgnored(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 12, 0))
	m := newMonthModel(svc)

	msg := m.refresh()()
	m.shift(1)
	m, _ = m.update(msg)
	if m.loaded {
		t.Fatal("data for another month should be ignored")
	}
}

func TestMonthOpenDay(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 12, 0))
	m := newMonthModel(svc)

	m, _ = m.update(runes("k"))
	_, cmd := m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should open the day")
	}
	msg, ok := cmd().(openDayMsg)
	if !ok || !msg.day.Equal(at(9, 0, 0)) {
		t.Fatalf("openDayMsg = %+v", msg)
	}
	if !m.shows("2024-06") || m.shows("2024-07") || m.shows("2024-04") {
		t.Fatal("shows reports the wrong period")
	}
}

func TestMonthShowsPreviousPeriod(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 12, 0))
	m := newMonthModel(svc)
	if !m.shows("2024-05") {
		t.Fatal("June summary reads May for intervals crossing the boundary")
	}
	m.shift(-5)
	if !m.shows("2024-01") || !m.shows("2023-12") {
		t.Fatal("January summary should read the previous December")
	}
}

// ============================================================
// Day model
// ============================================================

func TestDayLoadAndSave(t *testing.T) {
	svc, s, _ := newTestService(t, at(10, 12, 0))
	s.PutPeriod("2024-06", "20240605T090000 - 20240605T100000 # a\n")

	d := newDayModel(svc)
	d.setSize(100, 30)
	d.setDay(at(5, 15, 0))
	d, _ = d.update(d.refresh()())
	if !d.loaded || len(d.rows) != 1 || d.rows[0].Tags != "a" {
		t.Fatalf("rows = %+v", d.rows)
	}

	d, _ = d.showForm()
	if !d.formActive || len(d.fields) != 1+blankRows {
		t.Fatalf("form fields = %d", len(d.fields))
	}
	if d.fields[0].start != "09:00" || d.fields[0].end != "10:00" {
		t.Fatalf("prefilled row = %+v", *d.fields[0])
	}
	d.fields[1].start, d.fields[1].end, d.fields[1].tags = "11:00", "12:00", "b"
	d.formActive = false

	msg := d.save(d.formRows())()
	saved, ok := msg.(daySavedMsg)
	if !ok {
		t.Fatalf("save returned %T: %+v", msg, msg)
	}
	if len(saved.res.Intervals) != 2 {
		t.Fatalf("saved %d intervals, want 2", len(saved.res.Intervals))
	}

	d, cmd := d.update(saved)
	if cmd == nil || d.errMsg != "" {
		t.Fatal("saved day should refresh")
	}
}

func TestDaySaveValidationError(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 12, 0))
	d := newDayModel(svc)
	d.setDay(at(5, 0, 0))

	msg := d.save([]reconcile.Row{{Start: "10:00", End: "09:00"}})()
	d, _ = d.update(msg)
	if d.errMsg != "row 1 (10:00-09:00): End time must be after start time" {
		t.Fatalf("errMsg = %q", d.errMsg)
	}
	d.setSize(100, 30)
	if !strings.Contains(d.view(), "End time must be after start time") {
		t.Fatal("view should show the validation error")
	}
}

func TestDayRefusesActiveTrackerDay(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 9, 0))
	svc.Start([]string{"work"})

	d := newDayModel(svc)
	d, _ = d.update(d.refresh()())
	if !d.open {
		t.Fatal("today holds the active tracker")
	}
	d, cmd := d.showForm()
	if d.formActive {
		t.Fatal("editor should refuse a day with the active tracker")
	}
	if msg, ok := cmd().(statusMsg); !ok || !msg.isError {
		t.Fatalf("expected error status, got %+v", msg)
	}
}

func TestDayNavigation(t *testing.T) {
	svc, _, _ := newTestService(t, at(1, 12, 0))
	d := newDayModel(svc)

	d, _ = d.update(tea.KeyMsg{Type: tea.KeyLeft})
	if !d.day.Equal(time.Date(2024, time.May, 31, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("left: %v", d.day)
	}
	d, _ = d.update(runes("t"))
	if !d.day.Equal(at(1, 0, 0)) {
		t.Fatalf("today: %v", d.day)
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T) (App, *tracker.Service) {
	t.Helper()
	svc, _, _ := newTestService(t, at(10, 12, 0))
	app := NewApp(svc, Options{ExportDir: t.TempDir()})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App), svc
}

func TestAppLoadingState(t *testing.T) {
	svc, _, _ := newTestService(t, at(10, 12, 0))
	app := NewApp(svc, Options{})
	if app.View() != "Loading..." {
		t.Fatal("expected loading view before the first resize")
	}
	if app.Init() == nil {
		t.Fatal("Init should return commands")
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app, _ := newTestApp(t)
	header := app.renderHeader()
	for _, name := range append(viewNames, "worklog") {
		if !strings.Contains(header, name) {
			t.Errorf("header missing %q", name)
		}
	}
}

func TestAppSwitchViews(t *testing.T) {
	app, _ := newTestApp(t)

	m, cmd := app.Update(runes("2"))
	app = m.(App)
	if app.activeView != viewMonth || cmd == nil {
		t.Fatalf("activeView = %v", app.activeView)
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(App)
	if app.activeView != viewDay {
		t.Fatalf("tab: activeView = %v", app.activeView)
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = m.(App)
	if app.activeView != viewMonth {
		t.Fatalf("esc from day: activeView = %v", app.activeView)
	}
}

func TestAppOpenDay(t *testing.T) {
	app, _ := newTestApp(t)
	m, cmd := app.Update(openDayMsg{day: at(5, 0, 0)})
	app = m.(App)
	if app.activeView != viewDay || cmd == nil {
		t.Fatal("openDayMsg should switch to the day view")
	}
	if !app.day.day.Equal(at(5, 0, 0)) {
		t.Fatalf("day = %v", app.day.day)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app, _ := newTestApp(t)
	m, _ := app.Update(statusMsg{text: "hello there"})
	app = m.(App)
	if !strings.Contains(app.renderFooter(), "hello there") {
		t.Fatal("footer should show the status")
	}
}

func TestAppPeriodChangeRefreshesMonth(t *testing.T) {
	app, _ := newTestApp(t)
	_, cmd := app.Update(periodChangedMsg{change: tracker.Change{Period: "2024-06"}})
	if cmd == nil {
		t.Fatal("a change to the shown month should trigger reloads")
	}
}

func TestAppExport(t *testing.T) {
	app, svc := newTestApp(t)
	svc.SaveDay(at(5, 0, 0), []reconcile.Row{{Start: "09:00", End: "10:00", Tags: "a"}})

	msg := app.doExport(export.FormatYAML)()
	done, ok := msg.(exportDoneMsg)
	if !ok {
		t.Fatalf("export returned %+v", msg)
	}
	if !strings.HasSuffix(done.path, "worklog-2024-06.yaml") {
		t.Fatalf("path = %q", done.path)
	}
	if _, err := os.Stat(done.path); err != nil {
		t.Fatal(err)
	}
}

func TestAppExportPicker(t *testing.T) {
	app, _ := newTestApp(t)
	m, _ := app.Update(runes("e"))
	app = m.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	m, _ = app.Update(runes("j"))
	app = m.(App)
	if app.exportCursor != 1 {
		t.Fatalf("cursor = %d", app.exportCursor)
	}
	if !strings.Contains(app.View(), "json") {
		t.Fatal("picker should list formats")
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(App).exportPicking {
		t.Fatal("esc should close the picker")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should not be empty")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should not be empty")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles
// ============================================================

func TestStylesRender(t *testing.T) {
	for _, s := range []string{
		activeTabStyle.Render("x"),
		panelStyle.Render("x"),
		timerRunningStyle.Render("x"),
		estimateStyle.Render("x"),
		errorStyle.Render("x"),
	} {
		if s == "" {
			t.Fatal("style rendered empty string")
		}
	}
	if tagColor(0) != tagColor(len(tagPalette)) {
		t.Fatal("tag colors should cycle")
	}
}
