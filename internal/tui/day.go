package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/reconcile"
	"github.com/sadopc/worklog/internal/tracker"
)

// blankRows is how many empty rows the editor offers for new intervals.
const blankRows = 2

// rowField holds one row's form values behind a pointer so that they
// survive value copies of the model.
type rowField struct {
	start, end, tags string
}

type dayModel struct {
	svc    *tracker.Service
	width  int
	height int

	day    time.Time
	rows   []reconcile.Row
	open   bool
	loaded bool
	errMsg string

	formActive bool
	form       *huh.Form
	fields     []*rowField
}

func newDayModel(svc *tracker.Service) dayModel {
	return dayModel{
		svc: svc,
		day: interval.StartOfDay(svc.Now()),
	}
}

func (d *dayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dayDataMsg struct {
	day  time.Time
	rows []reconcile.Row
	open bool
	err  error
}

type daySavedMsg struct {
	res reconcile.Result
}

type daySaveFailedMsg struct {
	err error
}

func (d dayModel) refresh() tea.Cmd {
	svc, day := d.svc, d.day
	return func() tea.Msg {
		rows, open, err := svc.Day(day)
		return dayDataMsg{day: day, rows: rows, open: open, err: err}
	}
}

func (d *dayModel) setDay(day time.Time) {
	d.day = interval.StartOfDay(day)
	d.loaded = false
	d.errMsg = ""
}

func (d dayModel) update(msg tea.Msg) (dayModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case dayDataMsg:
		if msg.err != nil {
			return d, errStatus(msg.err)
		}
		if !msg.day.Equal(d.day) {
			return d, nil // stale
		}
		d.rows = msg.rows
		d.open = msg.open
		d.loaded = true
		return d, nil

	case daySavedMsg:
		d.errMsg = ""
		day := msg.res.Day.Format("Mon Jan 02")
		return d, tea.Batch(d.refresh(), func() tea.Msg {
			return statusMsg{text: "Saved " + day}
		})

	case daySaveFailedMsg:
		d.errMsg = saveErrorText(msg.err)
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			d.setDay(d.day.AddDate(0, 0, -1))
			return d, d.refresh()
		case key.Matches(msg, keys.Right):
			d.setDay(d.day.AddDate(0, 0, 1))
			return d, d.refresh()
		case key.Matches(msg, keys.Today):
			d.setDay(d.svc.Now())
			return d, d.refresh()
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return d.showForm()
		}
	}
	return d, nil
}

func (d dayModel) showForm() (dayModel, tea.Cmd) {
	if !d.loaded {
		return d, nil
	}
	if d.open {
		return d, func() tea.Msg {
			return statusMsg{text: "Stop the active tracker before editing this day", isError: true}
		}
	}

	d.fields = make([]*rowField, 0, len(d.rows)+blankRows)
	for _, r := range d.rows {
		d.fields = append(d.fields, &rowField{start: r.Start, end: r.End, tags: r.Tags})
	}
	for i := 0; i < blankRows; i++ {
		d.fields = append(d.fields, &rowField{})
	}

	var groups []*huh.Group
	for i, f := range d.fields {
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Start").Placeholder("HH:MM").Value(&f.start).Validate(validClock),
			huh.NewInput().Title("End").Placeholder("HH:MM").Value(&f.end).Validate(validClock),
			huh.NewInput().Title("Tags").Placeholder("work, review").Value(&f.tags),
		).Title(fmt.Sprintf("Row %d", i+1)))
	}

	d.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	d.formActive = true
	d.errMsg = ""
	return d, d.form.Init()
}

func (d dayModel) updateForm(msg tea.Msg) (dayModel, tea.Cmd) {
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
		return d, d.save(d.formRows())
	}
	return d, cmd
}

// formRows collects the edited rows. Rows left blank are dropped by the
// reconciler.
func (d dayModel) formRows() []reconcile.Row {
	rows := make([]reconcile.Row, 0, len(d.fields))
	for _, f := range d.fields {
		rows = append(rows, reconcile.Row{Start: f.start, End: f.end, Tags: f.tags})
	}
	return rows
}

func (d dayModel) save(rows []reconcile.Row) tea.Cmd {
	svc, day := d.svc, d.day
	return func() tea.Msg {
		res, err := svc.SaveDay(day, rows)
		if err != nil {
			return daySaveFailedMsg{err: err}
		}
		return daySavedMsg{res: res}
	}
}

// validClock accepts an empty value or HH:MM. Range checks are left to
// the reconciler, which names the offending row.
func validClock(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, _, ok := strings.Cut(s, ":"); !ok {
		return errors.New("use HH:MM")
	}
	return nil
}

func saveErrorText(err error) string {
	var verr *reconcile.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if errors.Is(err, tracker.ErrDayHasActiveTracker) {
		return "Stop the active tracker before editing this day."
	}
	if errors.Is(err, tracker.ErrUnreadablePeriod) {
		return "This month has records that could not be read; fix them before editing."
	}
	return err.Error()
}

func (d dayModel) view() string {
	w := d.width - 4
	title := titleStyle.Render(d.day.Format("Monday, January 2, 2006"))

	if d.formActive && d.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View()),
		)
	}

	rows := []string{title, ""}
	switch {
	case !d.loaded:
		rows = append(rows, mutedStyle.Render("Loading..."))
	case len(d.rows) == 0:
		rows = append(rows, mutedStyle.Render("  No intervals on this day"))
	default:
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-6s %-8s %s", "Start", "End", "Tags")))
		for _, r := range d.rows {
			end := r.End
			if end == "" {
				end = successStyle.Render("running")
			}
			rows = append(rows, fmt.Sprintf("  %-6s %-8s %s", r.Start, end, r.Tags))
		}
	}

	if d.open {
		rows = append(rows, "", warningStyle.Render("  The active tracker started on this day."))
	}
	if d.errMsg != "" {
		rows = append(rows, "", errorStyle.Render("  "+d.errMsg))
	}
	rows = append(rows, "", mutedStyle.Render("  ←/→: day  enter: edit  t: today"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
