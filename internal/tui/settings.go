package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/worklog/internal/reconcile"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tracker"
)

type settingsModel struct {
	svc    *tracker.Service
	width  int
	height int

	defaultTags []string
	settings    []store.Setting
	periods     []string

	formActive bool
	form       *huh.Form
	lastTags   *string // survives value copies
}

func newSettingsModel(svc *tracker.Service, defaultTags []string) settingsModel {
	lt := ""
	return settingsModel{
		svc:         svc,
		defaultTags: defaultTags,
		lastTags:    &lt,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	periods  []string
	err      error
}

func (s settingsModel) refresh() tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		settings, err := svc.Settings()
		if err != nil {
			return settingsDataMsg{err: err}
		}
		periods, err := svc.Periods()
		return settingsDataMsg{settings: settings, periods: periods, err: err}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		if msg.err != nil {
			return s, errStatus(msg.err)
		}
		s.settings = msg.settings
		s.periods = msg.periods
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	tags, err := s.svc.LastTags()
	if err != nil {
		return s, errStatus(err)
	}
	*s.lastTags = strings.Join(tags, ", ")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tags offered when starting").
				Description("Comma-separated").
				Value(s.lastTags),
		).Title("Tracker"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.svc.SetLastTags(reconcile.SplitTags(*s.lastTags)); err != nil {
			return s, errStatus(err)
		}
		return s, s.refresh()
	}

	return s, cmd
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows,
		fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("default_tags"),
			highlightStyle.Render(formatSettingValue("default_tags", strings.Join(s.defaultTags, ", ")))),
		fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("months tracked"),
			highlightStyle.Render(periodRange(s.periods))),
		"",
		mutedStyle.Render("Press enter to edit"),
	)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	if v == "" {
		switch k {
		case store.SettingLastTags, "default_tags":
			return "(none)"
		}
	}
	return v
}

// periodRange describes the stored months, e.g. "3 (2024-01 to 2024-06)".
func periodRange(periods []string) string {
	switch len(periods) {
	case 0:
		return "0"
	case 1:
		return "1 (" + periods[0] + ")"
	}
	return fmt.Sprintf("%d (%s to %s)", len(periods), periods[0], periods[len(periods)-1])
}
