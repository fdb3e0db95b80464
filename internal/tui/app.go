package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/worklog/internal/export"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/tracker"
)

var exportFormats = []export.Format{export.FormatCSV, export.FormatJSON, export.FormatYAML}

// Options configures the app.
type Options struct {
	DefaultTags []string
	// ExportDir receives exported files; the home directory when empty.
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	svc     *tracker.Service
	opts    Options
	changes chan tracker.Change
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	month     monthModel
	day       dayModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(svc *tracker.Service, opts Options) App {
	h := help.New()
	h.ShowAll = false

	// Writes made by the views come back as periodChangedMsg so that every
	// view showing the period reloads.
	changes := make(chan tracker.Change, 16)
	svc.Subscribe(func(c tracker.Change) {
		select {
		case changes <- c:
		default:
		}
	})

	return App{
		svc:        svc,
		opts:       opts,
		changes:    changes,
		activeView: viewTracker,
		dashboard:  newDashboardModel(svc, opts.DefaultTags),
		month:      newMonthModel(svc),
		day:        newDayModel(svc),
		settings:   newSettingsModel(svc, opts.DefaultTags),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		a.month.refresh(),
		tickCmd(),
		waitForChange(a.changes),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan tracker.Change) tea.Cmd {
	return func() tea.Msg {
		return periodChangedMsg{change: <-ch}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.month.setSize(a.width, contentHeight)
		a.day.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTracker
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewMonth
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewDay
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Back) && a.activeView == viewDay:
			a.activeView = viewMonth
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// Always route ticks to the tracker so the footer stays current.
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case periodChangedMsg:
		cmds = append(cmds, waitForChange(a.changes), a.dashboard.loadData())
		if a.month.shows(msg.change.Period) {
			cmds = append(cmds, a.month.refresh())
		}
		return a, tea.Batch(cmds...)

	case openDayMsg:
		a.day.setDay(msg.day)
		a.activeView = viewDay
		return a, a.day.refresh()

	// Data messages go to their owner whatever view is active.
	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case monthDataMsg:
		var cmd tea.Cmd
		a.month, cmd = a.month.update(msg)
		return a, cmd

	case dayDataMsg, daySavedMsg, daySaveFailedMsg:
		var cmd tea.Cmd
		a.day, cmd = a.day.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case trackerStartedMsg:
		a.setStatus("Tracking " + report.CombinedKey(msg.iv.Tags))
		return a, nil

	case trackerStoppedMsg:
		a.setStatus("Tracker stopped")
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to " + msg.path)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string) {
	a.status = text
	a.statusError = false
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTracker:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewMonth:
		a.month, cmd = a.month.update(msg)
	case viewDay:
		a.day, cmd = a.day.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTracker:
		return a.dashboard.formActive
	case viewDay:
		return a.day.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTracker:
		return a.dashboard.loadData()
	case viewMonth:
		return a.month.refresh()
	case viewDay:
		return a.day.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTracker:
		content = a.dashboard.view()
	case viewMonth:
		content = a.month.view()
	case viewDay:
		content = a.day.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("worklog")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if a.dashboard.isRunning() {
		if a.dashboard.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ paused")
		} else {
			timerInfo = successStyle.Render(" ● " + formatDuration(a.dashboard.elapsed()))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render(fmt.Sprintf("Export %s", report.MonthStart(a.month.year, a.month.month).Format("January 2006")))
	rows := []string{title, ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+string(f)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the month currently selected in the month view.
func (a App) doExport(format export.Format) tea.Cmd {
	svc, year, month, dir := a.svc, a.month.year, a.month.month, a.opts.ExportDir
	return func() tea.Msg {
		sum, err := svc.Summary(year, month)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		if dir == "" {
			dir, _ = os.UserHomeDir()
		}
		path := filepath.Join(dir, fmt.Sprintf("worklog-%s.%s", sum.Start().Format("2006-01"), format))
		if err := export.Write(sum, format, path); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
