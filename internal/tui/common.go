package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/tracker"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTracker viewState = iota
	viewMonth
	viewDay
	viewSettings
)

var viewNames = []string{"Tracker", "Month", "Day", "Settings"}

// --- Messages ---

type trackerStartedMsg struct {
	iv interval.Interval
}

type trackerStoppedMsg struct {
	iv interval.Interval
}

// periodChangedMsg is delivered after any write through the service.
type periodChangedMsg struct {
	change tracker.Change
}

type openDayMsg struct {
	day time.Time
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// errStatus turns err into a status line command.
func errStatus(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
	}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatHM renders d as hours and minutes, e.g. "7:05".
func formatHM(d time.Duration) string {
	mins := int64(d / time.Minute)
	return fmt.Sprintf("%d:%02d", mins/60, mins%60)
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}
