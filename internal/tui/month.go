package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/tracker"
)

type monthModel struct {
	svc    *tracker.Service
	width  int
	height int

	year    int
	month   time.Month
	cursor  int // selected day, 0-based
	summary report.MonthSummary
	loaded  bool

	chart barchart.Model
}

func newMonthModel(svc *tracker.Service) monthModel {
	now := svc.Now()
	return monthModel{
		svc:    svc,
		year:   now.Year(),
		month:  now.Month(),
		cursor: now.Day() - 1,
		chart:  barchart.New(60, 12),
	}
}

func (m *monthModel) setSize(w, h int) {
	m.width = w
	m.height = h
	if m.loaded {
		m.buildChart()
	}
}

type monthDataMsg struct {
	summary report.MonthSummary
	err     error
}

func (m monthModel) refresh() tea.Cmd {
	svc, year, month := m.svc, m.year, m.month
	return func() tea.Msg {
		sum, err := svc.Summary(year, month)
		return monthDataMsg{summary: sum, err: err}
	}
}

// shows reports whether the displayed summary reads the period key. The
// previous period counts too since its intervals can run into this month.
func (m monthModel) shows(period string) bool {
	start := report.MonthStart(m.year, m.month)
	return interval.PeriodOf(start) == period || interval.PeriodOf(start.AddDate(0, -1, 0)) == period
}

// selectedDay returns local midnight of the highlighted day.
func (m monthModel) selectedDay() time.Time {
	return report.MonthStart(m.year, m.month).AddDate(0, 0, m.cursor)
}

func (m *monthModel) shift(months int) {
	start := report.MonthStart(m.year, m.month).AddDate(0, months, 0)
	m.year, m.month = start.Year(), start.Month()
	m.cursor = min(m.cursor, report.DaysIn(m.year, m.month)-1)
	m.loaded = false
}

func (m monthModel) update(msg tea.Msg) (monthModel, tea.Cmd) {
	switch msg := msg.(type) {
	case monthDataMsg:
		if msg.err != nil {
			return m, errStatus(msg.err)
		}
		if msg.summary.Year != m.year || msg.summary.Month != m.month {
			return m, nil // stale
		}
		m.summary = msg.summary
		m.loaded = true
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.shift(-1)
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			m.shift(1)
			return m, m.refresh()
		case key.Matches(msg, keys.Today):
			now := m.svc.Now()
			m.year, m.month, m.cursor = now.Year(), now.Month(), now.Day()-1
			m.loaded = false
			return m, m.refresh()
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < report.DaysIn(m.year, m.month)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			day := m.selectedDay()
			return m, func() tea.Msg { return openDayMsg{day: day} }
		}
	}
	return m, nil
}

func (m *monthModel) buildChart() {
	// At least two columns per day.
	chartWidth := max(m.width-8, 2*len(m.summary.Days))
	chartHeight := 10
	if m.height > 36 {
		chartHeight = 14
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	start := m.summary.Start()
	var bars []barchart.BarData
	for i, d := range m.summary.Days {
		style := lipgloss.NewStyle().Foreground(colorSecondary)
		if i == m.cursor {
			style = lipgloss.NewStyle().Foreground(colorPrimary)
		}
		if d == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: start.AddDate(0, 0, i).Format("2"),
			Values: []barchart.BarValue{{
				Name:  start.AddDate(0, 0, i).Format("Jan 02"),
				Value: d.Hours(),
				Style: style,
			}},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m monthModel) view() string {
	w := m.width - 4

	title := titleStyle.Render(report.MonthStart(m.year, m.month).Format("January 2006"))
	total := highlightStyle.Render(formatHM(m.summary.Total))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", total)
	if m.summary.ShowEstimation {
		header = lipgloss.JoinHorizontal(lipgloss.Bottom, header, "  ",
			estimateStyle.Render(fmt.Sprintf("%s: %s", m.summary.EstimationLabel, formatHM(m.summary.EstimatedTotal))))
	}

	if !m.loaded {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("Loading..."),
		))
	}

	day := m.selectedDay()
	dayLine := fmt.Sprintf("%s  %s",
		selectedItemStyle.Render(day.Format("Mon Jan 02")),
		formatHM(m.summary.Days[m.cursor]))

	sections := []string{header, "", m.chart.View(), dayLine, ""}
	sections = append(sections, m.renderTagTable("By tag set", m.summary.Combined, w))
	if m.summary.HasMultiTag {
		sections = append(sections, "", m.renderTagTable("By tag", m.summary.Individual, w))
	}
	sections = append(sections, "",
		mutedStyle.Render("  ←/→: month  ↑/↓: day  enter: edit day  t: today  e: export"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m monthModel) renderTagTable(title string, totals []report.TagTotal, w int) string {
	if len(totals) == 0 {
		return mutedStyle.Render("  No time tracked this month")
	}

	head := fmt.Sprintf("  %-28s %10s", title, "Time")
	if m.summary.ShowEstimation {
		head += fmt.Sprintf(" %12s", "Estimate")
	}
	rows := []string{
		mutedStyle.Render(head),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, lipgloss.Width(head)))),
	}
	for i, t := range totals {
		dot := lipgloss.NewStyle().Foreground(tagColor(i)).Render("●")
		row := fmt.Sprintf("  %s %-26s %10s", dot, t.Key, formatHM(t.Duration))
		if m.summary.ShowEstimation {
			row += " " + estimateStyle.Render(fmt.Sprintf("%12s", formatHM(t.Estimated)))
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

// sortTagTotals orders totals by descending duration, then by key.
func sortTagTotals(totals []report.TagTotal) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Duration != totals[j].Duration {
			return totals[i].Duration > totals[j].Duration
		}
		return totals[i].Key < totals[j].Key
	})
}
