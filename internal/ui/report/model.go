// Package report shows the burndown, history, XP and summary reports.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/dates"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/keys"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/report"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// Tab selects the report shown.
type Tab int

const (
	TabBurndown Tab = iota
	TabHistory
	TabXP
	TabSummary
)

var tabNames = []string{"Burndown", "History", "XP", "Summary"}

var intervals = []report.Interval{report.Daily, report.Weekly, report.Monthly}

// CloseMsg signals the parent to close the report view.
type CloseMsg struct{}

type dataMsg struct {
	burndown []report.BurndownPoint
	history  []report.HistoryRow
	xp       []report.DayXP
	stats    report.Stats
	err      error
}

// Model is the report view.
type Model struct {
	svc    *service.Service
	keys   *keys.KeyMap
	tab    Tab
	ivIdx  int
	offset int

	burndown []report.BurndownPoint
	history  []report.HistoryRow
	xp       []report.DayXP
	stats    report.Stats
	err      error

	chart  barchart.Model
	width  int
	height int
}

// New creates a new report model opening on the given interval.
func New(svc *service.Service, k *keys.KeyMap, iv report.Interval, width, height int) Model {
	m := Model{
		svc:    svc,
		keys:   k,
		chart:  barchart.New(60, 12),
		width:  width,
		height: height,
	}
	for i, v := range intervals {
		if v == iv {
			m.ivIdx = i
		}
	}
	return m
}

// Init loads the report data.
func (m Model) Init() tea.Cmd {
	return m.refresh()
}

func (m Model) interval() report.Interval {
	return intervals[m.ivIdx]
}

// Window returns the range covered by the chart: a fixed number of buckets
// of the interval, ending offset windows before now.
func Window(now time.Time, iv report.Interval, offset int) (time.Time, time.Time) {
	day := dates.StartOfDay(now)
	switch iv {
	case report.Monthly:
		to := now.AddDate(0, -12*offset, 0)
		return time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, to.Location()).AddDate(0, -11, 0), to
	case report.Weekly:
		to := now.AddDate(0, 0, -7*12*offset)
		return day.AddDate(0, 0, -7*12*offset-7*11), to
	}
	to := now.AddDate(0, 0, -14*offset)
	return day.AddDate(0, 0, -14*offset-13), to
}

func (m Model) refresh() tea.Cmd {
	svc := m.svc
	iv := m.interval()
	from, to := Window(svc.Now(), iv, m.offset)
	xpFrom, xpTo := Window(svc.Now(), report.Daily, m.offset)
	return func() tea.Msg {
		ctx := context.Background()
		var (
			d   dataMsg
			err error
		)
		if d.burndown, err = svc.Burndown(ctx, from, to, iv); err != nil {
			return dataMsg{err: err}
		}
		if d.history, err = svc.TaskHistory(ctx, from, to, iv); err != nil {
			return dataMsg{err: err}
		}
		if d.xp, err = svc.XPByDay(ctx, xpFrom, xpTo); err != nil {
			return dataMsg{err: err}
		}
		if d.stats, err = svc.Summary(ctx); err != nil {
			return dataMsg{err: err}
		}
		return d
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dataMsg:
		m.err = msg.err
		if msg.err == nil {
			m.burndown = msg.burndown
			m.history = msg.history
			m.xp = msg.xp
			m.stats = msg.stats
		}
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, m.keys.CycleInterval):
			m.ivIdx = (m.ivIdx + 1) % len(intervals)
			m.offset = 0
			return m, m.refresh()
		case key.Matches(msg, m.keys.PrevPage):
			m.offset++
			return m, m.refresh()
		case key.Matches(msg, m.keys.NextPage):
			if m.offset > 0 {
				m.offset--
			}
			return m, m.refresh()
		case msg.String() >= "1" && msg.String() <= "4":
			m.tab = Tab(msg.String()[0] - '1')
			m.buildChart()
			return m, nil
		}
	}
	return m, nil
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.buildChart()
}

func (m *Model) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}
	m.chart = barchart.New(chartWidth, chartHeight)

	pending := lipgloss.NewStyle().Foreground(theme.ColorOrange)
	started := lipgloss.NewStyle().Foreground(theme.ColorBlue)
	done := lipgloss.NewStyle().Foreground(theme.ColorGreen)
	added := lipgloss.NewStyle().Foreground(theme.ColorMagenta)
	deleted := lipgloss.NewStyle().Foreground(theme.ColorGray)

	iv := m.interval()
	var bars []barchart.BarData
	switch m.tab {
	case TabBurndown:
		for _, p := range m.burndown {
			bars = append(bars, barchart.BarData{
				Label: p.Label(iv),
				Values: []barchart.BarValue{
					{Name: "Done", Value: float64(p.Done), Style: done},
					{Name: "Started", Value: float64(p.Started), Style: started},
					{Name: "Pending", Value: float64(p.Pending), Style: pending},
				},
			})
		}
	case TabHistory:
		for _, r := range m.history {
			bars = append(bars, barchart.BarData{
				Label: r.Label(iv),
				Values: []barchart.BarValue{
					{Name: "Added", Value: float64(r.Added), Style: added},
					{Name: "Completed", Value: float64(r.Completed), Style: done},
					{Name: "Deleted", Value: float64(r.Deleted), Style: deleted},
				},
			})
		}
	case TabXP:
		for _, d := range m.xp {
			bars = append(bars, barchart.BarData{
				Label:  d.Day.Format("02"),
				Values: []barchart.BarValue{{Name: "XP", Value: float64(d.XP), Style: done}},
			})
		}
	default:
		return
	}
	if len(bars) == 0 {
		return
	}
	m.chart.PushAll(bars)
	m.chart.Draw()
}

// View renders the report.
func (m Model) View() string {
	w := m.width - 4

	var tabs []string
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == m.tab {
			tabs = append(tabs, theme.HeaderStyle.Render(label))
		} else {
			tabs = append(tabs, theme.HelpStyle.Padding(0, 1).Render(label))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	muted := lipgloss.NewStyle().Foreground(theme.ColorGray)
	var body string
	switch {
	case m.err != nil:
		body = theme.ErrorStyle.Render(m.err.Error())
	case m.tab == TabSummary:
		body = m.renderSummary(w)
	default:
		from, to := Window(m.svc.Now(), m.interval(), m.offset)
		if m.tab == TabXP {
			from, to = Window(m.svc.Now(), report.Daily, m.offset)
		}
		rangeLabel := muted.Render(fmt.Sprintf("%s to %s (%s)",
			from.Format("Jan 02"), to.Format("Jan 02, 2006"), m.interval()))
		body = lipgloss.JoinVertical(lipgloss.Left,
			rangeLabel, "", m.chart.View(), "", m.renderLegend(), "", m.renderTable(w))
	}

	nav := muted.Render("1-4 switch report | tab interval | ←/→ page | esc back")
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", nav),
	)
}

func (m Model) renderLegend() string {
	dot := func(c lipgloss.AdaptiveColor, name string) string {
		return lipgloss.NewStyle().Foreground(c).Render("●") + " " + name
	}
	switch m.tab {
	case TabBurndown:
		return strings.Join([]string{
			dot(theme.ColorOrange, "pending"), dot(theme.ColorBlue, "started"), dot(theme.ColorGreen, "done"),
		}, "  ")
	case TabHistory:
		return strings.Join([]string{
			dot(theme.ColorMagenta, "added"), dot(theme.ColorGreen, "completed"), dot(theme.ColorGray, "deleted"),
		}, "  ")
	}
	return dot(theme.ColorGreen, "XP earned")
}

func (m Model) renderTable(w int) string {
	muted := lipgloss.NewStyle().Foreground(theme.ColorGray)
	rule := muted.Render(strings.Repeat("─", max(min(w-2, 54), 1)))
	iv := m.interval()

	var rows []string
	switch m.tab {
	case TabBurndown:
		rows = append(rows, muted.Render(fmt.Sprintf("%-10s %8s %8s %8s", "Period", "Pending", "Started", "Done")), rule)
		for _, p := range m.burndown {
			rows = append(rows, fmt.Sprintf("%-10s %8d %8d %8d", p.Label(iv), p.Pending, p.Started, p.Done))
		}
	case TabHistory:
		rows = append(rows, muted.Render(fmt.Sprintf("%-10s %8s %8s %8s %6s", "Period", "Added", "Done", "Deleted", "Net")), rule)
		for _, r := range m.history {
			rows = append(rows, fmt.Sprintf("%-10s %8d %8d %8d %+6d", r.Label(iv), r.Added, r.Completed, r.Deleted, r.Net()))
		}
	case TabXP:
		total := 0
		for _, d := range m.xp {
			total += d.XP
		}
		rows = append(rows, fmt.Sprintf("%d XP over %d days", total, len(m.xp)))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderSummary(w int) string {
	return RenderSummary(m.stats, w)
}

// RenderSummary formats collection statistics as a text block at most w
// columns wide.
func RenderSummary(s report.Stats, w int) string {
	muted := lipgloss.NewStyle().Foreground(theme.ColorGray)
	rule := muted.Render(strings.Repeat("─", max(min(w-2, 60), 1)))

	rows := []string{
		fmt.Sprintf("%s %d pending, %d waiting, %d completed, %d deleted, %d recurring",
			theme.LabelStyle.Render("Tasks"), s.Pending, s.Waiting, s.Completed, s.Deleted, s.Recurring),
		fmt.Sprintf("%s %d overdue, %d active, %d blocked, %d blocking",
			theme.LabelStyle.Render("Open"), s.Overdue, s.Active, s.Blocked, s.Blocking),
		fmt.Sprintf("%s avg %.2f, max %.2f",
			theme.LabelStyle.Render("Urgency"), s.AvgUrgency, s.MaxUrgency),
		fmt.Sprintf("%s %.0f%%, avg %s to complete",
			theme.LabelStyle.Render("Completion"), s.CompletionRate*100, formatDuration(s.AvgCompletionTime)),
	}

	if len(s.Projects) > 0 {
		rows = append(rows, "", muted.Render(fmt.Sprintf("%-24s %6s %9s %8s %5s", "Project", "Remain", "Avg age", "Complete", "")), rule)
		for _, p := range s.Projects {
			name := strings.Repeat("  ", p.Depth) + lastSegment(p.Project)
			rows = append(rows, fmt.Sprintf("%-24s %6d %9s %7.0f%% %s",
				name, p.Remaining, formatDuration(p.AvgAge), p.PercentComplete, percentBar(p.PercentComplete, 10)))
		}
	}

	if len(s.Tags) > 0 {
		var tags []string
		for _, t := range s.Tags {
			tags = append(tags, fmt.Sprintf("+%s(%d)", t.Tag, t.Count))
		}
		rows = append(rows, "", theme.LabelStyle.Render("Tags")+" "+strings.Join(tags, " "))
	}
	return strings.Join(rows, "\n")
}

func lastSegment(project string) string {
	if i := strings.LastIndex(project, "."); i >= 0 {
		return project[i+1:]
	}
	return project
}

func percentBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(filled, width))
	return theme.XPBarFull.Render(strings.Repeat("█", filled)) +
		theme.XPBarEmpty.Render(strings.Repeat("░", width-filled))
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
