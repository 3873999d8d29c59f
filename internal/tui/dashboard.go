package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
	"examtrack/internal/cache"
	"examtrack/internal/state"
)

type dashboardModel struct {
	timer  timerModel
	width  int
	height int

	snap *state.Snapshot
}

func newDashboardModel(client sessionSubmitter, c *cache.Cache) dashboardModel {
	return dashboardModel{
		timer: newTimerModel(c, client),
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d *dashboardModel) apply(msg snapshotMsg) {
	d.snap = msg.snap
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		d.timer.tick()
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			d.timer.start()
			return d, nil
		case key.Matches(msg, keys.Pause):
			// Space only pauses/resumes an existing session; a cold start
			// is always the start key.
			if d.timer.isRunning() || d.timer.elapsedSeconds() > 0 {
				d.timer.toggle()
			}
			return d, nil
		case key.Matches(msg, keys.Stop):
			return d, d.timer.stop()
		}
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	timerPanel := d.renderTimerPanel(contentWidth)
	metricsPanel := d.renderMetricsPanel(contentWidth)
	countdownPanel := d.renderCountdownPanel(contentWidth)

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, metricsPanel, countdownPanel)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	timeStr := formatSeconds(d.timer.elapsedSeconds())

	var timeDisplay, indicator, hint string
	switch {
	case d.timer.isRunning():
		timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
		indicator = successStyle.Render("●  STUDYING")
		hint = mutedStyle.Render("space: pause  x: stop & log")
	case d.timer.elapsedSeconds() > 0:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
		indicator = warningStyle.Render("⏸  PAUSED")
		hint = mutedStyle.Render("s: resume  x: stop & log")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render("00:00:00")
		indicator = mutedStyle.Render("■  IDLE")
		hint = mutedStyle.Render("Press s to start studying")
	}

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, hint)
	if d.timer.isRunning() {
		return activePanelStyle.Width(w).Render(content)
	}
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderMetricsPanel(w int) string {
	title := titleStyle.Render("Progress")

	if d.snap == nil || d.snap.Progress == nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("Loading progress...")),
		)
	}

	p := d.snap.Progress
	var rows []string
	rows = append(rows, title)
	rows = append(rows, fmt.Sprintf("  %-18s %s", "Tasks",
		highlightStyle.Render(fmt.Sprintf("%d/%d done (%.1f%%)", p.Completed, p.Total, p.CompletionRate))))
	rows = append(rows, fmt.Sprintf("  %-18s %s", "Pending",
		warningStyle.Render(fmt.Sprintf("%d", p.Pending))))
	rows = append(rows, fmt.Sprintf("  %-18s %s", "Study streak",
		successStyle.Render(fmt.Sprintf("%d days", p.StudyStreak))))
	rows = append(rows, fmt.Sprintf("  %-18s %s", "Tracked",
		highlightStyle.Render(fmt.Sprintf("%d min total", p.TotalTrackedMinutes))))
	rows = append(rows, fmt.Sprintf("  %-18s %s", "Today / week",
		highlightStyle.Render(fmt.Sprintf("%.1fh / %.1fh", p.StudyTime.TodayHours, p.StudyTime.WeekHours))))

	if len(p.UnitBreakdown) > 0 {
		rows = append(rows, "")
		rows = append(rows, mutedStyle.Render("  Per unit:"))
		for _, unit := range d.snap.Units() {
			b, ok := p.UnitBreakdown[unit]
			if !ok || b.Total == 0 {
				continue
			}
			rows = append(rows, fmt.Sprintf("    %-36s %d/%d", unit, b.Completed, b.Total))
		}
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderCountdownPanel(w int) string {
	title := titleStyle.Render("Exam Countdown")

	var body string
	switch {
	case d.snap == nil:
		body = mutedStyle.Render("Loading...")
	case d.snap.Settings.ExamDate == nil:
		body = mutedStyle.Render("No exam date set. Configure one in Settings.")
	default:
		cd, err := countdownTo(*d.snap.Settings.ExamDate, time.Now())
		if err != nil {
			body = errorStyle.Render("Invalid exam date: " + *d.snap.Settings.ExamDate)
		} else if cd.Days < 0 {
			body = mutedStyle.Render("Exam date has passed.")
		} else {
			body = highlightStyle.Render(fmt.Sprintf("%dd %dh %dm", cd.Days, cd.Hours, cd.Minutes)) +
				mutedStyle.Render("  until "+*d.snap.Settings.ExamDate)
		}
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

// countdownTo splits the time until midnight of the exam day into whole
// days, hours and minutes.
func countdownTo(examDate string, now time.Time) (api.Countdown, error) {
	target, err := time.ParseInLocation(cache.DateFormat, examDate, now.Location())
	if err != nil {
		return api.Countdown{}, err
	}
	remaining := target.Sub(now)
	if remaining < 0 {
		return api.Countdown{Days: -1}, nil
	}
	mins := int(remaining.Minutes())
	return api.Countdown{
		Days:    mins / (24 * 60),
		Hours:   (mins / 60) % 24,
		Minutes: mins % 60,
	}, nil
}
