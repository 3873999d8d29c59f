package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
	"examtrack/internal/cache"
	"examtrack/internal/logging"
	"examtrack/internal/state"
)

type analyticsModel struct {
	client *api.Client
	cache  *cache.Cache
	width  int
	height int

	snap    *state.Snapshot
	summary *api.AnalyticsSummary
	trend   []cache.DayMinutes

	chart barchart.Model
}

func newAnalyticsModel(client *api.Client, c *cache.Cache) analyticsModel {
	return analyticsModel{
		client: client,
		cache:  c,
		chart:  barchart.New(60, 12),
	}
}

func (a *analyticsModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

func (a *analyticsModel) applySnapshot(msg snapshotMsg) {
	a.snap = msg.snap
}

func (a analyticsModel) refresh() tea.Cmd {
	client := a.client
	c := a.cache
	return func() tea.Msg {
		summary, err := client.AnalyticsSummary(context.Background())
		if err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			if !api.IsNotFound(err) {
				return statusMsg{text: err.Error(), isError: true}
			}
			summary = nil // server variant without analytics; chart still renders
		}

		log, err := c.DailyLog()
		if err != nil {
			logging.Logger.Warn("load daily log", "err", err)
		}
		return analyticsTrendMsg{
			summary: summary,
			trend:   cache.WeekTrend(log, time.Now()),
		}
	}
}

type analyticsTrendMsg struct {
	summary *api.AnalyticsSummary
	trend   []cache.DayMinutes
}

func (a analyticsModel) update(msg tea.Msg) (analyticsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case analyticsTrendMsg:
		a.summary = msg.summary
		a.trend = msg.trend
		a.buildChart()
		return a, nil
	}
	return a, nil
}

func (a *analyticsModel) buildChart() {
	chartWidth := a.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if a.height > 30 {
		chartHeight = 14
	}

	a.chart = barchart.New(chartWidth, chartHeight)

	barStyle := lipgloss.NewStyle().Foreground(colorPrimary)
	goalStyle := lipgloss.NewStyle().Foreground(colorSuccess)

	goalMinutes := 0
	if a.snap != nil {
		goalMinutes = a.snap.Settings.DailyGoal * 60
	}

	var bars []barchart.BarData
	for _, day := range a.trend {
		d, err := time.Parse(cache.DateFormat, day.Date)
		label := day.Date
		if err == nil {
			label = d.Format("Mon 02")
		}

		style := barStyle
		if goalMinutes > 0 && day.Minutes >= goalMinutes {
			style = goalStyle
		}

		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: "minutes", Value: float64(day.Minutes), Style: style},
			},
		})
	}

	a.chart.PushAll(bars)
	a.chart.Draw()
}

func (a analyticsModel) view() string {
	w := a.width - 4
	title := titleStyle.Render("Analytics")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if a.summary != nil {
		s := a.summary
		rows = append(rows, fmt.Sprintf("  %-20s %s", "Total study time",
			highlightStyle.Render(fmt.Sprintf("%.1fh", s.TotalStudyHours))))
		rows = append(rows, fmt.Sprintf("  %-20s %s", "Mock tests",
			highlightStyle.Render(fmt.Sprintf("%d attempted, avg %.1f, best %.1f",
				s.TestsAttempted, s.MockAverage, s.MockBest))))
		rows = append(rows, fmt.Sprintf("  %-20s %s", "Tasks per week",
			highlightStyle.Render(fmt.Sprintf("%.1f", s.TasksPerWeek))))
		rows = append(rows, "")
	}

	rows = append(rows, titleStyle.Render("  Last 7 days"))
	if len(a.trend) == 0 {
		rows = append(rows, mutedStyle.Render("  No study time recorded yet."))
	} else {
		rows = append(rows, a.chart.View())
		streakNote := ""
		if log, err := a.cache.DailyLog(); err == nil {
			streak := cache.Streak(log, time.Now())
			streakNote = fmt.Sprintf("  Current streak: %s", successStyle.Render(fmt.Sprintf("%d days", streak)))
		}
		if streakNote != "" {
			rows = append(rows, streakNote)
		}
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
