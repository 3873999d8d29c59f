package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
	"examtrack/internal/cache"
	"examtrack/internal/logging"
	"examtrack/internal/state"
)

// localRoutineItem is one entry of the built-in daily template, used when
// the server does not expose /api/daily-routine.
type localRoutineItem struct {
	ID        string
	TimeLabel string
	Title     string
	Minutes   int
	Completed bool
}

// routineTemplate is the fallback checklist. Minutes of completed items sum
// into the day's study log, which drives the streak.
var routineTemplate = []localRoutineItem{
	{ID: "morning-revision", TimeLabel: "06:00", Title: "Morning revision", Minutes: 60},
	{ID: "theory-block", TimeLabel: "09:00", Title: "Theory deep-work block", Minutes: 120},
	{ID: "pyq-practice", TimeLabel: "14:00", Title: "PYQ practice set", Minutes: 90},
	{ID: "notes-flashcards", TimeLabel: "17:00", Title: "Topic notes and flashcards", Minutes: 45},
	{ID: "mock-analysis", TimeLabel: "20:00", Title: "Mock analysis / weak areas", Minutes: 60},
	{ID: "quick-recap", TimeLabel: "21:30", Title: "Quick recap", Minutes: 30},
}

type routineServerMsg struct {
	items []api.RoutineItem
}

type routineLocalMsg struct {
	items []localRoutineItem
}

type routineRefreshMsg struct{}

type routineModel struct {
	client *api.Client
	cache  *cache.Cache
	width  int
	height int

	snap *state.Snapshot

	// Exactly one of these is populated, depending on the server variant.
	serverItems []api.RoutineItem
	localItems  []localRoutineItem
	local       bool
	loaded      bool

	cursor int
}

func newRoutineModel(client *api.Client, c *cache.Cache) routineModel {
	return routineModel{client: client, cache: c}
}

func (r *routineModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r *routineModel) applySnapshot(msg snapshotMsg) {
	r.snap = msg.snap
}

// refresh asks the server first; a 404 switches to the local template with
// cache-backed per-day completion.
func (r routineModel) refresh() tea.Cmd {
	client := r.client
	c := r.cache
	return func() tea.Msg {
		items, err := client.DailyRoutine(context.Background())
		if err == nil {
			return routineServerMsg{items: items}
		}
		if errors.Is(err, api.ErrAuthRequired) {
			return reloadedMsg{err: err}
		}
		if !api.IsNotFound(err) {
			return statusMsg{text: err.Error(), isError: true}
		}
		return routineLocalMsg{items: loadLocalRoutine(c)}
	}
}

func loadLocalRoutine(c *cache.Cache) []localRoutineItem {
	routineState, err := c.RoutineState()
	if err != nil {
		logging.Logger.Warn("load routine state", "err", err)
	}
	dayState := routineState[time.Now().Format(cache.DateFormat)]

	items := make([]localRoutineItem, len(routineTemplate))
	copy(items, routineTemplate)
	for i := range items {
		items[i].Completed = dayState[items[i].ID]
	}
	return items
}

func (r routineModel) itemCount() int {
	if r.local {
		return len(r.localItems)
	}
	return len(r.serverItems)
}

func (r routineModel) update(msg tea.Msg) (routineModel, tea.Cmd) {
	switch msg := msg.(type) {
	case routineServerMsg:
		r.serverItems = msg.items
		r.local = false
		r.loaded = true
		r.clampCursor()
		return r, nil

	case routineLocalMsg:
		r.localItems = msg.items
		r.local = true
		r.loaded = true
		r.clampCursor()
		return r, nil

	case routineRefreshMsg:
		return r, r.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < r.itemCount()-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
			return r.toggleSelected()
		}
	}
	return r, nil
}

func (r *routineModel) clampCursor() {
	if r.cursor >= r.itemCount() {
		r.cursor = max(0, r.itemCount()-1)
	}
}

func (r routineModel) toggleSelected() (routineModel, tea.Cmd) {
	if r.cursor >= r.itemCount() {
		return r, nil
	}

	if r.local {
		if err := r.toggleLocal(); err != nil {
			return r, func() tea.Msg {
				return statusMsg{text: err.Error(), isError: true}
			}
		}
		return r, nil
	}

	item := r.serverItems[r.cursor]
	completed := !item.Completed
	client := r.client
	return r, func() tea.Msg {
		if err := client.SetRoutineItem(context.Background(), item.ID, completed); err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		return routineRefreshMsg{}
	}
}

// toggleLocal flips the item in the per-day completion map and re-derives
// the day's minutes as the sum of completed template items.
func (r *routineModel) toggleLocal() error {
	item := &r.localItems[r.cursor]
	item.Completed = !item.Completed

	day := time.Now().Format(cache.DateFormat)

	routineState, err := r.cache.RoutineState()
	if err != nil {
		return err
	}
	if routineState[day] == nil {
		routineState[day] = make(map[string]bool)
	}
	routineState[day][item.ID] = item.Completed
	if err := r.cache.SetRoutineState(routineState); err != nil {
		return err
	}

	minutes := 0
	for _, it := range r.localItems {
		if it.Completed {
			minutes += it.Minutes
		}
	}
	return r.cache.SetDayMinutes(day, minutes)
}

func (r routineModel) view() string {
	w := r.width - 4
	title := titleStyle.Render("Daily Routine")

	if !r.loaded {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("Loading routine...")),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if r.local {
		rows = append(rows, r.renderLocalRows()...)
		rows = append(rows, "")
		rows = append(rows, r.renderLocalSummary())
	} else {
		rows = append(rows, r.renderServerRows()...)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  c/enter: toggle"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (r routineModel) renderServerRows() []string {
	if len(r.serverItems) == 0 {
		return []string{mutedStyle.Render("No routine items for today.")}
	}
	rows := make([]string, 0, len(r.serverItems))
	for i, item := range r.serverItems {
		rows = append(rows, routineRow(i == r.cursor, item.Completed, item.TimeLabel, item.Title, ""))
	}
	return rows
}

func (r routineModel) renderLocalRows() []string {
	rows := make([]string, 0, len(r.localItems))
	for i, item := range r.localItems {
		extra := mutedStyle.Render(fmt.Sprintf(" (%d min)", item.Minutes))
		rows = append(rows, routineRow(i == r.cursor, item.Completed, item.TimeLabel, item.Title, extra))
	}
	return rows
}

func (r routineModel) renderLocalSummary() string {
	log, err := r.cache.DailyLog()
	if err != nil {
		logging.Logger.Warn("load daily log", "err", err)
	}
	now := time.Now()
	minutes := log[now.Format(cache.DateFormat)]
	streak := cache.Streak(log, now)

	summary := fmt.Sprintf("  Today: %s   Streak: %s",
		highlightStyle.Render(fmt.Sprintf("%d min", minutes)),
		successStyle.Render(fmt.Sprintf("%d days", streak)),
	)
	if r.snap != nil && r.snap.Settings.DailyGoal > 0 {
		summary += mutedStyle.Render(fmt.Sprintf("   Goal: %dh/day", r.snap.Settings.DailyGoal))
	}
	return summary
}

func routineRow(selected, completed bool, timeLabel, title, extra string) string {
	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}

	check := "[ ]"
	if completed {
		check = "[x]"
		if !selected {
			style = doneItemStyle
		}
	}

	return style.Render(fmt.Sprintf("%s%s %s  %s", cursor, check, timeLabel, title)) + extra
}
