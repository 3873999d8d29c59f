package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"examtrack/internal/api"
	"examtrack/internal/state"
)

// viewState represents the currently active panel.
type viewState int

const (
	viewDashboard viewState = iota
	viewTasks
	viewRoutine
	viewPlanner
	viewTests
	viewSyllabus
	viewAnalytics
	viewSettings
	viewCount
)

var viewNames = []string{
	"Dashboard", "Tasks", "Routine", "Planner", "Tests", "Syllabus", "Analytics", "Settings",
}

var routeNames = []string{
	"dashboard", "tasks", "routine", "planner", "tests", "syllabus", "analytics", "settings",
}

// routeFromName resolves a route name to a panel. Unrecognized names fall
// back to the dashboard rather than failing.
func routeFromName(name string) viewState {
	for i, r := range routeNames {
		if r == name {
			return viewState(i)
		}
	}
	return viewDashboard
}

func (v viewState) route() string {
	if v < 0 || int(v) >= len(routeNames) {
		return routeNames[viewDashboard]
	}
	return routeNames[v]
}

// --- Messages ---

type tickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
	reload  bool
}

// reloadedMsg carries the result of one reload generation.
type reloadedMsg struct {
	gen  uint64
	snap *state.Snapshot
	err  error
}

type snapshotMsg struct {
	snap *state.Snapshot
}

type loggedInMsg struct {
	user *api.User
}

type sessionCommitMsg struct {
	seconds int
	err     error
}

type plannerDataMsg struct {
	tasks []api.PlannerItem
}

type testsDataMsg struct {
	tests []api.MockTest
}

type syllabusDataMsg struct {
	progress *api.SyllabusProgress
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

// mutationCmd runs one server mutation off-loop. Success triggers a full
// authoritative reload; there is no optimistic local mutation anywhere.
func mutationCmd(fn func(ctx context.Context) error, success string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		return statusMsg{text: success, reload: true}
	}
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// taskMatches reports whether the query matches a task. Empty queries match
// everything; otherwise the match is a case-insensitive substring search
// over "title unit topic".
func taskMatches(t api.Task, query string) bool {
	if query == "" {
		return true
	}
	haystack := strings.ToLower(t.Title + " " + t.Unit + " " + t.Topic)
	return strings.Contains(haystack, strings.ToLower(query))
}

// filterTasks applies the search query and moves completed tasks after
// pending ones, preserving fetch order within each group.
func filterTasks(tasks []api.Task, query string) []api.Task {
	var out []api.Task
	for _, t := range tasks {
		if taskMatches(t, query) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].Completed && out[j].Completed
	})
	return out
}
