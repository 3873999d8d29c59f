package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
	"examtrack/internal/cache"
	"examtrack/internal/export"
	"examtrack/internal/logging"
	"examtrack/internal/state"
)

// App is the root Bubble Tea model. It owns the route, the reload protocol,
// and delegates everything else to the per-panel models.
type App struct {
	client *api.Client
	store  *state.Store
	cache  *cache.Cache
	width  int
	height int

	activeView    viewState
	routeStack    []viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	loginActive   bool

	dashboard dashboardModel
	tasks     tasksModel
	routine   routineModel
	planner   plannerModel
	tests     testsModel
	syllabus  syllabusModel
	analytics analyticsModel
	settings  settingsModel
	login     loginModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(client *api.Client, c *cache.Cache) App {
	h := help.New()
	h.ShowAll = false

	client.OnAuthRequired(func() {
		logging.Logger.Info("session rejected, sign-in required")
	})

	store := state.New(client)
	return App{
		client:     client,
		store:      store,
		cache:      c,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(client, c),
		tasks:      newTasksModel(client),
		routine:    newRoutineModel(client, c),
		planner:    newPlannerModel(client),
		tests:      newTestsModel(client),
		syllabus:   newSyllabusModel(client),
		analytics:  newAnalyticsModel(client, c),
		settings:   newSettingsModel(client),
		login:      newLoginModel(client),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.sessionCheckCmd(), a.reloadCmd(), tickCmd())
}

// sessionCheckCmd asks the server who is signed in before the first reload
// lands, so a missing session raises the sign-in overlay immediately.
func (a App) sessionCheckCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		user, err := client.Me(context.Background())
		if err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		if user == nil {
			return reloadedMsg{err: api.ErrAuthRequired}
		}
		return statusMsg{text: "Signed in as " + user.Username}
	}
}

// logoutCmd drops the server session and opens the sign-in overlay.
func (a App) logoutCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		if err := client.Logout(context.Background()); err != nil && !errors.Is(err, api.ErrAuthRequired) {
			return statusMsg{text: err.Error(), isError: true}
		}
		return reloadedMsg{err: api.ErrAuthRequired}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// reloadCmd starts one reload generation. The generation token makes
// overlapping reloads safe: a slower, older fetch can never clobber the
// snapshot a newer one already applied.
func (a App) reloadCmd() tea.Cmd {
	gen := a.store.Begin()
	store := a.store
	return func() tea.Msg {
		snap, err := store.Fetch(context.Background())
		return reloadedMsg{gen: gen, snap: snap, err: err}
	}
}

// setRoute is the single switching point for both navigation triggers
// (direct panel keys and history pops). Exactly one panel is active after
// any call; unknown routes land on the dashboard.
func (a *App) setRoute(route string) tea.Cmd {
	a.activeView = routeFromName(route)
	return a.lazyLoad(a.activeView)
}

func (a *App) pushRoute(route string) tea.Cmd {
	a.routeStack = append(a.routeStack, a.activeView)
	return a.setRoute(route)
}

func (a *App) popRoute() tea.Cmd {
	if len(a.routeStack) == 0 {
		return nil
	}
	prev := a.routeStack[len(a.routeStack)-1]
	a.routeStack = a.routeStack[:len(a.routeStack)-1]
	return a.setRoute(prev.route())
}

// lazyLoad fetches panel-specific data on entry; the four panels that carry
// their own endpoints are not pre-fetched at bootstrap.
func (a *App) lazyLoad(v viewState) tea.Cmd {
	switch v {
	case viewRoutine:
		return a.routine.refresh()
	case viewPlanner:
		return a.planner.refresh()
	case viewTests:
		return a.tests.refresh()
	case viewSyllabus:
		return a.syllabus.refresh()
	case viewAnalytics:
		return a.analytics.refresh()
	}
	return nil
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
		a.tasks.setSize(a.width, contentHeight)
		a.routine.setSize(a.width, contentHeight)
		a.planner.setSize(a.width, contentHeight)
		a.tests.setSize(a.width, contentHeight)
		a.syllabus.setSize(a.width, contentHeight)
		a.analytics.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.login.setSize(a.width, contentHeight)
		return a, nil

	case reloadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrAuthRequired) {
				a.loginActive = true
				return a, a.login.activate()
			}
			a.status = msg.err.Error()
			a.statusErr = true
			return a, nil
		}
		if !a.store.Apply(msg.gen, msg.snap) {
			return a, nil // a newer reload already landed
		}
		applyTheme(msg.snap.Settings.Theme)
		return a, a.propagateSnapshot(msg.snap)

	case loggedInMsg:
		a.loginActive = false
		if msg.user != nil {
			a.status = "Signed in as " + msg.user.Username
			a.statusErr = false
		}
		return a, a.reloadCmd()

	case sessionCommitMsg:
		if msg.err != nil {
			// Best-effort commit failed: keep the minutes instead of
			// dropping them, retry rides on the next stop.
			logging.Logger.Error("study session commit failed", "seconds", msg.seconds, "err", msg.err)
			a.dashboard.timer.requeue(msg.seconds)
			a.status = "Could not log session (kept locally): " + msg.err.Error()
			a.statusErr = true
			return a, nil
		}
		a.status = fmt.Sprintf("Logged %s of study time", formatSeconds(msg.seconds))
		a.statusErr = false
		return a, a.reloadCmd()

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		if msg.reload {
			return a, a.reloadCmd()
		}
		return a, nil

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// The timer ticks regardless of which panel is visible.
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case tea.KeyMsg:
		if a.loginActive {
			var cmd tea.Cmd
			a.login, cmd = a.login.update(msg)
			return a, cmd
		}

		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A capturing child (form or filter input) sees keys first.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Logout):
			return a, a.logoutCmd()
		case key.Matches(msg, keys.Tab1):
			return a, a.pushRoute("dashboard")
		case key.Matches(msg, keys.Tab2):
			return a, a.pushRoute("tasks")
		case key.Matches(msg, keys.Tab3):
			return a, a.pushRoute("routine")
		case key.Matches(msg, keys.Tab4):
			return a, a.pushRoute("planner")
		case key.Matches(msg, keys.Tab5):
			return a, a.pushRoute("tests")
		case key.Matches(msg, keys.Tab6):
			return a, a.pushRoute("syllabus")
		case key.Matches(msg, keys.Tab7):
			return a, a.pushRoute("analytics")
		case key.Matches(msg, keys.Tab8):
			return a, a.pushRoute("settings")
		case key.Matches(msg, keys.Tab):
			next := (a.activeView + 1) % viewCount
			return a, a.pushRoute(next.route())
		case key.Matches(msg, keys.Back):
			return a, a.popRoute()
		}
	}

	// The login overlay owns non-key messages too (its form's internal
	// messages and loginFailedMsg arrive here).
	if a.loginActive {
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

// propagateSnapshot hands the fresh snapshot to every panel in a fixed
// order; the theme has already been applied before any panel sees it.
func (a *App) propagateSnapshot(snap *state.Snapshot) tea.Cmd {
	m := snapshotMsg{snap: snap}
	a.dashboard.apply(m)
	a.tasks.apply(m)
	a.settings.apply(m)
	a.routine.applySnapshot(m)
	a.analytics.applySnapshot(m)
	return nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewRoutine:
		a.routine, cmd = a.routine.update(msg)
	case viewPlanner:
		a.planner, cmd = a.planner.update(msg)
	case viewTests:
		a.tests, cmd = a.tests.update(msg)
	case viewSyllabus:
		a.syllabus, cmd = a.syllabus.update(msg)
	case viewAnalytics:
		a.analytics, cmd = a.analytics.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.capturing()
	case viewPlanner:
		return a.planner.formActive
	case viewTests:
		return a.tests.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch {
	case a.loginActive:
		content = a.login.view()
	case a.exportPicking:
		content = a.renderExportPicker()
	default:
		switch a.activeView {
		case viewDashboard:
			content = a.dashboard.view()
		case viewTasks:
			content = a.tasks.view()
		case viewRoutine:
			content = a.routine.view()
		case viewPlanner:
			content = a.planner.view()
		case viewTests:
			content = a.tests.view()
		case viewSyllabus:
			content = a.syllabus.view()
		case viewAnalytics:
			content = a.analytics.view()
		case viewSettings:
			content = a.settings.view()
		}
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
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

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("examtrack")
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
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	timerInfo := ""
	if a.dashboard.timer.isRunning() {
		timerInfo = successStyle.Render(" ● " + formatSeconds(a.dashboard.timer.elapsedSeconds()))
	} else if a.dashboard.timer.elapsedSeconds() > 0 {
		timerInfo = warningStyle.Render(" ⏸ " + formatSeconds(a.dashboard.timer.elapsedSeconds()))
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
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

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
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	snap := a.store.Snapshot()
	c := a.cache
	return func() tea.Msg {
		if snap == nil {
			return statusMsg{text: "Nothing to export yet", isError: true}
		}
		log, err := c.DailyLog()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("examtrack-export-%s.csv", dateStr))
			if err := export.ToCSV(snap.Tasks, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("examtrack-export-%s.json", dateStr))
			if err := export.ToJSON(snap.Tasks, log, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
