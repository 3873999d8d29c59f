package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
	"examtrack/internal/cache"
	"examtrack/internal/state"
)

var taskPriorities = []string{"Low", "Medium", "High"}

type tasksModel struct {
	client *api.Client
	width  int
	height int

	snap     *state.Snapshot
	filtered []api.Task
	cursor   int

	filterInput  textinput.Model
	filterActive bool

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formTitle    *string
	formUnit     *string
	formTopic    *string
	formPriority *string
	formDueDate  *string
	formNotes    *string
}

func newTasksModel(client *api.Client) tasksModel {
	ti := textinput.New()
	ti.Placeholder = "filter by title, unit or topic"
	ti.CharLimit = 80

	title, unit, topic := "", "", ""
	priority, due, notes := "Medium", "", ""
	return tasksModel{
		client:       client,
		filterInput:  ti,
		formTitle:    &title,
		formUnit:     &unit,
		formTopic:    &topic,
		formPriority: &priority,
		formDueDate:  &due,
		formNotes:    &notes,
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t *tasksModel) apply(msg snapshotMsg) {
	t.snap = msg.snap
	t.refilter()
}

func (t *tasksModel) refilter() {
	if t.snap == nil {
		t.filtered = nil
		return
	}
	t.filtered = filterTasks(t.snap.Tasks, t.filterInput.Value())
	if t.cursor >= len(t.filtered) {
		t.cursor = max(0, len(t.filtered)-1)
	}
}

func (t tasksModel) capturing() bool {
	return t.filterActive || t.formActive
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if t.filterActive {
			return t.updateFilter(msg)
		}

		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.filtered)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.Filter):
			t.filterActive = true
			t.filterInput.Focus()
			return t, textinput.Blink
		case key.Matches(msg, keys.New):
			return t.showForm()
		case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
			return t, t.toggleSelected()
		case key.Matches(msg, keys.Delete):
			return t, t.deleteSelected()
		}
	}
	return t, nil
}

func (t tasksModel) updateFilter(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		t.filterActive = false
		t.filterInput.Blur()
		t.filterInput.SetValue("")
		t.refilter()
		return t, nil
	case "enter":
		t.filterActive = false
		t.filterInput.Blur()
		return t, nil
	}

	var cmd tea.Cmd
	t.filterInput, cmd = t.filterInput.Update(msg)
	t.refilter()
	return t, cmd
}

// toggleSelected flips completion server-side; the list re-renders only
// after the confirming reload.
func (t tasksModel) toggleSelected() tea.Cmd {
	if t.cursor >= len(t.filtered) {
		return nil
	}
	task := t.filtered[t.cursor]
	completed := !task.Completed
	client := t.client
	return mutationCmd(func(ctx context.Context) error {
		_, err := client.UpdateTask(ctx, task.ID, api.TaskPatch{Completed: &completed})
		return err
	}, "Task updated")
}

func (t tasksModel) deleteSelected() tea.Cmd {
	if t.cursor >= len(t.filtered) {
		return nil
	}
	task := t.filtered[t.cursor]
	client := t.client
	return mutationCmd(func(ctx context.Context) error {
		return client.DeleteTask(ctx, task.ID)
	}, "Task deleted")
}

func (t tasksModel) showForm() (tasksModel, tea.Cmd) {
	if t.snap == nil {
		return t, nil
	}

	units := t.snap.Units()
	if len(units) == 0 {
		return t, func() tea.Msg {
			return statusMsg{text: "No syllabus loaded yet", isError: true}
		}
	}

	*t.formTitle = ""
	*t.formUnit = units[0]
	*t.formTopic = ""
	*t.formPriority = "Medium"
	*t.formDueDate = ""
	*t.formNotes = ""

	unitOptions := make([]huh.Option[string], len(units))
	for i, u := range units {
		unitOptions[i] = huh.NewOption(u, u)
	}
	priorityOptions := make([]huh.Option[string], len(taskPriorities))
	for i, p := range taskPriorities {
		priorityOptions[i] = huh.NewOption(p, p)
	}

	snap := t.snap
	formUnit := t.formUnit
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(t.formTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be blank")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Unit").Options(unitOptions...).Value(t.formUnit),
			// Topic options follow the selected unit; re-evaluated whenever
			// the unit binding changes.
			huh.NewSelect[string]().Title("Topic").
				OptionsFunc(func() []huh.Option[string] {
					topics := snap.Topics(*formUnit)
					opts := make([]huh.Option[string], len(topics))
					for i, tp := range topics {
						opts[i] = huh.NewOption(tp, tp)
					}
					return opts
				}, formUnit).
				Value(t.formTopic),
			huh.NewSelect[string]().Title("Priority").Options(priorityOptions...).Value(t.formPriority),
			huh.NewInput().Title("Due date (YYYY-MM-DD, optional)").Value(t.formDueDate).
				Validate(validateOptionalDate),
			huh.NewInput().Title("Notes (optional)").Value(t.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func validateOptionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.Parse(cache.DateFormat, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		return t, t.submitForm()
	}

	return t, cmd
}

func (t tasksModel) submitForm() tea.Cmd {
	task := api.NewTask{
		Title:    strings.TrimSpace(*t.formTitle),
		Unit:     *t.formUnit,
		Topic:    *t.formTopic,
		Priority: *t.formPriority,
		Notes:    strings.TrimSpace(*t.formNotes),
	}
	if due := strings.TrimSpace(*t.formDueDate); due != "" {
		task.DueDate = &due
	}

	client := t.client
	return mutationCmd(func(ctx context.Context) error {
		_, err := client.CreateTask(ctx, task)
		return err
	}, "Task created")
}

func (t tasksModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Task")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View()),
		)
	}

	title := titleStyle.Render("Tasks")

	var rows []string
	rows = append(rows, title)

	if t.filterActive || t.filterInput.Value() != "" {
		rows = append(rows, "  "+t.filterInput.View())
	}
	rows = append(rows, "")

	if t.snap == nil {
		rows = append(rows, mutedStyle.Render("Loading tasks..."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	if len(t.filtered) == 0 {
		if t.filterInput.Value() != "" {
			rows = append(rows, mutedStyle.Render("No tasks match the filter."))
		} else {
			rows = append(rows, mutedStyle.Render("No tasks yet. Press n to create one."))
		}
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	for i, task := range t.filtered {
		rows = append(rows, t.renderTaskRow(i, task))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  c: toggle  d: delete  /: filter"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t tasksModel) renderTaskRow(i int, task api.Task) string {
	cursor := "  "
	style := normalItemStyle
	if i == t.cursor {
		cursor = "> "
		style = selectedItemStyle
	}

	check := "[ ]"
	if task.Completed {
		check = "[x]"
		if i != t.cursor {
			style = doneItemStyle
		}
	}

	badge := priorityBadge(task.Priority)

	due := ""
	if task.DueDate != nil {
		due = mutedStyle.Render("  due " + *task.DueDate)
	}

	line := style.Render(fmt.Sprintf("%s%s %-32s", cursor, check, task.Title))
	meta := mutedStyle.Render(fmt.Sprintf("  %s / %s", task.Unit, task.Topic))
	return line + " " + badge + meta + due
}

func priorityBadge(priority string) string {
	color, ok := priorityColors[priority]
	if !ok {
		color = colorMuted
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(priority)
}
