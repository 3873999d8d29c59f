package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
)

type plannerModel struct {
	client *api.Client
	width  int
	height int

	tasks  []api.PlannerItem
	loaded bool
	cursor int

	formActive bool
	form       *huh.Form
	formTitle  *string
}

func newPlannerModel(client *api.Client) plannerModel {
	title := ""
	return plannerModel{client: client, formTitle: &title}
}

func (p *plannerModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p plannerModel) refresh() tea.Cmd {
	client := p.client
	return func() tea.Msg {
		tasks, err := client.PlannerTasks(context.Background())
		if err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		return plannerDataMsg{tasks: tasks}
	}
}

func (p plannerModel) update(msg tea.Msg) (plannerModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case plannerDataMsg:
		p.tasks = msg.tasks
		p.loaded = true
		if p.cursor >= len(p.tasks) {
			p.cursor = max(0, len(p.tasks)-1)
		}
		return p, nil

	case plannerRefreshMsg:
		return p, p.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.tasks)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.New):
			return p.showForm()
		case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
			return p, p.toggleSelected()
		case key.Matches(msg, keys.Delete):
			return p, p.deleteSelected()
		}
	}
	return p, nil
}

type plannerRefreshMsg struct{}

func (p plannerModel) toggleSelected() tea.Cmd {
	if p.cursor >= len(p.tasks) {
		return nil
	}
	task := p.tasks[p.cursor]
	client := p.client
	return func() tea.Msg {
		_, err := client.UpdatePlannerTask(context.Background(), task.ID, !task.Completed)
		if err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		return plannerRefreshMsg{}
	}
}

func (p plannerModel) deleteSelected() tea.Cmd {
	if p.cursor >= len(p.tasks) {
		return nil
	}
	task := p.tasks[p.cursor]
	client := p.client
	return func() tea.Msg {
		if err := client.DeletePlannerTask(context.Background(), task.ID); err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		return plannerRefreshMsg{}
	}
}

func (p plannerModel) showForm() (plannerModel, tea.Cmd) {
	*p.formTitle = ""
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("What needs doing today?").Value(p.formTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be blank")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p plannerModel) updateForm(msg tea.Msg) (plannerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		title := strings.TrimSpace(*p.formTitle)
		client := p.client
		return p, func() tea.Msg {
			if _, err := client.CreatePlannerTask(context.Background(), title); err != nil {
				if errors.Is(err, api.ErrAuthRequired) {
					return reloadedMsg{err: err}
				}
				return statusMsg{text: err.Error(), isError: true}
			}
			return plannerRefreshMsg{}
		}
	}

	return p, cmd
}

func (p plannerModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Planner Task")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View()),
		)
	}

	title := titleStyle.Render("Today's Planner")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	switch {
	case !p.loaded:
		rows = append(rows, mutedStyle.Render("Loading planner..."))
	case len(p.tasks) == 0:
		rows = append(rows, mutedStyle.Render("Nothing planned. Press n to add a task."))
	default:
		for i, task := range p.tasks {
			cursor := "  "
			style := normalItemStyle
			if i == p.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			check := "[ ]"
			if task.Completed {
				check = "[x]"
				if i != p.cursor {
					style = doneItemStyle
				}
			}
			rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, check, task.Title)))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  c: toggle  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
