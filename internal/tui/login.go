package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
)

// loginModel is the overlay shown whenever a call comes back 401. It is the
// client-side stand-in for the login page redirect.
type loginModel struct {
	client *api.Client
	width  int
	height int

	form     *huh.Form
	errText  string
	username *string
	password *string
	mode     *string // "login" or "register"
}

func newLoginModel(client *api.Client) loginModel {
	u, p, m := "", "", "login"
	return loginModel{
		client:   client,
		username: &u,
		password: &p,
		mode:     &m,
	}
}

func (l *loginModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

// activate resets and focuses the form. Called each time auth is required.
func (l *loginModel) activate() tea.Cmd {
	*l.username = ""
	*l.password = ""
	l.errText = ""

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Account").
				Options(
					huh.NewOption("Sign in", "login"),
					huh.NewOption("Create account", "register"),
				).Value(l.mode),
			huh.NewInput().Title("Username").Value(l.username),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(l.password),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return l.form.Init()
}

type loginFailedMsg struct {
	text string
}

func (l loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if m, ok := msg.(loginFailedMsg); ok {
		l.errText = m.text
		return l, l.activate()
	}

	if l.form == nil {
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		return l, l.submit()
	}

	return l, cmd
}

func (l loginModel) submit() tea.Cmd {
	username := strings.TrimSpace(*l.username)
	password := *l.password
	mode := *l.mode
	client := l.client

	return func() tea.Msg {
		var user *api.User
		var err error
		if mode == "register" {
			user, err = client.Register(context.Background(), username, password)
		} else {
			user, err = client.Login(context.Background(), username, password)
		}
		if err != nil {
			var re *api.RequestError
			if errors.As(err, &re) {
				return loginFailedMsg{text: re.Message}
			}
			if errors.Is(err, api.ErrAuthRequired) {
				return loginFailedMsg{text: "Invalid username or password"}
			}
			return loginFailedMsg{text: err.Error()}
		}
		return loggedInMsg{user: user}
	}
}

func (l loginModel) view() string {
	w := l.width - 4
	title := titleStyle.Render("Sign in to continue")

	var rows []string
	rows = append(rows, title)
	if l.errText != "" {
		rows = append(rows, errorStyle.Render("  "+l.errText))
	}
	rows = append(rows, "")
	if l.form != nil {
		rows = append(rows, l.form.View())
	}

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
