package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
	"examtrack/internal/state"
)

type settingsModel struct {
	client *api.Client
	width  int
	height int

	snap *state.Snapshot

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	examDate  *string
	dailyGoal *string
	theme     *string
}

func newSettingsModel(client *api.Client) settingsModel {
	ed, dg, th := "", "", ""
	return settingsModel{
		client:    client,
		examDate:  &ed,
		dailyGoal: &dg,
		theme:     &th,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *settingsModel) apply(msg snapshotMsg) {
	s.snap = msg.snap
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	if s.snap == nil {
		return s, nil
	}

	*s.examDate = ""
	if s.snap.Settings.ExamDate != nil {
		*s.examDate = *s.snap.Settings.ExamDate
	}
	*s.dailyGoal = strconv.Itoa(s.snap.Settings.DailyGoal)
	*s.theme = s.snap.Settings.Theme
	if *s.theme == "" {
		*s.theme = "dark"
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Exam date (YYYY-MM-DD, optional)").Value(s.examDate).
				Validate(validateOptionalDate),
			huh.NewInput().Title("Daily goal (hours)").Value(s.dailyGoal).
				Validate(func(v string) error {
					n, err := strconv.Atoi(strings.TrimSpace(v))
					if err != nil || n < 0 {
						return fmt.Errorf("daily goal must be a non-negative integer")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
				).Value(s.theme),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.submitForm()
	}

	return s, cmd
}

func (s settingsModel) submitForm() tea.Cmd {
	goal, _ := strconv.Atoi(strings.TrimSpace(*s.dailyGoal))
	settings := api.Settings{
		DailyGoal: goal,
		Theme:     *s.theme,
	}
	if date := strings.TrimSpace(*s.examDate); date != "" {
		settings.ExamDate = &date
	}

	// The theme takes effect immediately; the reload only confirms it.
	applyTheme(settings.Theme)

	client := s.client
	return mutationCmd(func(ctx context.Context) error {
		_, err := client.UpdateSettings(ctx, settings)
		return err
	}, "Settings saved")
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if s.snap == nil {
		rows = append(rows, mutedStyle.Render("Loading settings..."))
	} else {
		examDate := "not set"
		if s.snap.Settings.ExamDate != nil {
			examDate = *s.snap.Settings.ExamDate
		}
		rows = append(rows, fmt.Sprintf("  %-16s %s", "Exam date", highlightStyle.Render(examDate)))
		rows = append(rows, fmt.Sprintf("  %-16s %s", "Daily goal",
			highlightStyle.Render(fmt.Sprintf("%d hours", s.snap.Settings.DailyGoal))))
		rows = append(rows, fmt.Sprintf("  %-16s %s", "Theme", highlightStyle.Render(s.snap.Settings.Theme)))
		if s.snap.User != nil {
			rows = append(rows, fmt.Sprintf("  %-16s %s", "Signed in as", highlightStyle.Render(s.snap.User.Username)))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
