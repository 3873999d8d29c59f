package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
)

type testsModel struct {
	client *api.Client
	width  int
	height int

	tests  []api.MockTest
	loaded bool
	cursor int

	formActive bool
	form       *huh.Form
	formScore  *string
	formDate   *string
	editing    int // test number being edited
}

func newTestsModel(client *api.Client) testsModel {
	score, date := "", ""
	return testsModel{client: client, formScore: &score, formDate: &date}
}

func (t *testsModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t testsModel) refresh() tea.Cmd {
	client := t.client
	return func() tea.Msg {
		tests, err := client.MockTests(context.Background())
		if err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		return testsDataMsg{tests: tests}
	}
}

type testsRefreshMsg struct{}

func (t testsModel) update(msg tea.Msg) (testsModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case testsDataMsg:
		t.tests = msg.tests
		t.loaded = true
		if t.cursor >= len(t.tests) {
			t.cursor = max(0, len(t.tests)-1)
		}
		return t, nil

	case testsRefreshMsg:
		return t, t.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.tests)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			return t.showForm()
		}
	}
	return t, nil
}

func (t testsModel) showForm() (testsModel, tea.Cmd) {
	if t.cursor >= len(t.tests) {
		return t, nil
	}
	test := t.tests[t.cursor]
	t.editing = test.Number

	*t.formScore = ""
	if test.Score != nil {
		*t.formScore = strconv.FormatFloat(*test.Score, 'f', -1, 64)
	}
	*t.formDate = today()
	if test.AttemptDate != nil {
		*t.formDate = *test.AttemptDate
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(fmt.Sprintf("Mock test %d score", test.Number)).
				Value(t.formScore).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("score is required")
					}
					if _, err := strconv.ParseFloat(s, 64); err != nil {
						return fmt.Errorf("score must be a number")
					}
					return nil
				}),
			huh.NewInput().Title("Attempt date (YYYY-MM-DD)").Value(t.formDate).
				Validate(validateOptionalDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t testsModel) updateForm(msg tea.Msg) (testsModel, tea.Cmd) {
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

func (t testsModel) submitForm() tea.Cmd {
	score, err := strconv.ParseFloat(strings.TrimSpace(*t.formScore), 64)
	if err != nil {
		return func() tea.Msg {
			return statusMsg{text: "score must be a number", isError: true}
		}
	}

	attempted := true
	patch := api.MockTestPatch{Attempted: &attempted, Score: &score}
	if date := strings.TrimSpace(*t.formDate); date != "" {
		patch.AttemptDate = &date
	}

	number := t.editing
	client := t.client
	return func() tea.Msg {
		if _, err := client.UpdateMockTest(context.Background(), number, patch); err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		return testsRefreshMsg{}
	}
}

func (t testsModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("Record Mock Test")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View()),
		)
	}

	title := titleStyle.Render("Mock Tests")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	switch {
	case !t.loaded:
		rows = append(rows, mutedStyle.Render("Loading mock tests..."))
	case len(t.tests) == 0:
		rows = append(rows, mutedStyle.Render("No mock tests scheduled."))
	default:
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-8s %-10s %-12s %s", "Test", "Status", "Date", "Score")))
		for i, test := range t.tests {
			rows = append(rows, t.renderTestRow(i, test))
		}
		if predicted, ok := predictScore(t.tests); ok {
			rows = append(rows, "")
			rows = append(rows, fmt.Sprintf("  Predicted next score: %s",
				highlightStyle.Render(fmt.Sprintf("%.1f", predicted))))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  e/enter: record attempt"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t testsModel) renderTestRow(i int, test api.MockTest) string {
	cursor := "  "
	style := normalItemStyle
	if i == t.cursor {
		cursor = "> "
		style = selectedItemStyle
	}

	status := mutedStyle.Render("pending")
	date, score := "-", "-"
	if test.Attempted {
		status = successStyle.Render("done")
		if test.AttemptDate != nil {
			date = *test.AttemptDate
		}
		if test.Score != nil {
			score = fmt.Sprintf("%.1f", *test.Score)
		}
	}

	return style.Render(fmt.Sprintf("%s#%-7d", cursor, test.Number)) +
		fmt.Sprintf(" %-18s %-12s %s", status, date, score)
}

// predictScore extrapolates the next mock score with a least-squares line
// over attempted scores in test order. It needs at least two attempts and
// clamps to [0, 200] (the exam's score range).
func predictScore(tests []api.MockTest) (float64, bool) {
	var xs, ys []float64
	for _, t := range tests {
		if t.Attempted && t.Score != nil {
			xs = append(xs, float64(len(xs)))
			ys = append(ys, *t.Score)
		}
	}
	n := float64(len(xs))
	if n < 2 {
		return 0, false
	}

	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return ys[len(ys)-1], true
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	predicted := slope*n + intercept
	if predicted < 0 {
		predicted = 0
	}
	if predicted > 200 {
		predicted = 200
	}
	return predicted, true
}
