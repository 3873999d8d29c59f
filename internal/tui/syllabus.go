package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"examtrack/internal/api"
)

// syllabusFields are the server-side progress field names, in the order of
// the column toggles (t, p, r, R).
var syllabusFields = []struct {
	name  string
	label string
	key   string
}{
	{"theory_completed", "Theory", "t"},
	{"pyq_30_done", "PYQ", "p"},
	{"revision_1_done", "Rev1", "r"},
	{"revision_2_done", "Rev2", "R"},
}

type syllabusModel struct {
	client *api.Client
	width  int
	height int

	progress *api.SyllabusProgress
	cursor   int
}

func newSyllabusModel(client *api.Client) syllabusModel {
	return syllabusModel{client: client}
}

func (s *syllabusModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s syllabusModel) refresh() tea.Cmd {
	client := s.client
	return func() tea.Msg {
		progress, err := client.SyllabusProgress(context.Background())
		if err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		return syllabusDataMsg{progress: progress}
	}
}

type syllabusRefreshMsg struct{}

func (s syllabusModel) update(msg tea.Msg) (syllabusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case syllabusDataMsg:
		s.progress = msg.progress
		if s.progress != nil && s.cursor >= len(s.progress.Topics) {
			s.cursor = max(0, len(s.progress.Topics)-1)
		}
		return s, nil

	case syllabusRefreshMsg:
		return s, s.refresh()

	case tea.KeyMsg:
		if s.progress == nil {
			return s, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.progress.Topics)-1 {
				s.cursor++
			}
		default:
			for _, f := range syllabusFields {
				if msg.String() == f.key {
					return s, s.toggleField(f.name)
				}
			}
		}
	}
	return s, nil
}

func (s syllabusModel) toggleField(field string) tea.Cmd {
	if s.cursor >= len(s.progress.Topics) {
		return nil
	}
	topic := s.progress.Topics[s.cursor]
	value := !topicFieldValue(topic, field)
	client := s.client
	return func() tea.Msg {
		if err := client.SetSyllabusProgress(context.Background(), topic.ID, field, value); err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return reloadedMsg{err: err}
			}
			return statusMsg{text: err.Error(), isError: true}
		}
		return syllabusRefreshMsg{}
	}
}

func topicFieldValue(t api.SyllabusTopic, field string) bool {
	switch field {
	case "theory_completed":
		return t.TheoryCompleted
	case "pyq_30_done":
		return t.PYQDone
	case "revision_1_done":
		return t.Revision1Done
	case "revision_2_done":
		return t.Revision2Done
	}
	return false
}

func (s syllabusModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Syllabus Progress")

	if s.progress == nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("Loading syllabus...")),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, fmt.Sprintf("  Theory %s  PYQ %s  Rev1 %s  Rev2 %s",
		highlightStyle.Render(fmt.Sprintf("%.0f%%", s.progress.TheoryPercent)),
		highlightStyle.Render(fmt.Sprintf("%.0f%%", s.progress.PYQPercent)),
		highlightStyle.Render(fmt.Sprintf("%.0f%%", s.progress.Revision1Percent)),
		highlightStyle.Render(fmt.Sprintf("%.0f%%", s.progress.Revision2Percent)),
	))
	rows = append(rows, "")

	lastSubject := ""
	for i, topic := range s.progress.Topics {
		if topic.Subject != lastSubject {
			lastSubject = topic.Subject
			rows = append(rows, titleStyle.Render("  "+topic.Subject))
		}
		rows = append(rows, s.renderTopicRow(i, topic))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  t: theory  p: pyq  r: rev1  R: rev2"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (s syllabusModel) renderTopicRow(i int, topic api.SyllabusTopic) string {
	cursor := "  "
	style := normalItemStyle
	if i == s.cursor {
		cursor = "> "
		style = selectedItemStyle
	}

	mark := func(done bool) string {
		if done {
			return successStyle.Render("✓")
		}
		return mutedStyle.Render("·")
	}

	return style.Render(fmt.Sprintf("%s  %-44s", cursor, topic.TopicName)) +
		fmt.Sprintf(" %s %s %s %s",
			mark(topic.TheoryCompleted), mark(topic.PYQDone),
			mark(topic.Revision1Done), mark(topic.Revision2Done))
}
