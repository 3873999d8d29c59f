package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"examtrack/internal/api"
)

type jsonExport struct {
	ExportedAt string         `json:"exported_at"`
	TaskCount  int            `json:"task_count"`
	Tasks      []jsonTask     `json:"tasks"`
	DailyLog   map[string]int `json:"daily_log,omitempty"`
}

type jsonTask struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Unit      string `json:"unit"`
	Topic     string `json:"topic"`
	Priority  string `json:"priority"`
	DueDate   string `json:"due_date,omitempty"`
	Completed bool   `json:"completed"`
	Notes     string `json:"notes,omitempty"`
}

// ToJSON writes the task list plus the local daily study log to path.
func ToJSON(tasks []api.Task, dailyLog map[string]int, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		TaskCount:  len(tasks),
		DailyLog:   dailyLog,
	}

	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = *t.DueDate
		}
		export.Tasks = append(export.Tasks, jsonTask{
			ID:        t.ID,
			Title:     t.Title,
			Unit:      t.Unit,
			Topic:     t.Topic,
			Priority:  t.Priority,
			DueDate:   due,
			Completed: t.Completed,
			Notes:     t.Notes,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
