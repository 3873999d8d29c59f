package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"examtrack/internal/api"
)

// ToCSV writes the task list to path.
func ToCSV(tasks []api.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"ID", "Title", "Unit", "Topic", "Priority", "Due Date", "Completed", "Notes"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = *t.DueDate
		}
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.Unit,
			t.Topic,
			t.Priority,
			due,
			strconv.FormatBool(t.Completed),
			t.Notes,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	return nil
}
