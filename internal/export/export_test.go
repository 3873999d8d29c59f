package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"examtrack/internal/api"
)

func sampleTasks() []api.Task {
	due := "2026-09-15"
	return []api.Task{
		{
			ID:       1,
			Title:    "Revise ray optics",
			Unit:     "Physics",
			Topic:    "Optics",
			Priority: "High",
			DueDate:  &due,
			Notes:    "focus on mirrors",
		},
		{
			ID:        2,
			Title:     "Mole concept PYQs",
			Unit:      "Chemistry",
			Topic:     "Stoichiometry",
			Priority:  "Medium",
			Completed: true,
		},
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")

	if err := ToCSV(sampleTasks(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 2 data rows
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}

	header := records[0]
	expectedHeader := []string{"ID", "Title", "Unit", "Topic", "Priority", "Due Date", "Completed", "Notes"}
	for i, h := range expectedHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	row := records[1]
	if row[0] != "1" || row[1] != "Revise ray optics" || row[5] != "2026-09-15" {
		t.Fatalf("first row = %v", row)
	}
	if row[6] != "false" {
		t.Fatalf("completed = %q, want false", row[6])
	}

	// Task without due date gets an empty cell.
	if records[2][5] != "" {
		t.Fatalf("missing due date should be empty, got %q", records[2][5])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	records, _ := csv.NewReader(f).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	tasks := []api.Task{
		{ID: 1, Title: `revise "hard" topics, twice`, Notes: "line\nbreak"},
	}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(tasks, path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("CSV should stay valid with special chars: %v", err)
	}
	if records[1][1] != `revise "hard" topics, twice` {
		t.Fatalf("title mangled: %q", records[1][1])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	log := map[string]int{"2026-08-29": 90}

	if err := ToJSON(sampleTasks(), log, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.TaskCount != 2 {
		t.Fatalf("task_count = %d, want 2", result.TaskCount)
	}
	if len(result.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(result.Tasks))
	}
	if result.Tasks[0].DueDate != "2026-09-15" {
		t.Fatalf("due_date = %q", result.Tasks[0].DueDate)
	}
	if result.DailyLog["2026-08-29"] != 90 {
		t.Fatalf("daily_log = %v", result.DailyLog)
	}

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToJSON(nil, nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if result.TaskCount != 0 {
		t.Fatalf("task_count = %d, want 0", result.TaskCount)
	}
	if result.Tasks != nil {
		t.Fatal("tasks should be null for empty export")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToJSON(nil, nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") || !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be pretty-printed")
	}
}
