package api

// Task is one study task owned by the server.
type Task struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Unit      string  `json:"unit"`
	Topic     string  `json:"topic"`
	Priority  string  `json:"priority"`
	DueDate   *string `json:"due_date"`
	Notes     string  `json:"notes"`
	Completed bool    `json:"completed"`
	CreatedAt string  `json:"created_at"`
}

// NewTask is the payload for creating a task. Optional fields are omitted
// when empty so the server applies its defaults.
type NewTask struct {
	Title    string  `json:"title"`
	Unit     string  `json:"unit"`
	Topic    string  `json:"topic"`
	Priority string  `json:"priority,omitempty"`
	DueDate  *string `json:"due_date,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

// TaskPatch carries partial task updates. Nil pointers are left untouched
// server-side; a non-nil pointer to the zero value is still sent.
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Unit      *string `json:"unit,omitempty"`
	Topic     *string `json:"topic,omitempty"`
	Priority  *string `json:"priority,omitempty"`
	DueDate   *string `json:"due_date,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

type Settings struct {
	ExamDate  *string `json:"exam_date"`
	DailyGoal int     `json:"daily_goal"`
	Theme     string  `json:"theme"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Bootstrap is the consolidated initial snapshot.
type Bootstrap struct {
	Tasks    []Task              `json:"tasks"`
	Settings Settings            `json:"settings"`
	Syllabus map[string][]string `json:"syllabus"`
	User     *User               `json:"user"`
}

type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

type StudyTime struct {
	TodayHours float64 `json:"today_hours"`
	WeekHours  float64 `json:"week_hours"`
}

type UnitBreakdown struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Progress is the server-computed digest; the client treats it as opaque.
type Progress struct {
	Total               int                      `json:"total"`
	Completed           int                      `json:"completed"`
	Pending             int                      `json:"pending"`
	CompletionRate      float64                  `json:"completion_rate"`
	TotalTrackedMinutes int                      `json:"total_tracked_minutes"`
	StudyStreak         int                      `json:"study_streak"`
	Countdown           *Countdown               `json:"countdown"`
	TargetExam          string                   `json:"target_exam"`
	StudyTime           StudyTime                `json:"study_time"`
	UnitBreakdown       map[string]UnitBreakdown `json:"unit_breakdown"`
}

// RoutineItem is one entry in the server-backed daily checklist.
type RoutineItem struct {
	ID        int64  `json:"id"`
	TimeLabel string `json:"time_label"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// PlannerItem is one ad-hoc task on today's planner.
type PlannerItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

type MockTest struct {
	Number      int      `json:"test_number"`
	Attempted   bool     `json:"attempted"`
	AttemptDate *string  `json:"attempt_date"`
	Score       *float64 `json:"score"`
}

type MockTestPatch struct {
	Attempted   *bool    `json:"attempted,omitempty"`
	AttemptDate *string  `json:"attempt_date,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// SyllabusTopic is one syllabus topic with the caller's per-stage progress.
type SyllabusTopic struct {
	ID              int64  `json:"id"`
	Subject         string `json:"subject"`
	TopicName       string `json:"topic_name"`
	TheoryCompleted bool   `json:"theory_completed"`
	PYQDone         bool   `json:"pyq_30_done"`
	Revision1Done   bool   `json:"revision_1_done"`
	Revision2Done   bool   `json:"revision_2_done"`
}

// SyllabusProgress combines the topic list with stage completion percentages.
type SyllabusProgress struct {
	Topics           []SyllabusTopic `json:"topics"`
	TheoryPercent    float64         `json:"theory_percent"`
	PYQPercent       float64         `json:"pyq_percent"`
	Revision1Percent float64         `json:"revision_1_percent"`
	Revision2Percent float64         `json:"revision_2_percent"`
}

type AnalyticsSummary struct {
	TotalStudyHours float64 `json:"total_study_hours"`
	TestsAttempted  int     `json:"tests_attempted"`
	MockAverage     float64 `json:"mock_average"`
	MockBest        float64 `json:"mock_best"`
	TasksPerWeek    float64 `json:"tasks_per_week"`
}
