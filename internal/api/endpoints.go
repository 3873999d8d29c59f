package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var b Bootstrap
	if err := c.do(ctx, http.MethodGet, "/api/bootstrap", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) Progress(ctx context.Context) (*Progress, error) {
	var p Progress
	if err := c.do(ctx, http.MethodGet, "/api/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// --- Auth ---

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userEnvelope struct {
	User *User `json:"user"`
}

// Me returns the logged-in user, or nil when no session exists.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var env userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/login", credentials{username, password}, &env)
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

func (c *Client) Register(ctx context.Context, username, password string) (*User, error) {
	var env userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/register", credentials{username, password}, &env)
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// --- Tasks ---

func (c *Client) CreateTask(ctx context.Context, t NewTask) (*Task, error) {
	var created Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", t, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (*Task, error) {
	var updated Task
	path := fmt.Sprintf("/api/tasks/%d", id)
	if err := c.do(ctx, http.MethodPatch, path, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil)
}

// --- Settings ---

func (c *Client) UpdateSettings(ctx context.Context, s Settings) (*Settings, error) {
	var updated Settings
	if err := c.do(ctx, http.MethodPut, "/api/settings", s, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// --- Syllabus progress ---

func (c *Client) SyllabusProgress(ctx context.Context) (*SyllabusProgress, error) {
	var sp SyllabusProgress
	if err := c.do(ctx, http.MethodGet, "/api/syllabus-progress", nil, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (c *Client) SetSyllabusProgress(ctx context.Context, topicID int64, field string, value bool) error {
	payload := struct {
		TopicID int64  `json:"topic_id"`
		Field   string `json:"field"`
		Value   bool   `json:"value"`
	}{topicID, field, value}
	return c.do(ctx, http.MethodPost, "/api/syllabus-progress", payload, nil)
}

// --- Daily routine ---

type routineEnvelope struct {
	Items []RoutineItem `json:"items"`
}

func (c *Client) DailyRoutine(ctx context.Context) ([]RoutineItem, error) {
	var env routineEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/daily-routine", nil, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

func (c *Client) SetRoutineItem(ctx context.Context, routineID int64, completed bool) error {
	payload := struct {
		RoutineID int64 `json:"routine_id"`
		Completed bool  `json:"completed"`
	}{routineID, completed}
	return c.do(ctx, http.MethodPost, "/api/daily-routine", payload, nil)
}

// --- Daily planner ---

type plannerEnvelope struct {
	Tasks []PlannerItem `json:"tasks"`
}

func (c *Client) PlannerTasks(ctx context.Context) ([]PlannerItem, error) {
	var env plannerEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/daily-planner", nil, &env); err != nil {
		return nil, err
	}
	return env.Tasks, nil
}

func (c *Client) CreatePlannerTask(ctx context.Context, title string) (*PlannerItem, error) {
	payload := struct {
		Title string `json:"title"`
	}{title}
	var created PlannerItem
	if err := c.do(ctx, http.MethodPost, "/api/daily-planner", payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdatePlannerTask(ctx context.Context, id int64, completed bool) (*PlannerItem, error) {
	payload := struct {
		Completed bool `json:"completed"`
	}{completed}
	var updated PlannerItem
	path := fmt.Sprintf("/api/daily-planner/%d", id)
	if err := c.do(ctx, http.MethodPatch, path, payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeletePlannerTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/daily-planner/%d", id), nil, nil)
}

// --- Mock tests ---

type mockTestEnvelope struct {
	Tests []MockTest `json:"tests"`
}

func (c *Client) MockTests(ctx context.Context) ([]MockTest, error) {
	var env mockTestEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/mock-tests", nil, &env); err != nil {
		return nil, err
	}
	return env.Tests, nil
}

func (c *Client) UpdateMockTest(ctx context.Context, number int, patch MockTestPatch) (*MockTest, error) {
	var updated MockTest
	path := fmt.Sprintf("/api/mock-tests/%d", number)
	if err := c.do(ctx, http.MethodPatch, path, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// --- Analytics ---

func (c *Client) AnalyticsSummary(ctx context.Context) (*AnalyticsSummary, error) {
	var a AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/api/analytics-summary", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// --- Study sessions ---

// SubmitStudySession records seconds of tracked study time.
func (c *Client) SubmitStudySession(ctx context.Context, seconds int) error {
	payload := struct {
		DurationSeconds int `json:"duration_seconds"`
	}{seconds}
	return c.do(ctx, http.MethodPost, "/api/study-session", payload, nil)
}
