package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

// ============================================================
// Auth handling
// ============================================================

func TestUnauthorizedReturnsErrAuthRequired(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
	}))
	c.OnAuthRequired(func() { calls++ })

	_, err := c.Bootstrap(context.Background())
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("auth handler called %d times, want 1", calls)
	}

	// A 401 must never surface as a RequestError.
	var re *RequestError
	if errors.As(err, &re) {
		t.Fatal("401 should not produce a RequestError")
	}
}

func TestUnauthorizedWithoutHandler(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Progress(context.Background())
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

// ============================================================
// Error responses
// ============================================================

func TestServerErrorMessagePropagated(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Title is required"})
	}))

	_, err := c.CreateTask(context.Background(), NewTask{})
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if re.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", re.Status)
	}
	if re.Message != "Title is required" {
		t.Fatalf("message = %q, want server error text", re.Message)
	}
}

func TestGenericErrorMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>oops</html>"))
	}))

	_, err := c.Progress(context.Background())
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if re.Message != "request failed: 500" {
		t.Fatalf("message = %q, want generic fallback", re.Message)
	}
}

func TestIsNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.DailyRoutine(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound, got %v", err)
	}
	if IsNotFound(errors.New("other")) {
		t.Fatal("IsNotFound should be false for unrelated errors")
	}
}

// ============================================================
// Tolerant 2xx decoding
// ============================================================

func TestEmptyBodyIsSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.DeleteTask(context.Background(), 1); err != nil {
		t.Fatalf("empty 2xx should succeed, got %v", err)
	}
}

func TestMalformedBodyIsSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))

	p, err := c.Progress(context.Background())
	if err != nil {
		t.Fatalf("malformed 2xx should succeed, got %v", err)
	}
	if p == nil || p.Total != 0 {
		t.Fatal("out value should be left at zero")
	}
}

// ============================================================
// Request shapes
// ============================================================

func TestCreateTaskRequest(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(Task{ID: 7, Title: "Read unit 3"})
	}))

	created, err := c.CreateTask(context.Background(), NewTask{Title: "Read unit 3", Unit: "Physics", Priority: "High"})
	if err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/tasks" {
		t.Fatalf("got %s %s, want POST /api/tasks", gotMethod, gotPath)
	}
	if gotBody["title"] != "Read unit 3" || gotBody["priority"] != "High" {
		t.Fatalf("unexpected payload: %v", gotBody)
	}
	if _, present := gotBody["due_date"]; present {
		t.Fatal("empty due_date should be omitted")
	}
	if created.ID != 7 {
		t.Fatalf("created ID = %d, want 7", created.ID)
	}
}

func TestUpdateTaskSendsOnlySetFields(t *testing.T) {
	var gotBody map[string]any
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(Task{ID: 12, Completed: true})
	}))

	done := true
	_, err := c.UpdateTask(context.Background(), 12, TaskPatch{Completed: &done})
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/tasks/12" {
		t.Fatalf("path = %q, want /api/tasks/12", gotPath)
	}
	if len(gotBody) != 1 || gotBody["completed"] != true {
		t.Fatalf("patch should carry only completed, got %v", gotBody)
	}
}

func TestDeleteTaskRequest(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.DeleteTask(context.Background(), 42); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/tasks/42" {
		t.Fatalf("got %s %s, want DELETE /api/tasks/42", gotMethod, gotPath)
	}
}

func TestSubmitStudySessionPayload(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))

	if err := c.SubmitStudySession(context.Background(), 1500); err != nil {
		t.Fatal(err)
	}
	if gotBody["duration_seconds"] != float64(1500) {
		t.Fatalf("duration_seconds = %v, want 1500", gotBody["duration_seconds"])
	}
}

func TestLoginRoundTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" || r.Method != http.MethodPost {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var creds map[string]string
		json.NewDecoder(r.Body).Decode(&creds)
		if creds["username"] != "asha" || creds["password"] != "secret" {
			t.Errorf("unexpected credentials: %v", creds)
		}
		json.NewEncoder(w).Encode(map[string]any{"user": map[string]any{"id": 3, "username": "asha"}})
	}))

	user, err := c.Login(context.Background(), "asha", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if user == nil || user.Username != "asha" || user.ID != 3 {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestMeWithoutSession(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/me" || r.Method != http.MethodGet {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"user": nil})
	}))

	user, err := c.Me(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Fatalf("expected nil user without a session, got %+v", user)
	}
}

func TestMeWithSession(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"user": map[string]any{"id": 9, "username": "asha"}})
	}))

	user, err := c.Me(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user == nil || user.ID != 9 || user.Username != "asha" {
		t.Fatalf("user = %+v", user)
	}
}

func TestLogoutRequest(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/logout" {
		t.Fatalf("got %s %s, want POST /api/logout", gotMethod, gotPath)
	}
}

func TestBootstrapDecoding(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tasks":    []map[string]any{{"id": 1, "title": "Revise"}},
			"settings": map[string]any{"daily_goal": 4, "theme": "dark"},
			"syllabus": map[string][]string{"Physics": {"Kinematics", "Optics"}},
			"user":     map[string]any{"id": 1, "username": "asha"},
		})
	}))

	b, err := c.Bootstrap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Tasks) != 1 || b.Tasks[0].Title != "Revise" {
		t.Fatalf("tasks = %+v", b.Tasks)
	}
	if b.Settings.DailyGoal != 4 || b.Settings.Theme != "dark" {
		t.Fatalf("settings = %+v", b.Settings)
	}
	if len(b.Syllabus["Physics"]) != 2 {
		t.Fatalf("syllabus = %+v", b.Syllabus)
	}
	if b.User == nil || b.User.Username != "asha" {
		t.Fatalf("user = %+v", b.User)
	}
}

func TestTrailingSlashTrimmed(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Progress(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/progress" {
		t.Fatalf("path = %q, want /api/progress", gotPath)
	}
}
