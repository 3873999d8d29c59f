package tui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"examtrack/internal/api"
	"examtrack/internal/cache"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.NewMemory()
	if err != nil {
		t.Fatalf("new memory cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

type stubSubmitter struct {
	calls   int
	seconds int
	err     error
}

func (s *stubSubmitter) SubmitStudySession(ctx context.Context, seconds int) error {
	s.calls++
	s.seconds = seconds
	return s.err
}

// ============================================================
// Routing
// ============================================================

func TestRouteFromName(t *testing.T) {
	if got := routeFromName("tasks"); got != viewTasks {
		t.Fatalf("tasks -> %d", got)
	}
	if got := routeFromName("analytics"); got != viewAnalytics {
		t.Fatalf("analytics -> %d", got)
	}
	if got := routeFromName("no-such-panel"); got != viewDashboard {
		t.Fatal("unknown route should fall back to dashboard")
	}
	if got := routeFromName(""); got != viewDashboard {
		t.Fatal("empty route should fall back to dashboard")
	}
}

func TestRouteNamesRoundTrip(t *testing.T) {
	for v := viewState(0); v < viewCount; v++ {
		if got := routeFromName(v.route()); got != v {
			t.Fatalf("route %q resolved to %d, want %d", v.route(), got, v)
		}
	}
}

// ============================================================
// Task filtering
// ============================================================

func sampleTasks() []api.Task {
	return []api.Task{
		{ID: 1, Title: "Revise optics", Unit: "Physics", Topic: "Optics"},
		{ID: 2, Title: "Mole concept PYQs", Unit: "Chemistry", Topic: "Stoichiometry", Completed: true},
		{ID: 3, Title: "Integration drill", Unit: "Maths", Topic: "Calculus"},
	}
}

func TestTaskMatches(t *testing.T) {
	task := api.Task{Title: "Revise Optics", Unit: "Physics", Topic: "Ray Optics"}

	if !taskMatches(task, "") {
		t.Fatal("empty query should match everything")
	}
	if !taskMatches(task, "optics") {
		t.Fatal("case-insensitive title match failed")
	}
	if !taskMatches(task, "PHYS") {
		t.Fatal("unit match failed")
	}
	if !taskMatches(task, "ray") {
		t.Fatal("topic match failed")
	}
	if taskMatches(task, "chemistry") {
		t.Fatal("non-matching query should not match")
	}
}

func TestFilterTasksQuery(t *testing.T) {
	got := filterTasks(sampleTasks(), "physics")
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("filtered = %+v", got)
	}
}

func TestFilterTasksCompletedLast(t *testing.T) {
	got := filterTasks(sampleTasks(), "")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Pending tasks keep fetch order, completed sink to the bottom.
	if got[0].ID != 1 || got[1].ID != 3 || got[2].ID != 2 {
		t.Fatalf("order = %d,%d,%d", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestFilterTasksStable(t *testing.T) {
	tasks := []api.Task{
		{ID: 1, Completed: true},
		{ID: 2},
		{ID: 3, Completed: true},
		{ID: 4},
	}
	got := filterTasks(tasks, "")
	if got[0].ID != 2 || got[1].ID != 4 || got[2].ID != 1 || got[3].ID != 3 {
		t.Fatalf("order = %+v", got)
	}
}

// ============================================================
// Timer model
// ============================================================

func TestTimerStartIsIdempotent(t *testing.T) {
	c := newTestCache(t)
	tm := newTimerModel(c, &stubSubmitter{})

	tm.start()
	tm.start() // double start must not change the rate
	for i := 0; i < 3; i++ {
		tm.tick()
	}
	if tm.elapsedSeconds() != 3 {
		t.Fatalf("elapsed = %d, want 3", tm.elapsedSeconds())
	}
}

func TestTimerTickPersists(t *testing.T) {
	c := newTestCache(t)
	tm := newTimerModel(c, &stubSubmitter{})

	tm.start()
	tm.tick()
	tm.tick()

	secs, err := c.TimerSeconds()
	if err != nil {
		t.Fatal(err)
	}
	if secs != tm.elapsedSeconds() || secs != 2 {
		t.Fatalf("cache = %d, elapsed = %d, want both 2", secs, tm.elapsedSeconds())
	}
}

func TestTimerPausedDoesNotTick(t *testing.T) {
	c := newTestCache(t)
	tm := newTimerModel(c, &stubSubmitter{})

	tm.start()
	tm.tick()
	tm.pause()
	tm.tick()
	tm.tick()
	if tm.elapsedSeconds() != 1 {
		t.Fatalf("elapsed = %d, want 1 after pause", tm.elapsedSeconds())
	}

	tm.start()
	tm.tick()
	if tm.elapsedSeconds() != 2 {
		t.Fatalf("elapsed = %d, want 2 after resume", tm.elapsedSeconds())
	}
}

func TestTimerRestoresFromCache(t *testing.T) {
	c := newTestCache(t)
	if err := c.SetTimerSeconds(125); err != nil {
		t.Fatal(err)
	}

	tm := newTimerModel(c, &stubSubmitter{})
	if tm.elapsedSeconds() != 125 {
		t.Fatalf("restored = %d, want 125", tm.elapsedSeconds())
	}
	if tm.isRunning() {
		t.Fatal("restored timer should not be running")
	}
}

func TestTimerStopAtZeroDoesNotSubmit(t *testing.T) {
	c := newTestCache(t)
	sub := &stubSubmitter{}
	tm := newTimerModel(c, sub)

	if cmd := tm.stop(); cmd != nil {
		t.Fatal("stop at zero should return no command")
	}
	if sub.calls != 0 {
		t.Fatalf("submit called %d times, want 0", sub.calls)
	}
}

func TestTimerStopCommitsAndZeroes(t *testing.T) {
	c := newTestCache(t)
	sub := &stubSubmitter{}
	tm := newTimerModel(c, sub)

	tm.start()
	for i := 0; i < 5; i++ {
		tm.tick()
	}

	cmd := tm.stop()
	if cmd == nil {
		t.Fatal("stop with elapsed time should return a command")
	}
	if tm.elapsedSeconds() != 0 {
		t.Fatal("elapsed should be zeroed before the commit runs")
	}
	if secs, _ := c.TimerSeconds(); secs != 0 {
		t.Fatalf("cache = %d, want 0", secs)
	}

	msg := cmd()
	commit, ok := msg.(sessionCommitMsg)
	if !ok {
		t.Fatalf("unexpected message %T", msg)
	}
	if commit.seconds != 5 || commit.err != nil {
		t.Fatalf("commit = %+v", commit)
	}
	if sub.calls != 1 || sub.seconds != 5 {
		t.Fatalf("submit calls = %d seconds = %d", sub.calls, sub.seconds)
	}
}

func TestTimerRequeueAfterFailedCommit(t *testing.T) {
	c := newTestCache(t)
	sub := &stubSubmitter{err: errors.New("server down")}
	tm := newTimerModel(c, sub)

	tm.start()
	for i := 0; i < 4; i++ {
		tm.tick()
	}

	cmd := tm.stop()
	msg := cmd().(sessionCommitMsg)
	if msg.err == nil {
		t.Fatal("expected commit error")
	}

	tm.requeue(msg.seconds)
	if tm.elapsedSeconds() != 4 {
		t.Fatalf("requeued elapsed = %d, want 4", tm.elapsedSeconds())
	}
	if secs, _ := c.TimerSeconds(); secs != 4 {
		t.Fatalf("requeued cache = %d, want 4", secs)
	}
}

func TestSpaceDoesNotStartIdleTimer(t *testing.T) {
	c := newTestCache(t)
	d := newDashboardModel(&stubSubmitter{}, c)

	space := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}
	d, _ = d.update(space)
	if d.timer.isRunning() {
		t.Fatal("space on an idle timer must not start it")
	}

	d, _ = d.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if !d.timer.isRunning() {
		t.Fatal("s should start the timer")
	}

	d, _ = d.update(space)
	if d.timer.isRunning() {
		t.Fatal("space should pause a running timer")
	}

	d, _ = d.update(space)
	if !d.timer.isRunning() {
		t.Fatal("space should resume a paused timer")
	}
}

// ============================================================
// Routine fallback
// ============================================================

func routineClient(t *testing.T, status int) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestRoutineRefreshAuthRequired(t *testing.T) {
	r := newRoutineModel(routineClient(t, http.StatusUnauthorized), newTestCache(t))

	msg := r.refresh()()
	rm, ok := msg.(reloadedMsg)
	if !ok {
		t.Fatalf("401 should yield reloadedMsg, got %T", msg)
	}
	if !errors.Is(rm.err, api.ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", rm.err)
	}
}

func TestRoutineRefreshFallsBackOn404(t *testing.T) {
	r := newRoutineModel(routineClient(t, http.StatusNotFound), newTestCache(t))

	msg := r.refresh()()
	local, ok := msg.(routineLocalMsg)
	if !ok {
		t.Fatalf("404 should yield the local template, got %T", msg)
	}
	if len(local.items) != len(routineTemplate) {
		t.Fatalf("items = %d, want %d", len(local.items), len(routineTemplate))
	}
}

func TestLocalRoutineMinutesFeedDailyLog(t *testing.T) {
	c := newTestCache(t)
	r := newRoutineModel(nil, c)
	r, _ = r.update(routineLocalMsg{items: loadLocalRoutine(c)})

	r.cursor = 0
	r, _ = r.toggleSelected()
	r.cursor = 2
	r, _ = r.toggleSelected()

	today := time.Now().Format(cache.DateFormat)
	log, err := c.DailyLog()
	if err != nil {
		t.Fatal(err)
	}
	want := routineTemplate[0].Minutes + routineTemplate[2].Minutes
	if log[today] != want {
		t.Fatalf("day minutes = %d, want %d", log[today], want)
	}
	if got := cache.Streak(log, time.Now()); got != 1 {
		t.Fatalf("streak = %d, want 1", got)
	}

	// Untoggling one item shrinks the day's total.
	r.cursor = 0
	r, _ = r.toggleSelected()
	log, _ = c.DailyLog()
	if log[today] != routineTemplate[2].Minutes {
		t.Fatalf("day minutes after untoggle = %d, want %d", log[today], routineTemplate[2].Minutes)
	}

	// Completion survives a reload from the cache.
	restored := loadLocalRoutine(c)
	if restored[0].Completed || !restored[2].Completed {
		t.Fatalf("restored completion = %+v", restored)
	}
}

// ============================================================
// Countdown
// ============================================================

func TestCountdownTo(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	cd, err := countdownTo("2026-09-01", now)
	if err != nil {
		t.Fatal(err)
	}
	// 2.5 days out: 2 days, 12 hours, 0 minutes.
	if cd.Days != 2 || cd.Hours != 12 || cd.Minutes != 0 {
		t.Fatalf("countdown = %+v", cd)
	}
}

func TestCountdownPassed(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cd, err := countdownTo("2026-08-01", now)
	if err != nil {
		t.Fatal(err)
	}
	if cd.Days != -1 {
		t.Fatalf("passed exam should report Days=-1, got %+v", cd)
	}
}

func TestCountdownBadDate(t *testing.T) {
	if _, err := countdownTo("soon", time.Now()); err == nil {
		t.Fatal("expected parse error")
	}
}

// ============================================================
// Score prediction
// ============================================================

func score(v float64) *float64 { return &v }

func TestPredictScoreNeedsTwoAttempts(t *testing.T) {
	if _, ok := predictScore(nil); ok {
		t.Fatal("no attempts should not predict")
	}
	tests := []api.MockTest{{Number: 1, Attempted: true, Score: score(80)}}
	if _, ok := predictScore(tests); ok {
		t.Fatal("one attempt should not predict")
	}
}

func TestPredictScoreRisingTrend(t *testing.T) {
	tests := []api.MockTest{
		{Number: 1, Attempted: true, Score: score(80)},
		{Number: 2, Attempted: true, Score: score(90)},
		{Number: 3, Attempted: true, Score: score(100)},
	}
	got, ok := predictScore(tests)
	if !ok {
		t.Fatal("expected a prediction")
	}
	// Perfect +10 trend extrapolates to 110 for the next attempt.
	if got < 109.9 || got > 110.1 {
		t.Fatalf("predicted = %f, want ~110", got)
	}
}

func TestPredictScoreIgnoresUnattempted(t *testing.T) {
	tests := []api.MockTest{
		{Number: 1, Attempted: true, Score: score(70)},
		{Number: 2},
		{Number: 3, Attempted: true, Score: score(70)},
	}
	got, ok := predictScore(tests)
	if !ok {
		t.Fatal("two attempts should predict")
	}
	if got < 69.9 || got > 70.1 {
		t.Fatalf("flat trend should predict ~70, got %f", got)
	}
}

func TestPredictScoreClamped(t *testing.T) {
	tests := []api.MockTest{
		{Number: 1, Attempted: true, Score: score(40)},
		{Number: 2, Attempted: true, Score: score(10)},
	}
	got, ok := predictScore(tests)
	if !ok {
		t.Fatal("expected a prediction")
	}
	if got < 0 {
		t.Fatalf("prediction should clamp at 0, got %f", got)
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "00:00:00"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.secs); got != tt.want {
			t.Errorf("formatSeconds(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestValidateOptionalDate(t *testing.T) {
	if err := validateOptionalDate(""); err != nil {
		t.Fatal("empty date is valid")
	}
	if err := validateOptionalDate("2026-09-01"); err != nil {
		t.Fatal("ISO date is valid")
	}
	if err := validateOptionalDate("01/09/2026"); err == nil {
		t.Fatal("non-ISO date should be rejected")
	}
}
