package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"examtrack/internal/cache"
	"examtrack/internal/logging"
)

// sessionSubmitter is the slice of the remote client the timer needs.
type sessionSubmitter interface {
	SubmitStudySession(ctx context.Context, seconds int) error
}

// timerModel is a countup stopwatch. Elapsed seconds are persisted to the
// cache on every tick, so a restart resumes exactly where the last tick left
// off. A session reaches the server only on stop, and only when nonzero.
type timerModel struct {
	cache *cache.Cache
	api   sessionSubmitter

	running bool
	elapsed int // seconds
}

// newTimerModel restores the persisted elapsed value before first render.
func newTimerModel(c *cache.Cache, api sessionSubmitter) timerModel {
	elapsed, err := c.TimerSeconds()
	if err != nil {
		logging.Logger.Warn("restore timer", "err", err)
	}
	return timerModel{cache: c, api: api, elapsed: elapsed}
}

// start begins counting. Calling it while running is a no-op; ticking is
// driven by the app's single tick loop, so a double start can never double
// the rate.
func (t *timerModel) start() {
	t.running = true
}

// pause stops counting but keeps the accumulated value; start resumes it.
func (t *timerModel) pause() {
	t.running = false
}

func (t *timerModel) toggle() {
	t.running = !t.running
}

// tick advances the timer by one second and persists the new value, keeping
// the display and the cache in lockstep.
func (t *timerModel) tick() {
	if !t.running {
		return
	}
	t.elapsed++
	if err := t.cache.SetTimerSeconds(t.elapsed); err != nil {
		logging.Logger.Warn("persist timer", "err", err)
	}
}

// stop commits the accumulated time as one study session and zeroes both the
// in-memory and persisted value. Stopping at zero performs no network call.
func (t *timerModel) stop() tea.Cmd {
	t.running = false
	secs := t.elapsed
	if secs == 0 {
		return nil
	}
	t.elapsed = 0
	if err := t.cache.SetTimerSeconds(0); err != nil {
		logging.Logger.Warn("clear timer", "err", err)
	}

	api := t.api
	return func() tea.Msg {
		err := api.SubmitStudySession(context.Background(), secs)
		return sessionCommitMsg{seconds: secs, err: err}
	}
}

// requeue puts a failed commit's seconds back into the timer and cache so
// the session is retried on the next stop instead of silently lost.
func (t *timerModel) requeue(secs int) {
	t.elapsed += secs
	if err := t.cache.SetTimerSeconds(t.elapsed); err != nil {
		logging.Logger.Warn("requeue timer", "err", err)
	}
}

func (t timerModel) isRunning() bool { return t.running }

func (t timerModel) elapsedSeconds() int { return t.elapsed }
