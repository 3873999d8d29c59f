// Package state holds the in-memory snapshot of everything fetched from the
// server. The snapshot is replaced wholesale on every reload; the client
// never merges or holds provisional local state.
package state

import (
	"context"
	"sort"
	"sync"

	"examtrack/internal/api"
)

// Fetcher is the slice of the remote client a reload needs.
type Fetcher interface {
	Bootstrap(ctx context.Context) (*api.Bootstrap, error)
	Progress(ctx context.Context) (*api.Progress, error)
}

// Snapshot is one complete view of the server-owned domain state.
type Snapshot struct {
	Tasks    []api.Task
	Settings api.Settings
	Syllabus map[string][]string
	User     *api.User
	Progress *api.Progress
}

// Units returns the syllabus unit names in stable (sorted) order.
func (s *Snapshot) Units() []string {
	units := make([]string, 0, len(s.Syllabus))
	for u := range s.Syllabus {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

// Topics returns the ordered topic list for a unit, or nil when the unit has
// no syllabus entry.
func (s *Snapshot) Topics(unit string) []string {
	return s.Syllabus[unit]
}

// Store owns the current snapshot and sequences concurrent reloads.
// Reloads may overlap (each runs in its own command goroutine); the
// generation token guarantees an older reload can never overwrite the
// result of a newer one.
type Store struct {
	fetcher Fetcher

	mu      sync.Mutex
	seq     uint64
	applied uint64
	snap    *Snapshot
}

func New(f Fetcher) *Store {
	return &Store{fetcher: f}
}

// Begin reserves a generation for a reload about to start.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Fetch retrieves the consolidated bootstrap snapshot and the progress
// digest. It does not touch the store; the caller applies the result with
// the generation obtained from Begin.
func (s *Store) Fetch(ctx context.Context) (*Snapshot, error) {
	boot, err := s.fetcher.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.fetcher.Progress(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Tasks:    boot.Tasks,
		Settings: boot.Settings,
		Syllabus: boot.Syllabus,
		User:     boot.User,
		Progress: progress,
	}, nil
}

// Apply installs snap as the current snapshot. It reports false, leaving the
// store untouched, when a newer generation has already been applied.
func (s *Store) Apply(gen uint64, snap *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.applied {
		return false
	}
	s.applied = gen
	s.snap = snap
	return true
}

// Snapshot returns the current snapshot, or nil before the first reload.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}
