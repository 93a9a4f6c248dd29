package runstore

import (
	"sort"
	"sync"
	"time"

	"github.com/voxbl/friendsync/internal/syncer"
)

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID         string         `json:"id"`
	Status     RunStatus      `json:"status"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Result     *syncer.Result `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Store is an in-memory run history for the HTTP mode.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewStore() *Store {
	return &Store{
		runs: make(map[string]*Run),
	}
}

func (s *Store) Create(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := &Run{
		ID:        id,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	s.runs[id] = run
	return run
}

func (s *Store) Get(id string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// List returns runs sorted by start time descending.
func (s *Store) List() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs
}

func (s *Store) Complete(id string, result *syncer.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Status = StatusCompleted
		run.Result = result
		run.FinishedAt = time.Now()
	}
}

func (s *Store) Fail(id string, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Status = StatusFailed
		run.Error = errMsg
		run.FinishedAt = time.Now()
	}
}
