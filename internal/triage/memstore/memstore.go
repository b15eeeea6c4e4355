// Package memstore provides an in-memory implementation of triage.RunStore.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/triage"
)

// Store holds triage pass records in memory. Suitable for dev/testing and
// for running without a database.
type Store struct {
	mu       sync.RWMutex
	runs     map[string]*triage.Run      // run ID -> run
	outcomes map[string][]triage.Outcome // run ID -> per-incident outcomes
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		runs:     make(map[string]*triage.Run),
		outcomes: make(map[string][]triage.Outcome),
	}
}

// PutRun stores a copy of the run record, replacing any previous version.
func (s *Store) PutRun(_ context.Context, run *triage.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	cp.Outcomes = nil
	s.runs[run.ID] = &cp
	return nil
}

// GetRun retrieves a run by its ID, with outcomes attached. Returns a copy.
func (s *Store) GetRun(_ context.Context, id string) (*triage.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	cp.Outcomes = append([]triage.Outcome(nil), s.outcomes[id]...)
	return &cp, true, nil
}

// ListRuns returns up to limit runs, newest first, without outcomes.
func (s *Store) ListRuns(_ context.Context, limit int) ([]*triage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*triage.Run, 0, len(s.runs))
	for _, r := range s.runs {
		cp := *r
		out = append(out, &cp)
	}
	// ULIDs sort lexicographically by creation time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AppendOutcome records one per-incident outcome for a run.
func (s *Store) AppendOutcome(_ context.Context, runID string, _ int, o *triage.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[runID] = append(s.outcomes[runID], *o)
	return nil
}
