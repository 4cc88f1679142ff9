package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/careerflow/careerflow/types"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSuspended RunStatus = "suspended"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Checkpoint is the persisted snapshot of a run after one step boundary.
// Position names the next node to execute; versions grow monotonically per
// run so the latest checkpoint is always the run's truth.
type Checkpoint struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Version   int       `json:"version"`
	Position  string    `json:"position"`
	Status    RunStatus `json:"status"`
	State     *State    `json:"state"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists checkpoints keyed exclusively by run id, so distinct runs
// never share state.
type Store interface {
	Save(ctx context.Context, cp *Checkpoint) error
	LoadLatest(ctx context.Context, runID string) (*Checkpoint, error)
	LoadVersion(ctx context.Context, runID string, version int) (*Checkpoint, error)
	ListVersions(ctx context.Context, runID string) ([]*Checkpoint, error)
	Delete(ctx context.Context, runID string) error
}

// ErrNoCheckpoint is returned by LoadLatest/LoadVersion when the run has no
// persisted checkpoint.
var ErrNoCheckpoint = types.NewError(types.ErrRunNotFound, "no checkpoint for run")

func checkpointID(runID string, version int) string {
	return fmt.Sprintf("ckpt_%s_v%d", runID, version)
}

// MemoryStore is an in-process Store for tests and single-node deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string][]*Checkpoint // run id -> versions in save order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{checkpoints: make(map[string][]*Checkpoint)}
}

func (s *MemoryStore) Save(ctx context.Context, cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *cp
	stored.State = cp.State.Clone()
	s.checkpoints[cp.RunID] = append(s.checkpoints[cp.RunID], &stored)
	return nil
}

func (s *MemoryStore) LoadLatest(ctx context.Context, runID string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.checkpoints[runID]
	if len(versions) == 0 {
		return nil, ErrNoCheckpoint
	}
	latest := versions[0]
	for _, cp := range versions[1:] {
		if cp.Version > latest.Version {
			latest = cp
		}
	}
	return copyCheckpoint(latest), nil
}

func (s *MemoryStore) LoadVersion(ctx context.Context, runID string, version int) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cp := range s.checkpoints[runID] {
		if cp.Version == version {
			return copyCheckpoint(cp), nil
		}
	}
	return nil, ErrNoCheckpoint
}

func (s *MemoryStore) ListVersions(ctx context.Context, runID string) ([]*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.checkpoints[runID]
	out := make([]*Checkpoint, 0, len(versions))
	for _, cp := range versions {
		out = append(out, copyCheckpoint(cp))
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, runID)
	return nil
}

func copyCheckpoint(cp *Checkpoint) *Checkpoint {
	out := *cp
	out.State = cp.State.Clone()
	return &out
}
