package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/careerflow/careerflow/types"
)

// Feedback is an external actor's reply at a checkpoint. Field may be empty
// to target whatever field the suspended checkpoint expects; a non-matching
// Field is a protocol error.
type Feedback struct {
	Field string `json:"field,omitempty"`
	Text  string `json:"text"`
}

// Snapshot is the externally visible view of a run.
type Snapshot struct {
	RunID    string    `json:"run_id"`
	Status   RunStatus `json:"status"`
	Position string    `json:"position"`
	Version  int       `json:"version"`
	State    *State    `json:"state"`
	Payload  any       `json:"payload,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Hooks receives engine lifecycle events. All methods must be non-blocking.
type Hooks interface {
	RunStarted(runID string)
	RunCompleted(runID string)
	RunFailed(runID, node string)
	StepExecuted(node string, d time.Duration, err error)
	CheckpointSaved(runID, status string)
}

// NopHooks discards all events.
type NopHooks struct{}

func (NopHooks) RunStarted(string)                         {}
func (NopHooks) RunCompleted(string)                       {}
func (NopHooks) RunFailed(string, string)                  {}
func (NopHooks) StepExecuted(string, time.Duration, error) {}
func (NopHooks) CheckpointSaved(string, string)            {}

// Engine drives runs through the graph. Execution within a run is strictly
// sequential; a persisted checkpoint follows every step boundary, so a
// suspended or failed run can always continue from exactly where it
// stopped. At most one execution per run id is in flight at a time.
type Engine struct {
	graph  *Graph
	store  Store
	logger *zap.Logger
	hooks  Hooks

	mu    sync.Mutex
	locks map[string]*runLock
}

// runLock is a per-run execution lock with a reference count, so map
// entries can be pruned once no caller holds or awaits them.
type runLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine creates an engine over an immutable graph and a checkpoint
// store.
func NewEngine(graph *Graph, store Store, logger *zap.Logger, hooks Hooks) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Engine{
		graph:  graph,
		store:  store,
		logger: logger.With(zap.String("component", "engine")),
		hooks:  hooks,
		locks:  make(map[string]*runLock),
	}
}

var tracer = otel.Tracer("careerflow/workflow")

// Start creates a new run from initial (nil means an empty state) and
// executes until the first checkpoint or the terminal node. Starting an id
// that already exists continues that run instead: completed runs error,
// suspended runs return their snapshot unchanged, failed or interrupted
// runs re-attempt from the last checkpoint.
func (e *Engine) Start(ctx context.Context, runID string, initial *State) (*Snapshot, error) {
	unlock, err := e.acquire(runID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cp, err := e.store.LoadLatest(ctx, runID)
	switch {
	case err == nil:
		switch cp.Status {
		case StatusCompleted:
			return nil, types.NewError(types.ErrRunCompleted, "run already completed")
		case StatusSuspended:
			return e.snapshot(cp), nil
		default:
			// Failed or interrupted mid-flight: retry from the last
			// good checkpoint.
			cp.Status = StatusRunning
			cp.LastError = ""
			return e.loop(ctx, cp)
		}
	case errors.Is(err, ErrNoCheckpoint):
		// New run.
	default:
		return nil, err
	}

	if initial == nil {
		initial = &State{}
	}
	cp = &Checkpoint{
		RunID:    runID,
		Version:  0,
		Position: e.graph.Entry(),
		Status:   StatusRunning,
		State:    initial.Clone(),
	}
	if err := e.save(ctx, cp); err != nil {
		return nil, err
	}

	e.logger.Info("run started", zap.String("run_id", runID))
	e.hooks.RunStarted(runID)

	return e.loop(ctx, cp)
}

// Resume merges feedback into a suspended run, evaluates the checkpoint's
// router, and continues execution until the next checkpoint or the
// terminal node. Resuming a failed run with empty feedback re-attempts the
// failed step.
func (e *Engine) Resume(ctx context.Context, runID string, fb Feedback) (*Snapshot, error) {
	unlock, err := e.acquire(runID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cp, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrNoCheckpoint) {
			return nil, types.NewError(types.ErrRunNotFound, "unknown run id")
		}
		return nil, err
	}

	switch cp.Status {
	case StatusCompleted:
		return nil, types.NewError(types.ErrRunCompleted, "run already completed")
	case StatusSuspended:
		// Fall through to router evaluation below.
	default:
		// A failed or interrupted run is retried from its last
		// checkpoint; there is no suspended checkpoint to feed back into.
		if fb.Text != "" || fb.Field != "" {
			return nil, types.NewError(types.ErrRunNotSuspended, "run is not awaiting feedback")
		}
		cp.Status = StatusRunning
		cp.LastError = ""
		return e.loop(ctx, cp)
	}

	node := e.graph.Node(cp.Position)
	if node == nil || node.Kind != NodeCheckpoint {
		return nil, types.NewError(types.ErrInternalError, "suspended run not positioned at a checkpoint")
	}
	if fb.Field != "" && fb.Field != node.FeedbackField {
		return nil, types.NewError(types.ErrUnknownFeedback, "feedback field does not match the suspended checkpoint")
	}

	// Absent feedback is a valid approval, so the field is always written.
	node.ApplyFeedback(cp.State, fb.Text)

	next := node.Route(cp.State)
	e.logger.Info("checkpoint routed",
		zap.String("run_id", runID),
		zap.String("checkpoint", node.Name),
		zap.String("next", next),
	)

	cp.Position = next
	cp.Status = StatusRunning
	if err := e.save(ctx, cp); err != nil {
		return nil, err
	}

	return e.loop(ctx, cp)
}

// Approves reports whether feedback would route the suspended run past its
// checkpoint rather than back for another revision, without advancing the
// run. Runs that are not suspended, and feedback addressed to the wrong
// field, report false; Resume remains the authority on those errors.
func (e *Engine) Approves(ctx context.Context, runID string, fb Feedback) (bool, error) {
	cp, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrNoCheckpoint) {
			return false, types.NewError(types.ErrRunNotFound, "unknown run id")
		}
		return false, err
	}
	if cp.Status != StatusSuspended {
		return false, nil
	}

	node := e.graph.Node(cp.Position)
	if node == nil || node.Kind != NodeCheckpoint {
		return false, nil
	}
	if fb.Field != "" && fb.Field != node.FeedbackField {
		return false, nil
	}

	scratch := cp.State.Clone()
	if scratch == nil {
		scratch = &State{}
	}
	node.ApplyFeedback(scratch, fb.Text)
	return node.Route(scratch) == node.Forward(), nil
}

// Inspect returns the run's current snapshot without advancing execution.
func (e *Engine) Inspect(ctx context.Context, runID string) (*Snapshot, error) {
	cp, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrNoCheckpoint) {
			return nil, types.NewError(types.ErrRunNotFound, "unknown run id")
		}
		return nil, err
	}
	return e.snapshot(cp), nil
}

// History returns every checkpoint version of a run in save order.
func (e *Engine) History(ctx context.Context, runID string) ([]*Checkpoint, error) {
	cps, err := e.store.ListVersions(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(cps) == 0 {
		return nil, types.NewError(types.ErrRunNotFound, "unknown run id")
	}
	return cps, nil
}

// loop executes step nodes from the checkpoint's position until a
// checkpoint node or End, persisting after every step. Step execution is
// atomic: the update merges only when the step succeeds.
func (e *Engine) loop(ctx context.Context, cp *Checkpoint) (*Snapshot, error) {
	for cp.Position != End {
		node := e.graph.Node(cp.Position)
		if node == nil {
			return nil, types.NewError(types.ErrInternalError, "run positioned at undefined node")
		}

		if node.Kind == NodeCheckpoint {
			cp.Status = StatusSuspended
			if err := e.save(ctx, cp); err != nil {
				return nil, err
			}
			e.logger.Info("run suspended",
				zap.String("run_id", cp.RunID),
				zap.String("checkpoint", node.Name),
				zap.Int("version", cp.Version),
			)
			return e.snapshot(cp), nil
		}

		update, err := e.executeStep(ctx, cp, node)
		if err != nil {
			cp.Status = StatusFailed
			cp.LastError = err.Error()
			if saveErr := e.save(ctx, cp); saveErr != nil {
				e.logger.Error("failed to persist failure checkpoint",
					zap.String("run_id", cp.RunID), zap.Error(saveErr))
			}
			e.hooks.RunFailed(cp.RunID, node.Name)
			e.logger.Error("run failed",
				zap.String("run_id", cp.RunID),
				zap.String("node", node.Name),
				zap.Error(err),
			)
			return nil, err
		}

		cp.State.Merge(update)
		cp.Position = node.Next
		if cp.Position == End {
			cp.Status = StatusCompleted
		}
		if err := e.save(ctx, cp); err != nil {
			return nil, err
		}
	}

	e.hooks.RunCompleted(cp.RunID)
	e.logger.Info("run completed", zap.String("run_id", cp.RunID), zap.Int("version", cp.Version))
	return e.snapshot(cp), nil
}

func (e *Engine) executeStep(ctx context.Context, cp *Checkpoint, node *Node) (*Update, error) {
	ctx, span := tracer.Start(ctx, "step."+node.Name)
	span.SetAttributes(
		attribute.String("run.id", cp.RunID),
		attribute.String("node", node.Name),
	)
	defer span.End()

	start := time.Now()
	update, err := node.Step.Execute(ctx, cp.State)
	e.hooks.StepExecuted(node.Name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	e.logger.Debug("step completed",
		zap.String("run_id", cp.RunID),
		zap.String("node", node.Name),
		zap.Duration("duration", time.Since(start)),
	)
	return update, nil
}

func (e *Engine) save(ctx context.Context, cp *Checkpoint) error {
	cp.Version++
	cp.ID = checkpointID(cp.RunID, cp.Version)
	cp.CreatedAt = time.Now()
	if err := e.store.Save(ctx, cp); err != nil {
		return types.NewError(types.ErrInternalError, "persist checkpoint").WithCause(err)
	}
	e.hooks.CheckpointSaved(cp.RunID, string(cp.Status))
	return nil
}

func (e *Engine) snapshot(cp *Checkpoint) *Snapshot {
	snap := &Snapshot{
		RunID:    cp.RunID,
		Status:   cp.Status,
		Position: cp.Position,
		Version:  cp.Version,
		State:    cp.State.Clone(),
		Error:    cp.LastError,
	}
	if cp.Status == StatusSuspended {
		if node := e.graph.Node(cp.Position); node != nil && node.Payload != nil {
			snap.Payload = node.Payload(cp.State)
		}
	}
	if cp.Status == StatusCompleted && cp.State.FinalOutput != nil {
		snap.Payload = cp.State.FinalOutput
	}
	return snap
}

// acquire takes the per-run execution lock without blocking; a held lock
// means a prior Start/Resume for the same run is still in flight. The map
// entry lives only while at least one caller references it.
func (e *Engine) acquire(runID string) (func(), error) {
	e.mu.Lock()
	lock, ok := e.locks[runID]
	if !ok {
		lock = &runLock{}
		e.locks[runID] = lock
	}
	lock.refs++
	e.mu.Unlock()

	if !lock.mu.TryLock() {
		e.release(runID, lock)
		return nil, types.NewError(types.ErrRunBusy, "run already executing")
	}
	return func() {
		lock.mu.Unlock()
		e.release(runID, lock)
	}, nil
}

func (e *Engine) release(runID string, lock *runLock) {
	e.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(e.locks, runID)
	}
	e.mu.Unlock()
}
