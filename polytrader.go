package polytrader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/polytrader/polytrader/internal/logging"
	"github.com/polytrader/polytrader/internal/runtime"
	"github.com/polytrader/polytrader/pkg/adapters/memory"
	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/ports"
	"github.com/polytrader/polytrader/pkg/thread"
)

// Version of the polytrader library.
const Version = "0.3.0"

// ErrMissingMarketID is returned when a run is started without a market.
var ErrMissingMarketID = errors.New("market_id is required")

// Engine is the high-level entry point: it owns the thread/run lifecycle and
// mediates interrupts, wrapping the internal executor behind a simplified
// API for consumers (CLI, HTTP server, tests).
type Engine struct {
	checkpointer ports.Checkpointer
	locker       ports.DistributedLocker
	threads      *thread.Manager
	executor     *runtime.Executor
	hooks        domain.LifecycleHooks
	logger       *slog.Logger

	mu           sync.Mutex
	knownThreads map[string]bool
	runs         map[string]*domain.Run
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCheckpointer injects a custom checkpoint store. Defaults to the
// in-memory adapter.
func WithCheckpointer(cp ports.Checkpointer) Option {
	return func(e *Engine) {
		e.checkpointer = cp
	}
}

// WithLocker enables distributed per-thread locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// New initializes an Engine over an ordered pipeline of nodes.
func New(nodes []domain.Node, opts ...Option) (*Engine, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("at least one pipeline node is required")
	}

	e := &Engine{
		logger:       logging.NewNop(),
		knownThreads: make(map[string]bool),
		runs:         make(map[string]*domain.Run),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.checkpointer == nil {
		e.checkpointer = memory.NewCheckpointer()
	}
	threadOpts := []thread.Option{thread.WithLogger(e.logger)}
	if e.locker != nil {
		threadOpts = append(threadOpts, thread.WithLocker(e.locker))
	}
	e.threads = thread.NewManager(threadOpts...)

	e.executor = runtime.NewExecutor(e.checkpointer, nodes,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	)
	return e, nil
}

// RunInputs are the caller-supplied inputs that seed a run's state.
type RunInputs struct {
	MarketID string         `json:"market_id" mapstructure:"market_id"`
	Tokens   []domain.Token `json:"tokens,omitempty" mapstructure:"tokens"`
}

// CreateThread registers a fresh thread and returns its identifier.
func (e *Engine) CreateThread(ctx context.Context) string {
	id := thread.NewThreadID()
	e.mu.Lock()
	e.knownThreads[id] = true
	e.mu.Unlock()
	e.logger.Info("thread created", "thread_id", id)
	return id
}

// StartRun begins a new pipeline run on the thread and streams its events.
// Events are pushed as nodes complete; each send is delivered to the caller
// before the next node begins. Canceling ctx (or abandoning the channel and
// canceling) stops the run, leaving its last checkpoint intact.
func (e *Engine) StartRun(ctx context.Context, threadID string, inputs RunInputs) (<-chan domain.Event, *domain.Run, error) {
	if err := e.checkThread(ctx, threadID); err != nil {
		return nil, nil, err
	}
	if inputs.MarketID == "" {
		return nil, nil, ErrMissingMarketID
	}

	run := e.newRun(threadID)
	state := domain.NewState(inputs.MarketID, inputs.Tokens)
	return e.launch(ctx, run, state, ""), e.snapshot(run.ID), nil
}

// ResolveInterrupt accepts the external decision for an interrupted run,
// merges it into the state as if it were the paused node's output, and
// resumes execution at the checkpointed position (the node after the paused
// one). It fails with domain.ErrNoInterrupt when the run is not interrupted;
// concurrent resolutions on the same run are decided atomically, the loser
// observing ErrNoInterrupt.
func (e *Engine) ResolveInterrupt(ctx context.Context, threadID, runID string, decision map[string]any) (<-chan domain.Event, *domain.Run, error) {
	if decision == nil {
		return nil, nil, fmt.Errorf("decision is required")
	}

	// Claim the interrupt atomically so at most one resolution wins.
	e.mu.Lock()
	run, ok := e.runs[runID]
	if !ok || run.ThreadID != threadID || run.Status != domain.RunInterrupted || run.PendingInterrupt == nil {
		e.mu.Unlock()
		return nil, nil, domain.ErrNoInterrupt
	}
	pausedNode := run.PendingInterrupt.Node
	run.Status = domain.RunRunning
	run.PendingInterrupt = nil
	e.mu.Unlock()

	var update domain.Update
	if err := mapstructure.Decode(decision, &update); err != nil {
		e.failRun(run.ID, &domain.ValidationError{Node: pausedNode, Reason: fmt.Sprintf("undecodable decision: %v", err)})
		return nil, nil, fmt.Errorf("decode decision: %w", err)
	}

	e.logger.Info("interrupt resolved", "thread_id", threadID, "run_id", runID, "node", pausedNode)

	events := make(chan domain.Event)
	go func() {
		defer close(events)
		err := e.threads.WithLock(ctx, threadID, func(ctx context.Context) error {
			cp, err := e.checkpointer.LoadLatest(ctx, threadID)
			if err != nil {
				return fmt.Errorf("load checkpoint: %w", err)
			}

			merged, err := cp.State.Apply(pausedNode, update)
			if err != nil {
				return err
			}
			if _, err := e.checkpointer.Save(ctx, threadID, cp.Position, merged); err != nil {
				return err
			}

			out := e.executor.Run(ctx, threadID, merged, cp.Position, events)
			e.finalize(run.ID, out)
			return nil
		})
		if err != nil {
			e.failRun(run.ID, err)
			e.emitFailure(ctx, events, pausedNode, err)
		}
	}()
	return events, e.snapshot(run.ID), nil
}

// Resume re-enters the thread at its latest checkpoint as a new run. It is
// the recovery path for failed runs: the checkpoint sits at the failed
// node's position, so that node is re-invoked. A thread with no checkpoint
// starts fresh from the given inputs, identically to StartRun.
func (e *Engine) Resume(ctx context.Context, threadID string, inputs RunInputs) (<-chan domain.Event, *domain.Run, error) {
	if err := e.checkThread(ctx, threadID); err != nil {
		return nil, nil, err
	}

	cp, err := e.checkpointer.LoadLatest(ctx, threadID)
	if errors.Is(err, domain.ErrNoCheckpoint) {
		return e.StartRun(ctx, threadID, inputs)
	}
	if err != nil {
		return nil, nil, err
	}

	run := e.newRun(threadID)
	e.logger.Info("resuming thread", "thread_id", threadID, "position", cp.Position, "run_id", run.ID)
	return e.launch(ctx, run, cp.State, cp.Position), e.snapshot(run.ID), nil
}

// Run returns a snapshot of a run's current lifecycle state.
func (e *Engine) Run(runID string) (*domain.Run, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	run, ok := e.runs[runID]
	if !ok {
		return nil, false
	}
	return copyRun(run), true
}

// ThreadRuns returns snapshots of all runs on a thread, oldest first.
func (e *Engine) ThreadRuns(threadID string) []*domain.Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*domain.Run
	for _, run := range e.runs {
		if run.ThreadID == threadID {
			out = append(out, copyRun(run))
		}
	}
	sortRuns(out)
	return out
}

// History returns the thread's checkpoint log for audit and debugging.
func (e *Engine) History(ctx context.Context, threadID string) ([]*domain.Checkpoint, error) {
	return e.checkpointer.History(ctx, threadID)
}

// Checkpointer exposes the underlying checkpoint store.
func (e *Engine) Checkpointer() ports.Checkpointer {
	return e.checkpointer
}

// checkThread verifies the thread was created here or has persisted history.
func (e *Engine) checkThread(ctx context.Context, threadID string) error {
	e.mu.Lock()
	known := e.knownThreads[threadID]
	e.mu.Unlock()
	if known {
		return nil
	}
	if _, err := e.checkpointer.LoadLatest(ctx, threadID); err == nil {
		e.mu.Lock()
		e.knownThreads[threadID] = true
		e.mu.Unlock()
		return nil
	}
	return domain.ErrThreadNotFound
}

func (e *Engine) newRun(threadID string) *domain.Run {
	run := &domain.Run{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Status:    domain.RunCreated,
		StartedAt: time.Now().UTC(),
	}
	e.mu.Lock()
	e.runs[run.ID] = run
	e.mu.Unlock()
	return run
}

// launch executes the pipeline under the thread lock in a goroutine and
// returns the caller's event stream. The channel is closed when the run
// reaches a terminal or interrupted state.
func (e *Engine) launch(ctx context.Context, run *domain.Run, state *domain.State, from string) <-chan domain.Event {
	events := make(chan domain.Event)
	go func() {
		defer close(events)
		err := e.threads.WithLock(ctx, run.ThreadID, func(ctx context.Context) error {
			e.setStatus(run.ID, domain.RunRunning)
			out := e.executor.Run(ctx, run.ThreadID, state, from, events)
			e.finalize(run.ID, out)
			return nil
		})
		if err != nil {
			e.failRun(run.ID, err)
			e.emitFailure(ctx, events, from, err)
		}
	}()
	return events
}

// emitFailure surfaces a controller-level failure on the event stream so the
// caller still observes exactly one terminal event.
func (e *Engine) emitFailure(ctx context.Context, events chan<- domain.Event, node string, cause error) {
	kind := domain.ErrKindNode
	var validationErr *domain.ValidationError
	var storageErr *domain.StorageError
	switch {
	case errors.As(cause, &validationErr):
		kind = domain.ErrKindValidation
	case errors.As(cause, &storageErr):
		kind = domain.ErrKindStorage
	}
	select {
	case events <- domain.Event{
		Kind:      domain.EventError,
		Node:      node,
		ErrorKind: kind,
		Message:   cause.Error(),
		Timestamp: time.Now().UTC(),
	}:
	case <-ctx.Done():
	}
}

func (e *Engine) setStatus(runID string, status domain.RunStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if run, ok := e.runs[runID]; ok {
		run.Status = status
	}
}

func (e *Engine) finalize(runID string, out runtime.Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	run, ok := e.runs[runID]
	if !ok {
		return
	}
	run.Status = out.Status
	switch out.Status {
	case domain.RunInterrupted:
		run.PendingInterrupt = &domain.PendingInterrupt{
			Node:    out.Node,
			Reason:  out.Interrupt.Reason,
			Payload: out.Interrupt.Payload,
		}
	case domain.RunCompleted, domain.RunFailed:
		now := time.Now().UTC()
		run.FinishedAt = &now
		if out.Err != nil {
			run.Error = out.Err.Error()
		}
	}
}

func (e *Engine) failRun(runID string, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if run, ok := e.runs[runID]; ok {
		run.Status = domain.RunFailed
		now := time.Now().UTC()
		run.FinishedAt = &now
		run.Error = cause.Error()
	}
}

func (e *Engine) snapshot(runID string) *domain.Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	if run, ok := e.runs[runID]; ok {
		return copyRun(run)
	}
	return nil
}

func copyRun(run *domain.Run) *domain.Run {
	out := *run
	if run.PendingInterrupt != nil {
		pi := *run.PendingInterrupt
		out.PendingInterrupt = &pi
	}
	return &out
}

func sortRuns(runs []*domain.Run) {
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
}
