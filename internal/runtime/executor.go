package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/polytrader/polytrader/internal/logging"
	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/ports"
)

// Executor walks the pipeline's node sequence over a shared state, applying
// each node's update, checkpointing after every step, and pushing one event
// per completed node to the caller's channel.
//
// Nodes execute strictly sequentially within one run. Events are delivered
// synchronously: the send for node N completes before node N+1 starts.
type Executor struct {
	checkpointer ports.Checkpointer
	nodes        []domain.Node
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
}

// Option configures the Executor.
type Option func(*Executor)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// NewExecutor creates an executor over an ordered node sequence.
func NewExecutor(cp ports.Checkpointer, nodes []domain.Node, opts ...Option) *Executor {
	e := &Executor{
		checkpointer: cp,
		nodes:        nodes,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Positions returns the valid checkpoint positions: every node name in order,
// then domain.PositionEnd.
func (e *Executor) Positions() []string {
	out := make([]string, 0, len(e.nodes)+1)
	for _, n := range e.nodes {
		out = append(out, n.Name())
	}
	return append(out, domain.PositionEnd)
}

// Outcome is the terminal result of one executor run.
type Outcome struct {
	Status    domain.RunStatus
	State     *domain.State
	Position  string
	Node      string
	Interrupt *domain.Interrupt
	Err       error
}

// Run executes nodes from the given position ("" means the first node) until
// completion, interrupt, failure, or cancellation. It blocks; callers that
// want a lazy stream run it in a goroutine and consume events.
//
// Cancellation of ctx (including an abandoned consumer) stops scheduling
// further nodes and leaves the last successful checkpoint intact.
func (e *Executor) Run(ctx context.Context, threadID string, state *domain.State, from string, events chan<- domain.Event) Outcome {
	start, err := e.startIndex(from)
	if err != nil {
		e.emit(ctx, events, domain.Event{
			Kind:      domain.EventError,
			ErrorKind: domain.ErrKindValidation,
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return Outcome{Status: domain.RunFailed, State: state, Position: from, Err: err}
	}

	for i := start; i < len(e.nodes); i++ {
		node := e.nodes[i]
		nodeEvent := &domain.NodeEvent{ThreadID: threadID, Node: node.Name(), Step: state.LoopStep + 1}

		if e.hooks.OnNodeStart != nil {
			e.hooks.OnNodeStart(ctx, nodeEvent)
		}
		e.logger.Debug("executing node", "thread_id", threadID, "node", node.Name(), "step", state.LoopStep+1)

		began := time.Now()
		result, execErr := node.Execute(ctx, state.Clone())
		nodeEvent.Duration = time.Since(began)

		if e.hooks.OnNodeFinish != nil {
			e.hooks.OnNodeFinish(ctx, nodeEvent, execErr)
		}

		if ctx.Err() != nil {
			e.logger.Info("run canceled", "thread_id", threadID, "node", node.Name())
			return Outcome{Status: domain.RunFailed, State: state, Position: node.Name(), Node: node.Name(), Err: ctx.Err()}
		}

		if execErr != nil {
			return e.fail(ctx, threadID, state, node.Name(), execErr, events)
		}
		if result == nil || (result.Update == nil && result.Interrupt == nil) {
			return e.fail(ctx, threadID, state, node.Name(),
				&domain.ValidationError{Node: node.Name(), Reason: "node returned empty result"}, events)
		}

		next := e.positionAfter(i)

		if result.Interrupt != nil {
			if _, err := e.save(ctx, threadID, next, state); err != nil {
				return e.storageFail(ctx, state, node.Name(), err, events)
			}
			if e.hooks.OnInterrupt != nil {
				e.hooks.OnInterrupt(ctx, nodeEvent)
			}
			e.logger.Info("run interrupted",
				"thread_id", threadID, "node", node.Name(), "reason", result.Interrupt.Reason)
			e.emit(ctx, events, domain.Event{
				Kind:      domain.EventInterrupt,
				Node:      node.Name(),
				Payload:   result.Interrupt.Payload,
				Timestamp: time.Now().UTC(),
			})
			return Outcome{
				Status:    domain.RunInterrupted,
				State:     state,
				Position:  next,
				Node:      node.Name(),
				Interrupt: result.Interrupt,
			}
		}

		merged, applyErr := state.Apply(node.Name(), *result.Update)
		if applyErr != nil {
			return e.fail(ctx, threadID, state, node.Name(), applyErr, events)
		}
		state = merged

		if _, err := e.save(ctx, threadID, next, state); err != nil {
			return e.storageFail(ctx, state, node.Name(), err, events)
		}

		e.emit(ctx, events, domain.Event{
			Kind:          domain.EventUpdate,
			Node:          node.Name(),
			UpdatedFields: result.Update.Fields(),
			Timestamp:     time.Now().UTC(),
		})
	}

	e.logger.Info("run completed", "thread_id", threadID, "steps", state.LoopStep)
	return Outcome{Status: domain.RunCompleted, State: state, Position: domain.PositionEnd}
}

// startIndex resolves a checkpoint position to a node index.
func (e *Executor) startIndex(from string) (int, error) {
	if from == "" {
		return 0, nil
	}
	if from == domain.PositionEnd {
		return len(e.nodes), nil
	}
	for i, n := range e.nodes {
		if n.Name() == from {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown checkpoint position %q", from)
}

func (e *Executor) positionAfter(i int) string {
	if i+1 < len(e.nodes) {
		return e.nodes[i+1].Name()
	}
	return domain.PositionEnd
}

func (e *Executor) save(ctx context.Context, threadID, position string, state *domain.State) (string, error) {
	id, err := e.checkpointer.Save(ctx, threadID, position, state)
	if err != nil {
		return "", err
	}
	if e.hooks.OnCheckpoint != nil {
		e.hooks.OnCheckpoint(ctx, &domain.CheckpointEvent{ThreadID: threadID, Position: position})
	}
	return id, nil
}

// fail checkpoints at the failed node's own position, so a later resume
// re-enters the failed node, then surfaces exactly one error event.
func (e *Executor) fail(ctx context.Context, threadID string, state *domain.State, nodeName string, cause error, events chan<- domain.Event) Outcome {
	kind := domain.ErrKindNode
	var validationErr *domain.ValidationError
	if errors.As(cause, &validationErr) {
		kind = domain.ErrKindValidation
	} else if _, ok := cause.(*domain.NodeError); !ok {
		cause = &domain.NodeError{Node: nodeName, Kind: domain.ErrKindNode, Err: cause}
	}

	if _, err := e.save(ctx, threadID, nodeName, state); err != nil {
		return e.storageFail(ctx, state, nodeName, err, events)
	}

	e.logger.Error("node failed", "thread_id", threadID, "node", nodeName, "err", cause)
	e.emit(ctx, events, domain.Event{
		Kind:      domain.EventError,
		Node:      nodeName,
		ErrorKind: kind,
		Message:   cause.Error(),
		Timestamp: time.Now().UTC(),
	})
	return Outcome{Status: domain.RunFailed, State: state, Position: nodeName, Node: nodeName, Err: cause}
}

// storageFail reports a checkpointer outage. No checkpoint exists for this
// step; events already delivered remain valid history.
func (e *Executor) storageFail(ctx context.Context, state *domain.State, nodeName string, cause error, events chan<- domain.Event) Outcome {
	e.logger.Error("checkpoint save failed", "node", nodeName, "err", cause)
	e.emit(ctx, events, domain.Event{
		Kind:      domain.EventError,
		Node:      nodeName,
		ErrorKind: domain.ErrKindStorage,
		Message:   cause.Error(),
		Timestamp: time.Now().UTC(),
	})
	return Outcome{Status: domain.RunFailed, State: state, Position: nodeName, Node: nodeName, Err: cause}
}

// emit delivers an event to the consumer, giving up if the run is canceled.
func (e *Executor) emit(ctx context.Context, events chan<- domain.Event, ev domain.Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
