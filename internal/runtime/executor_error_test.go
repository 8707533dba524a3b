package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/polytrader/polytrader/internal/runtime"
	"github.com/polytrader/polytrader/pkg/adapters/memory"
	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/ports"
)

func TestExecutor_NodeFailure(t *testing.T) {
	cp := memory.NewCheckpointer()
	attempts := 0
	nodes := happyPipeline()
	nodes[3] = &fakeNode{name: domain.NodeTradeDecision, fn: func(ctx context.Context, state *domain.State) (*domain.Result, error) {
		attempts++
		if attempts == 1 {
			return nil, fmt.Errorf("clob api: connection refused")
		}
		conf := 0.5
		return domain.UpdateResult(domain.Update{
			TradeDecision: &domain.TradeDecision{Side: domain.SideNoTrade},
			Confidence:    &conf,
		}), nil
	}}
	exec := runtime.NewExecutor(cp, nodes)

	events, out := runCollect(t, exec, "t1", domain.NewState("m1", nil), "")

	if out.Status != domain.RunFailed {
		t.Fatalf("expected failed, got %s", out.Status)
	}
	last := events[len(events)-1]
	if last.Kind != domain.EventError || last.ErrorKind != domain.ErrKindNode {
		t.Fatalf("terminal event: %+v", last)
	}

	var nodeErr *domain.NodeError
	if !errors.As(out.Err, &nodeErr) {
		t.Errorf("expected NodeError, got %T", out.Err)
	}

	t.Run("CheckpointAtFailedNode", func(t *testing.T) {
		latest, err := cp.LoadLatest(context.Background(), "t1")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if latest.Position != domain.NodeTradeDecision {
			t.Errorf("position: got %q, want %q", latest.Position, domain.NodeTradeDecision)
		}
	})

	t.Run("ResumeReentersFailedNode", func(t *testing.T) {
		latest, err := cp.LoadLatest(context.Background(), "t1")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		resumeEvents, resumeOut := runCollect(t, exec, "t1", latest.State, latest.Position)
		if resumeOut.Status != domain.RunCompleted {
			t.Fatalf("expected completed after retry, got %s (err=%v)", resumeOut.Status, resumeOut.Err)
		}
		if len(resumeEvents) != 1 || resumeEvents[0].Node != domain.NodeTradeDecision {
			t.Errorf("resume must re-invoke only the failed node: %+v", resumeEvents)
		}
		if attempts != 2 {
			t.Errorf("attempts: got %d, want 2", attempts)
		}
	})
}

func TestExecutor_OwnershipViolation(t *testing.T) {
	cp := memory.NewCheckpointer()
	nodes := happyPipeline()
	// Research attempts to write a field owned by the trade-decision node.
	nodes[1] = &fakeNode{name: domain.NodeResearch, fn: func(ctx context.Context, state *domain.State) (*domain.Result, error) {
		return domain.UpdateResult(domain.Update{
			TradeDecision: &domain.TradeDecision{Side: domain.SideBuy},
		}), nil
	}}
	exec := runtime.NewExecutor(cp, nodes)

	events, out := runCollect(t, exec, "t1", domain.NewState("m1", nil), "")

	if out.Status != domain.RunFailed {
		t.Fatalf("expected failed, got %s", out.Status)
	}
	last := events[len(events)-1]
	if last.ErrorKind != domain.ErrKindValidation {
		t.Errorf("error kind: got %q, want %q", last.ErrorKind, domain.ErrKindValidation)
	}

	// The rejected update must not have leaked into the checkpointed state.
	latest, err := cp.LoadLatest(context.Background(), "t1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if latest.State.TradeDecision != nil {
		t.Error("out-of-ownership write reached the checkpoint")
	}
}

func TestExecutor_EmptyResult(t *testing.T) {
	cp := memory.NewCheckpointer()
	nodes := happyPipeline()
	nodes[0] = &fakeNode{name: domain.NodeFetchMarketData, fn: func(ctx context.Context, state *domain.State) (*domain.Result, error) {
		return &domain.Result{}, nil
	}}
	exec := runtime.NewExecutor(cp, nodes)

	events, out := runCollect(t, exec, "t1", domain.NewState("m1", nil), "")
	if out.Status != domain.RunFailed {
		t.Fatalf("expected failed, got %s", out.Status)
	}
	if events[0].ErrorKind != domain.ErrKindValidation {
		t.Errorf("error kind: got %q", events[0].ErrorKind)
	}
}

// failingCheckpointer simulates an unavailable persistence medium.
type failingCheckpointer struct{}

func (f *failingCheckpointer) Save(ctx context.Context, threadID, position string, state *domain.State) (string, error) {
	return "", &domain.StorageError{Op: "save", Err: errors.New("store unavailable")}
}

func (f *failingCheckpointer) LoadLatest(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	return nil, domain.ErrNoCheckpoint
}

func (f *failingCheckpointer) History(ctx context.Context, threadID string) ([]*domain.Checkpoint, error) {
	return nil, nil
}

var _ ports.Checkpointer = (*failingCheckpointer)(nil)

func TestExecutor_StorageFailure(t *testing.T) {
	exec := runtime.NewExecutor(&failingCheckpointer{}, happyPipeline())

	events, out := runCollect(t, exec, "t1", domain.NewState("m1", nil), "")

	if out.Status != domain.RunFailed {
		t.Fatalf("expected failed, got %s", out.Status)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", len(events))
	}
	if events[0].Kind != domain.EventError || events[0].ErrorKind != domain.ErrKindStorage {
		t.Errorf("terminal event: %+v", events[0])
	}
}
