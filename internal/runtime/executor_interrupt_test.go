package runtime_test

import (
	"context"
	"testing"

	"github.com/polytrader/polytrader/internal/runtime"
	"github.com/polytrader/polytrader/pkg/adapters/memory"
	"github.com/polytrader/polytrader/pkg/domain"
)

func interruptingAnalysis() *fakeNode {
	return &fakeNode{name: domain.NodeAnalysis, fn: func(ctx context.Context, state *domain.State) (*domain.Result, error) {
		return domain.InterruptResult(domain.Interrupt{
			Reason: "trade_confirmation",
			Payload: map[string]any{
				"question": "confirm trade for " + state.MarketID,
			},
		}), nil
	}}
}

func TestExecutor_Interrupt(t *testing.T) {
	cp := memory.NewCheckpointer()
	nodes := happyPipeline()
	nodes[2] = interruptingAnalysis()
	exec := runtime.NewExecutor(cp, nodes)

	state := domain.NewState("516877", []domain.Token{{TokenID: "A", Outcome: "YES", Price: 0.6}})
	events, out := runCollect(t, exec, "t1", state, "")

	if out.Status != domain.RunInterrupted {
		t.Fatalf("expected interrupted, got %s (err=%v)", out.Status, out.Err)
	}

	t.Run("EventSequence", func(t *testing.T) {
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		wantKinds := []domain.EventKind{domain.EventUpdate, domain.EventUpdate, domain.EventInterrupt}
		for i, want := range wantKinds {
			if events[i].Kind != want {
				t.Errorf("event %d: got %s, want %s", i, events[i].Kind, want)
			}
		}
		if events[2].Node != domain.NodeAnalysis {
			t.Errorf("interrupt node: got %q, want %q", events[2].Node, domain.NodeAnalysis)
		}
		if events[2].Payload["question"] != "confirm trade for 516877" {
			t.Errorf("interrupt payload not forwarded: %+v", events[2].Payload)
		}
	})

	t.Run("CheckpointAtNextNode", func(t *testing.T) {
		latest, err := cp.LoadLatest(context.Background(), "t1")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if latest.Position != domain.NodeTradeDecision {
			t.Errorf("checkpoint position: got %q, want %q", latest.Position, domain.NodeTradeDecision)
		}
		// The interrupting node contributed no update; state is as of research.
		if latest.State.LoopStep != 2 {
			t.Errorf("loop step: got %d, want 2", latest.State.LoopStep)
		}
		if latest.State.AnalysisInfo != nil {
			t.Error("analysis output must not be set before the decision is merged")
		}
	})

	t.Run("OutcomeCarriesInterrupt", func(t *testing.T) {
		if out.Interrupt == nil || out.Interrupt.Reason != "trade_confirmation" {
			t.Errorf("outcome interrupt: %+v", out.Interrupt)
		}
		if out.Node != domain.NodeAnalysis {
			t.Errorf("outcome node: got %q", out.Node)
		}
		if out.Position != domain.NodeTradeDecision {
			t.Errorf("outcome position: got %q", out.Position)
		}
	})
}

func TestExecutor_InterruptAtLastNode(t *testing.T) {
	cp := memory.NewCheckpointer()
	nodes := happyPipeline()
	nodes[3] = &fakeNode{name: domain.NodeTradeDecision, fn: func(ctx context.Context, state *domain.State) (*domain.Result, error) {
		return domain.InterruptResult(domain.Interrupt{Reason: "final_confirmation"}), nil
	}}
	exec := runtime.NewExecutor(cp, nodes)

	_, out := runCollect(t, exec, "t1", domain.NewState("m1", nil), "")

	if out.Status != domain.RunInterrupted {
		t.Fatalf("expected interrupted, got %s", out.Status)
	}
	if out.Position != domain.PositionEnd {
		t.Errorf("position after last-node interrupt: got %q, want %q", out.Position, domain.PositionEnd)
	}
}
