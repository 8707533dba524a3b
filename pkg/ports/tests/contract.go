package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/ports"
)

// RunCheckpointerContract verifies that an adapter complies with the
// ports.Checkpointer semantics: miss reporting, latest-wins ordering,
// append-only history, and per-thread isolation.
func RunCheckpointerContract(t *testing.T, cp ports.Checkpointer) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadLatest_Miss", func(t *testing.T) {
		_, err := cp.LoadLatest(ctx, "contract-unknown-thread")
		if !errors.Is(err, domain.ErrNoCheckpoint) {
			t.Fatalf("expected ErrNoCheckpoint, got %v", err)
		}
	})

	t.Run("History_Empty", func(t *testing.T) {
		history, err := cp.History(ctx, "contract-unknown-thread")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Fatalf("expected empty history, got %d entries", len(history))
		}
	})

	t.Run("Save_Then_LoadLatest", func(t *testing.T) {
		state := domain.NewState("516877", []domain.Token{{TokenID: "A", Outcome: "YES", Price: 0.6}})
		id, err := cp.Save(ctx, "contract-t1", domain.NodeResearch, state)
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if id == "" {
			t.Error("expected non-empty checkpoint id")
		}

		got, err := cp.LoadLatest(ctx, "contract-t1")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.Position != domain.NodeResearch {
			t.Errorf("position mismatch: got %q, want %q", got.Position, domain.NodeResearch)
		}
		if got.State.MarketID != "516877" {
			t.Errorf("state mismatch: got market %q", got.State.MarketID)
		}
		if len(got.State.Tokens) != 1 || got.State.Tokens[0].TokenID != "A" {
			t.Errorf("tokens not round-tripped: %+v", got.State.Tokens)
		}
	})

	t.Run("AppendOnly_LatestWins", func(t *testing.T) {
		state := domain.NewState("m-append", nil)
		positions := []string{domain.NodeResearch, domain.NodeAnalysis, domain.NodeTradeDecision}
		for i, pos := range positions {
			state.LoopStep = i + 1
			if _, err := cp.Save(ctx, "contract-t2", pos, state); err != nil {
				t.Fatalf("save %d failed: %v", i, err)
			}
		}

		latest, err := cp.LoadLatest(ctx, "contract-t2")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if latest.Position != domain.NodeTradeDecision {
			t.Errorf("latest position: got %q, want %q", latest.Position, domain.NodeTradeDecision)
		}
		if latest.State.LoopStep != 3 {
			t.Errorf("latest loop step: got %d, want 3", latest.State.LoopStep)
		}

		history, err := cp.History(ctx, "contract-t2")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if len(history) != len(positions) {
			t.Fatalf("expected %d checkpoints, got %d", len(positions), len(history))
		}
		for i, pos := range positions {
			if history[i].Position != pos {
				t.Errorf("history[%d] position: got %q, want %q", i, history[i].Position, pos)
			}
		}
	})

	t.Run("Thread_Isolation", func(t *testing.T) {
		a := domain.NewState("m-a", nil)
		b := domain.NewState("m-b", nil)
		if _, err := cp.Save(ctx, "contract-iso-a", domain.NodeResearch, a); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if _, err := cp.Save(ctx, "contract-iso-b", domain.NodeAnalysis, b); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		got, err := cp.LoadLatest(ctx, "contract-iso-a")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.State.MarketID != "m-a" || got.Position != domain.NodeResearch {
			t.Errorf("thread isolation violated: %+v", got)
		}
	})

	t.Run("Snapshot_Immutability", func(t *testing.T) {
		state := domain.NewState("m-immutable", []domain.Token{{TokenID: "X", Outcome: "NO", Price: 0.4}})
		if _, err := cp.Save(ctx, "contract-t3", domain.NodeResearch, state); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		// Mutating the caller's state after Save must not affect the snapshot.
		state.MarketID = "mutated"
		state.Tokens[0].Price = 0.99

		got, err := cp.LoadLatest(ctx, "contract-t3")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.State.MarketID != "m-immutable" {
			t.Errorf("snapshot shares memory with caller state: %q", got.State.MarketID)
		}
		if got.State.Tokens[0].Price != 0.4 {
			t.Errorf("snapshot token mutated: %v", got.State.Tokens[0].Price)
		}
	})
}
