package domain

import (
	"errors"
	"testing"
)

func TestApply_OwnedFields(t *testing.T) {
	state := NewState("516877", nil)

	next, err := state.Apply(NodeFetchMarketData, Update{
		Tokens:     []Token{{TokenID: "A", Outcome: "YES", Price: 0.6}},
		MarketData: &MarketData{Question: "?"},
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if next.LoopStep != 1 {
		t.Errorf("loop step: got %d, want 1", next.LoopStep)
	}
	if len(next.Tokens) != 1 || next.MarketData == nil {
		t.Errorf("owned fields not merged: %+v", next)
	}
	if state.LoopStep != 0 || state.MarketData != nil {
		t.Error("receiver was mutated")
	}
}

func TestApply_RejectsOutOfOwnership(t *testing.T) {
	state := NewState("m1", nil)

	_, err := state.Apply(NodeResearch, Update{
		TradeDecision: &TradeDecision{Side: SideBuy},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Field != FieldTradeDecision {
		t.Errorf("field: got %q, want %q", validationErr.Field, FieldTradeDecision)
	}
}

func TestApply_RejectsUnknownOwner(t *testing.T) {
	state := NewState("m1", nil)
	_, err := state.Apply("rogue", Update{Confidence: ptrFloat(0.5)})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestApply_FieldLevelReplace(t *testing.T) {
	state := NewState("m1", nil)
	first, err := state.Apply(NodeResearch, Update{
		ResearchReport: &ResearchReport{Summary: "v1", Findings: []string{"a", "b"}},
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	// A second apply replaces the whole payload, it does not merge into it.
	second, err := first.Apply(NodeResearch, Update{
		ResearchReport: &ResearchReport{Summary: "v2"},
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if second.ResearchReport.Summary != "v2" {
		t.Errorf("summary: got %q", second.ResearchReport.Summary)
	}
	if len(second.ResearchReport.Findings) != 0 {
		t.Error("old findings leaked through a deep merge")
	}
}

func TestUpdate_Fields(t *testing.T) {
	u := Update{
		AnalysisInfo: &AnalysisInfo{Summary: "s"},
		Confidence:   ptrFloat(0.4),
	}
	fields := u.Fields()
	if len(fields) != 2 {
		t.Fatalf("fields: got %v", fields)
	}
	if fields[0] != FieldAnalysisInfo || fields[1] != FieldConfidence {
		t.Errorf("unexpected field set: %v", fields)
	}
}

func TestClone_Isolation(t *testing.T) {
	state := NewState("m1", []Token{{TokenID: "A", Outcome: "YES", Price: 0.6}})
	state.ResearchReport = &ResearchReport{Summary: "r", Findings: []string{"f1"}}

	clone := state.Clone()
	clone.Tokens[0].Price = 0.9
	clone.ResearchReport.Summary = "mutated"
	clone.ResearchReport.Findings[0] = "mutated"

	if state.Tokens[0].Price != 0.6 {
		t.Error("token mutation reached the original")
	}
	if state.ResearchReport.Summary != "r" || state.ResearchReport.Findings[0] != "f1" {
		t.Error("report mutation reached the original")
	}
}

func TestOwnership_CoversAllNodes(t *testing.T) {
	for _, node := range []string{NodeFetchMarketData, NodeResearch, NodeAnalysis, NodeTradeDecision} {
		if len(Ownership[node]) == 0 {
			t.Errorf("node %q has no ownership set", node)
		}
	}
}

func ptrFloat(f float64) *float64 { return &f }
