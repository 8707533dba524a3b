package nodes

import (
	"context"

	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/ports"
)

// TradeDecision turns the accumulated analysis into a trade decision and a
// confidence score.
type TradeDecision struct {
	trader ports.Trader
}

// NewTradeDecision creates the trade-decision node.
func NewTradeDecision(trader ports.Trader) *TradeDecision {
	return &TradeDecision{trader: trader}
}

func (n *TradeDecision) Name() string { return domain.NodeTradeDecision }

func (n *TradeDecision) Execute(ctx context.Context, state *domain.State) (*domain.Result, error) {
	decision, confidence, err := n.trader.Decide(ctx, state)
	if err != nil {
		return nil, &domain.NodeError{Node: n.Name(), Kind: domain.ErrKindNode, Err: err}
	}
	return domain.UpdateResult(domain.Update{
		TradeDecision: decision,
		Confidence:    &confidence,
	}), nil
}

// DefaultPipeline assembles the standard four-step pipeline in execution
// order.
func DefaultPipeline(client ports.MarketClient, researcher ports.Researcher, analyst ports.Analyst, trader ports.Trader, analysisOpts ...AnalysisOption) []domain.Node {
	return []domain.Node{
		NewFetchMarketData(client),
		NewResearch(researcher),
		NewAnalysis(analyst, analysisOpts...),
		NewTradeDecision(trader),
	}
}
