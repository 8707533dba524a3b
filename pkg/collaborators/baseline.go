// Package collaborators ships thin default implementations of the research,
// analysis, and trading ports. They work entirely from the fetched market
// data, so the pipeline runs end to end without external services; richer
// implementations plug in through the same ports.
package collaborators

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/polytrader/polytrader/pkg/domain"
)

const lowLiquidityThreshold = 1000

// Researcher summarizes the fetched market snapshot into a report.
type Researcher struct{}

func (Researcher) Research(ctx context.Context, state *domain.State) (*domain.ResearchReport, error) {
	md := state.MarketData
	if md == nil {
		return nil, fmt.Errorf("research requires market data")
	}

	findings := []string{
		fmt.Sprintf("Market question: %s", md.Question),
		fmt.Sprintf("Volume %.2f, liquidity %.2f", md.Volume, md.Liquidity),
	}
	for _, tok := range state.Tokens {
		findings = append(findings, fmt.Sprintf("Outcome %q trades at %.3f", tok.Outcome, tok.Price))
	}
	if !md.Active {
		findings = append(findings, "Market is no longer active")
	}

	return &domain.ResearchReport{
		Summary:     fmt.Sprintf("Snapshot review of %q", md.Question),
		Findings:    findings,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Analyst reads the market-implied probability off the primary outcome token.
type Analyst struct{}

func (Analyst) Analyze(ctx context.Context, state *domain.State) (*domain.AnalysisInfo, error) {
	if state.MarketData == nil {
		return nil, fmt.Errorf("analysis requires market data")
	}
	if len(state.Tokens) == 0 {
		return nil, fmt.Errorf("analysis requires at least one outcome token")
	}

	primary := state.Tokens[0]
	estimate := clamp(primary.Price, 0.01, 0.99)

	info := &domain.AnalysisInfo{
		Summary:             fmt.Sprintf("Market-implied probability for %q is %.3f", primary.Outcome, estimate),
		ProbabilityEstimate: estimate,
	}
	if state.ResearchReport != nil {
		info.KeyFactors = append([]string(nil), state.ResearchReport.Findings...)
	}
	if state.MarketData.Liquidity < lowLiquidityThreshold {
		info.Risks = append(info.Risks, "Thin liquidity, fills may move the price")
	}
	if !state.MarketData.Active {
		info.Risks = append(info.Risks, "Market inactive")
	}
	return info, nil
}

// Trader trades the spread between the analyst's estimate and the primary
// token's price. Below the edge threshold it stays flat.
type Trader struct {
	// Edge is the minimum |estimate - price| required to trade.
	Edge float64
	// Size is the order size for any trade taken.
	Size float64
}

// NewTrader returns a Trader with the default edge and size.
func NewTrader() *Trader {
	return &Trader{Edge: 0.05, Size: 10}
}

func (t *Trader) Decide(ctx context.Context, state *domain.State) (*domain.TradeDecision, float64, error) {
	if state.AnalysisInfo == nil {
		return nil, 0, fmt.Errorf("trade decision requires an analysis")
	}
	if len(state.Tokens) == 0 {
		return nil, 0, fmt.Errorf("trade decision requires at least one outcome token")
	}

	primary := state.Tokens[0]
	edge := state.AnalysisInfo.ProbabilityEstimate - primary.Price
	confidence := clamp(0.5+math.Abs(edge), 0, 1)

	if math.Abs(edge) < t.Edge {
		return &domain.TradeDecision{
			Side:    domain.SideNoTrade,
			TokenID: primary.TokenID,
			Reason:  fmt.Sprintf("Edge %.3f below threshold %.3f", edge, t.Edge),
		}, confidence, nil
	}

	side := domain.SideBuy
	if edge < 0 {
		side = domain.SideSell
	}
	return &domain.TradeDecision{
		Side:    side,
		TokenID: primary.TokenID,
		Size:    t.Size,
		Price:   primary.Price,
		Reason:  fmt.Sprintf("Estimate %.3f vs price %.3f", state.AnalysisInfo.ProbabilityEstimate, primary.Price),
	}, confidence, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
