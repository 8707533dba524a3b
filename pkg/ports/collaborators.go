package ports

import (
	"context"

	"github.com/polytrader/polytrader/pkg/domain"
)

// MarketClient fetches market descriptors from the data provider.
type MarketClient interface {
	// FetchMarket returns the market snapshot and its outcome tokens.
	FetchMarket(ctx context.Context, marketID string) (*domain.MarketData, []domain.Token, error)
}

// Researcher produces a research report for the market in the given state.
// Implementations typically wrap search tooling or a language model; how the
// report is computed is outside the orchestration core.
type Researcher interface {
	Research(ctx context.Context, state *domain.State) (*domain.ResearchReport, error)
}

// Analyst turns market data and research into a probability analysis.
type Analyst interface {
	Analyze(ctx context.Context, state *domain.State) (*domain.AnalysisInfo, error)
}

// Trader turns an analysis into a trade decision plus a confidence score in
// [0, 1].
type Trader interface {
	Decide(ctx context.Context, state *domain.State) (*domain.TradeDecision, float64, error)
}

// ResearcherFunc adapts a function to the Researcher interface.
type ResearcherFunc func(ctx context.Context, state *domain.State) (*domain.ResearchReport, error)

func (f ResearcherFunc) Research(ctx context.Context, state *domain.State) (*domain.ResearchReport, error) {
	return f(ctx, state)
}

// AnalystFunc adapts a function to the Analyst interface.
type AnalystFunc func(ctx context.Context, state *domain.State) (*domain.AnalysisInfo, error)

func (f AnalystFunc) Analyze(ctx context.Context, state *domain.State) (*domain.AnalysisInfo, error) {
	return f(ctx, state)
}

// TraderFunc adapts a function to the Trader interface.
type TraderFunc func(ctx context.Context, state *domain.State) (*domain.TradeDecision, float64, error)

func (f TraderFunc) Decide(ctx context.Context, state *domain.State) (*domain.TradeDecision, float64, error) {
	return f(ctx, state)
}
