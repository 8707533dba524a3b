package domain

import "time"

// Token describes one outcome token of a prediction market.
type Token struct {
	TokenID string  `json:"token_id" mapstructure:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
}

// MarketData is the snapshot of a market fetched from the data provider.
type MarketData struct {
	Question  string    `json:"question"`
	Slug      string    `json:"slug,omitempty"`
	Outcomes  []string  `json:"outcomes"`
	Volume    float64   `json:"volume"`
	Liquidity float64   `json:"liquidity"`
	Active    bool      `json:"active"`
	EndDate   time.Time `json:"end_date,omitempty" mapstructure:"end_date"`
}

// Source is a reference consulted during research.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ResearchReport is the output of the research step.
type ResearchReport struct {
	Summary     string    `json:"summary"`
	Findings    []string  `json:"findings,omitempty"`
	Sources     []Source  `json:"sources,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty" mapstructure:"generated_at"`
}

// AnalysisInfo is the output of the analysis step.
type AnalysisInfo struct {
	Summary             string   `json:"summary"`
	ProbabilityEstimate float64  `json:"probability_estimate" mapstructure:"probability_estimate"`
	KeyFactors          []string `json:"key_factors,omitempty" mapstructure:"key_factors"`
	Risks               []string `json:"risks,omitempty"`
}

// Trade sides. NoTrade indicates the pipeline decided to stay flat.
const (
	SideBuy     = "BUY"
	SideSell    = "SELL"
	SideNoTrade = "NO_TRADE"
)

// TradeDecision is the output of the trade-decision step.
type TradeDecision struct {
	Side    string  `json:"side"`
	TokenID string  `json:"token_id,omitempty" mapstructure:"token_id"`
	Size    float64 `json:"size,omitempty"`
	Price   float64 `json:"price,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}
