package nodes

import (
	"context"

	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/ports"
)

// InterruptReasonTradeConfirmation is the reason attached to the analysis
// node's confirmation request.
const InterruptReasonTradeConfirmation = "trade_confirmation"

// Analysis turns market data and research into a probability analysis. By
// default it pauses the run with the proposed analysis, asking a human to
// confirm before the trade-decision step; the resolution decision is merged
// back as this node's output.
type Analysis struct {
	analyst     ports.Analyst
	autoApprove bool
}

// AnalysisOption configures the Analysis node.
type AnalysisOption func(*Analysis)

// WithAutoApprove skips the confirmation interrupt: the analysis is applied
// directly and the pipeline proceeds unattended.
func WithAutoApprove() AnalysisOption {
	return func(n *Analysis) {
		n.autoApprove = true
	}
}

// NewAnalysis creates the analysis node.
func NewAnalysis(analyst ports.Analyst, opts ...AnalysisOption) *Analysis {
	n := &Analysis{analyst: analyst}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Analysis) Name() string { return domain.NodeAnalysis }

func (n *Analysis) Execute(ctx context.Context, state *domain.State) (*domain.Result, error) {
	info, err := n.analyst.Analyze(ctx, state)
	if err != nil {
		return nil, &domain.NodeError{Node: n.Name(), Kind: domain.ErrKindNode, Err: err}
	}

	if n.autoApprove {
		return domain.UpdateResult(domain.Update{AnalysisInfo: info}), nil
	}

	// The proposed analysis rides along in the payload; approving callers
	// echo it back (possibly edited) as the resolution decision.
	return domain.InterruptResult(domain.Interrupt{
		Reason: InterruptReasonTradeConfirmation,
		Payload: map[string]any{
			"question":      "Confirm proceeding to a trade decision for market " + state.MarketID,
			"market_id":     state.MarketID,
			"analysis_info": info,
		},
	}), nil
}
