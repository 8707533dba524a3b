package nodes

import (
	"context"

	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/ports"
)

// Research produces the research report for the market in the state.
type Research struct {
	researcher ports.Researcher
}

// NewResearch creates the research node.
func NewResearch(researcher ports.Researcher) *Research {
	return &Research{researcher: researcher}
}

func (n *Research) Name() string { return domain.NodeResearch }

func (n *Research) Execute(ctx context.Context, state *domain.State) (*domain.Result, error) {
	report, err := n.researcher.Research(ctx, state)
	if err != nil {
		return nil, &domain.NodeError{Node: n.Name(), Kind: domain.ErrKindNode, Err: err}
	}
	return domain.UpdateResult(domain.Update{ResearchReport: report}), nil
}
