package nodes

import (
	"context"

	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/ports"
)

// FetchMarketData loads the market snapshot and, when the caller did not
// supply them, the outcome tokens.
type FetchMarketData struct {
	client ports.MarketClient
}

// NewFetchMarketData creates the market-data node.
func NewFetchMarketData(client ports.MarketClient) *FetchMarketData {
	return &FetchMarketData{client: client}
}

func (n *FetchMarketData) Name() string { return domain.NodeFetchMarketData }

func (n *FetchMarketData) Execute(ctx context.Context, state *domain.State) (*domain.Result, error) {
	data, tokens, err := n.client.FetchMarket(ctx, state.MarketID)
	if err != nil {
		return nil, &domain.NodeError{Node: n.Name(), Kind: domain.ErrKindNode, Err: err}
	}

	update := domain.Update{MarketData: data}
	// Tokens are set once: keep the caller's list when one was provided.
	if len(state.Tokens) == 0 {
		update.Tokens = tokens
	}
	return domain.UpdateResult(update), nil
}
