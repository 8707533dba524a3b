package polytrader_test

import (
	"context"
	"fmt"
	"log"

	"github.com/polytrader/polytrader"
	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/nodes"
	"github.com/polytrader/polytrader/pkg/ports"
)

type exampleMarketClient struct{}

func (exampleMarketClient) FetchMarket(ctx context.Context, marketID string) (*domain.MarketData, []domain.Token, error) {
	return &domain.MarketData{Question: "Will the measure pass?", Active: true},
		[]domain.Token{{TokenID: "tok-yes", Outcome: "Yes", Price: 0.60}}, nil
}

// Example demonstrates a full pipeline run: stream events until the analysis
// pauses for confirmation, then resolve the interrupt to let the trade
// decision complete.
func Example() {
	// 1. Assemble the pipeline. Real deployments use the Gamma client and
	// richer collaborators; any implementation of the ports will do.
	pipeline := nodes.DefaultPipeline(
		exampleMarketClient{},
		ports.ResearcherFunc(func(ctx context.Context, state *domain.State) (*domain.ResearchReport, error) {
			return &domain.ResearchReport{Summary: "turnout favors yes"}, nil
		}),
		ports.AnalystFunc(func(ctx context.Context, state *domain.State) (*domain.AnalysisInfo, error) {
			return &domain.AnalysisInfo{Summary: "lean yes", ProbabilityEstimate: 0.7}, nil
		}),
		ports.TraderFunc(func(ctx context.Context, state *domain.State) (*domain.TradeDecision, float64, error) {
			return &domain.TradeDecision{Side: domain.SideBuy, TokenID: "tok-yes", Size: 10}, 0.8, nil
		}),
	)

	engine, err := polytrader.New(pipeline)
	if err != nil {
		log.Fatal(err)
	}

	// 2. Start a run on a fresh thread and drain its events. The run pauses
	// at the analysis node, waiting for a human decision.
	ctx := context.Background()
	threadID := engine.CreateThread(ctx)

	events, run, err := engine.StartRun(ctx, threadID, polytrader.RunInputs{MarketID: "516877"})
	if err != nil {
		log.Fatal(err)
	}
	for ev := range events {
		fmt.Println(ev.Kind, ev.Node)
	}

	// 3. Approve: echo the proposed analysis back as the decision.
	snapshot, _ := engine.Run(run.ID)
	decision := map[string]any{
		"analysis_info": snapshot.PendingInterrupt.Payload["analysis_info"],
	}
	events, _, err = engine.ResolveInterrupt(ctx, threadID, run.ID, decision)
	if err != nil {
		log.Fatal(err)
	}
	for ev := range events {
		fmt.Println(ev.Kind, ev.Node)
	}

	snapshot, _ = engine.Run(run.ID)
	fmt.Println("status:", snapshot.Status)

	// Output:
	// update fetch_market_data
	// update research
	// interrupt analysis
	// update trade_decision
	// status: completed
}
