/*
Package polytrader is a durable orchestration engine for automated
prediction-market decision pipelines.

A pipeline is an ordered sequence of nodes (FetchMarketData, Research,
Analysis, TradeDecision by default) operating on a shared, evolving state
with field-level ownership. The engine checkpoints after every node, streams
one progress event per completed node, and supports human-in-the-loop
interrupts: a node can pause the run, an external decision is merged as that
node's output, and execution resumes from the persisted position.

# Key Features

  - Durable execution: every step is checkpointed, keyed by thread, so a run
    survives failures and process restarts and resumes from its last
    completed node.
  - First-class pausing: an interrupt is a tagged node outcome, not a thrown
    signal; the pending decision is inspectable on the run.
  - Streamed progress: callers consume events as nodes complete, never a
    buffered transcript after the fact.
  - Hexagonal architecture: checkpoint stores (memory, Redis), locking, and
    node collaborators are adapters behind ports.

# Usage

	eng, err := polytrader.New(nodes,
		polytrader.WithCheckpointer(memory.NewCheckpointer()),
		polytrader.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	threadID := eng.CreateThread(ctx)

	events, run, err := eng.StartRun(ctx, threadID, polytrader.RunInputs{MarketID: "516877"})
	if err != nil {
		log.Fatal(err)
	}
	for ev := range events {
		log.Printf("%s: %s", ev.Kind, ev.Node)
	}

	// If the run paused for confirmation, supply the decision:
	if r, _ := eng.Run(run.ID); r.Status == domain.RunInterrupted {
		events, _, _ = eng.ResolveInterrupt(ctx, threadID, run.ID, decision)
		for ev := range events {
			log.Printf("%s: %s", ev.Kind, ev.Node)
		}
	}
*/
package polytrader
