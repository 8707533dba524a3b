/*
Package nodes provides the default pipeline steps: FetchMarketData,
Research, Analysis, and TradeDecision.

Each node delegates its actual work to a collaborator port (market client,
researcher, analyst, trader) and only shapes the outcome into the engine's
node contract: a partial state update, an interrupt request, or a failure.
*/
package nodes
