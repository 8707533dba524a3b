/*
Package domain contains the core domain models for the polytrader pipeline.

It defines the entities the orchestration engine operates on: the per-run
State with field-level ownership, the Node contract and its tagged Result,
streaming Events, Checkpoints, and the error taxonomy. This package is kept
pure and free of I/O or persistence concerns, following Hexagonal
Architecture principles.

# Key Entities

  - State: the shared record a run accumulates, one writer (the executor).
  - Node: a pipeline step that returns an Update, an Interrupt, or fails.
  - Event: one streamed progress message per completed node.
  - Checkpoint: an immutable persisted snapshot of run position and state.
*/
package domain
