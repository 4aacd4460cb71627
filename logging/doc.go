// Package logging provides a minimal logging interface and adapters for
// CostPilot.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the engine, router and agents use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - CostPilotLogger with contextual helpers (client, execution, component)
//     and domain logging helpers for agents, tools and model calls
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
