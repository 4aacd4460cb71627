// Package core provides the foundational domain types and interfaces shared
// by the CostPilot orchestration engine. It defines:
//
//   - Agents (the specialized reasoning units driven by the engine)
//   - Execution events (ordered progress + terminal outcome of a run)
//   - AgentResult / Source (per-agent output with citations)
//   - SharedContext (the per-question bundle of identifiers, history and
//     accumulated agent outputs)
//   - Execution plans (ordered stages of concurrently-run agents)
//   - Conversations / Turns plus the pluggable ConversationStore
//
// The package intentionally keeps implementation concerns (persistence,
// engine orchestration, concrete agents) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core
