package core

import "context"

// Canonical agent names used in execution plans, accumulator keys and turn
// metadata. The set is closed: plans reference agents by these names only.
const (
	AgentRetrieval          = "retrieval"
	AgentContractAnalyst    = "contract_analyst"
	AgentCostInsights       = "cost_insights"
	AgentNegotiationAdvisor = "negotiation_advisor"
)

// Agent is one specialized reasoning unit driven by the engine. Run must be
// safe for concurrent invocations with distinct contexts, respect ctx
// cancellation, and never panic or return an error: every failure is
// converted into a failed AgentResult with a machine-readable code.
type Agent interface {
	Name() string
	Run(ctx context.Context, sc *SharedContext) AgentResult
}
