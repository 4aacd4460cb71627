package core

import "sync"

// NoPriorContext is handed to downstream agents when every agent of an
// earlier stage they depend on failed. Agents include it verbatim in their
// reasoning input instead of blocking on output that will never arrive.
const NoPriorContext = "no prior context available"

// SharedContext is the per-question execution bundle: identifiers, the
// question, a bounded window of prior turns and the accumulator of per-agent
// outputs. One SharedContext is owned by exactly one engine run and is never
// shared across concurrent questions.
//
// The accumulator is mutated only by the engine's stage-completion step;
// agents read earlier outputs through Result/PriorOutput but never write.
type SharedContext struct {
	ExecutionID    string
	ClientID       string
	ContractID     string
	ConversationID string
	Question       string

	// History is the bounded window of prior turns, oldest first.
	History []Turn

	// HasCostData reports whether claim/cost records exist for the client.
	// When false the router strips cost analysis from the plan. It starts
	// true; the engine's probe may clear it.
	HasCostData bool

	mu      sync.RWMutex
	results map[string]AgentResult
}

// NewSharedContext constructs a context for a single execution.
func NewSharedContext(executionID, clientID, question string) *SharedContext {
	return &SharedContext{
		ExecutionID: executionID,
		ClientID:    clientID,
		Question:    question,
		HasCostData: true,
		results:     make(map[string]AgentResult),
	}
}

// SetResult records an agent's outcome in the accumulator. Called by the
// engine after a stage barrier, never by agents.
func (c *SharedContext) SetResult(r AgentResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[r.Agent] = r
}

// Result returns the recorded outcome for an agent, if any.
func (c *SharedContext) Result(agent string) (AgentResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[agent]
	return r, ok
}

// Results returns a copy of all recorded outcomes keyed by agent name.
func (c *SharedContext) Results() map[string]AgentResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]AgentResult, len(c.results))
	for k, v := range c.results {
		out[k] = v
	}
	return out
}

// SuccessfulResults returns the successful outcomes in the given agent-name
// order, skipping agents that failed or never ran.
func (c *SharedContext) SuccessfulResults(order ...string) []AgentResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]AgentResult, 0, len(order))
	for _, name := range order {
		if r, ok := c.results[name]; ok && r.Success {
			out = append(out, r)
		}
	}
	return out
}

// PriorOutput returns the successful output of an upstream agent, or the
// NoPriorContext marker when the agent failed or never produced output.
func (c *SharedContext) PriorOutput(agent string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if r, ok := c.results[agent]; ok && r.Success && r.Output != "" {
		return r.Output
	}
	return NoPriorContext
}
