package core

import "time"

// Error codes attached to failed AgentResults. A failure inside an agent is
// always converted into one of these, never propagated as a crash.
const (
	// ErrCodeToolUnavailable marks a tool or collaborator call that failed.
	ErrCodeToolUnavailable = "tool_unavailable"
	// ErrCodeTimeout marks an agent that exceeded its per-run deadline.
	ErrCodeTimeout = "timeout"
	// ErrCodeNoInput marks an agent invoked without the upstream output it
	// requires (e.g. recommendation with neither interpretation nor cost
	// analysis present).
	ErrCodeNoInput = "no_input"
)

// Terminal failure codes surfaced on error events. Routing failures are never
// surfaced; they recover to the fallback plan.
const (
	// ErrCodeConsolidationFailed means the final synthesis step failed after
	// retries. Fatal to the request; no assistant turn is persisted.
	ErrCodeConsolidationFailed = "consolidation_failed"
)

// AgentResult is the immutable outcome of one agent invocation. On failure
// Success is false and ErrorCode carries one of the ErrCode constants above.
type AgentResult struct {
	Agent       string        `json:"agent"`
	Output      string        `json:"output,omitempty"`
	Sources     []Source      `json:"sources,omitempty"`
	Success     bool          `json:"success"`
	ErrorCode   string        `json:"error_code,omitempty"`
	ErrorDetail string        `json:"error_detail,omitempty"`
	Elapsed     time.Duration `json:"elapsed,omitempty"`
}

// NewAgentResult builds a successful result.
func NewAgentResult(agent, output string, sources []Source) AgentResult {
	return AgentResult{Agent: agent, Output: output, Sources: sources, Success: true}
}

// NewAgentFailure builds a failed result with a machine-readable code.
func NewAgentFailure(agent, code, detail string) AgentResult {
	return AgentResult{Agent: agent, Success: false, ErrorCode: code, ErrorDetail: detail}
}
