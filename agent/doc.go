// Package agent implements the four specialized agents of the execution
// engine: retrieval, contract analysis, cost insights and negotiation
// advice. Each agent is statically bound to its toolset and prompt focus;
// there is no dynamic tool dispatch. Agents share one contract: given the
// per-question shared context they produce an AgentResult value — failures
// are converted at the agent boundary into failed results with machine
// codes, never returned as errors or panics.
package agent
