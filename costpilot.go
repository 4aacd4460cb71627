// Package costpilot provides a high-level façade over the orchestration
// engine for health-plan contract and cost questions. Most applications
// interact with this package by:
//  1. Creating a CostPilot via New() with the external collaborators
//     (search index, cost records, optionally a durable conversation store)
//  2. Asking questions asynchronously (Ask, streaming execution events) or
//     synchronously (AskSync)
//
// The façade wires the intent router, the four specialized agents and the
// conversation manager into an engine.Engine while keeping setup concise.
// Defaults are safe for local development and testing; production
// deployments supply a Postgres conversation store and a structured logger.
package costpilot

import (
	"context"
	"time"

	"github.com/hupe1980/costpilot/agent"
	"github.com/hupe1980/costpilot/conversation"
	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/engine"
	"github.com/hupe1980/costpilot/logging"
	"github.com/hupe1980/costpilot/model"
	"github.com/hupe1980/costpilot/router"
	"github.com/hupe1980/costpilot/tool"
)

// Options configures the CostPilot instance.
type Options struct {
	// AgentTimeout bounds each agent invocation. Defaults to 30s.
	AgentTimeout time.Duration

	// SearchTopK caps the excerpts kept per retrieval. Defaults to 5.
	SearchTopK int

	// SourceCap limits the merged citation list. Defaults to 5.
	SourceCap int

	// HistoryWindow bounds conversation re-hydration. Defaults to 15 turns.
	HistoryWindow int

	// EventBuffer sets the per-execution event channel capacity.
	EventBuffer int

	// ConversationStore defaults to the in-memory store.
	ConversationStore core.ConversationStore

	// RouterModel classifies ambiguous questions. Defaults to Model.
	RouterModel model.Model

	// Logger defaults to NoOp.
	Logger logging.Logger
}

// CostPilot is the high-level façade aggregating the engine and its wiring.
type CostPilot struct {
	opts   Options
	engine *engine.Engine
}

// New creates a CostPilot over a reasoning model and the two external data
// collaborators. Any unset service is initialized with an in-memory or
// pass-through default.
func New(m model.Model, search tool.SearchService, costs tool.CostService, optFns ...func(o *Options)) *CostPilot {
	opts := Options{
		AgentTimeout:      30 * time.Second,
		SearchTopK:        5,
		SourceCap:         5,
		HistoryWindow:     15,
		EventBuffer:       32,
		ConversationStore: conversation.NewMemoryStore(),
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.RouterModel == nil {
		opts.RouterModel = m
	}

	searchTool := tool.NewSearch(search, func(o *tool.SearchOptions) {
		o.TopK = opts.SearchTopK
		o.Logger = opts.Logger
	})
	costTool := tool.NewCost(costs, func(o *tool.CostOptions) {
		o.Logger = opts.Logger
	})

	agents := []core.Agent{
		agent.NewRetrieval(searchTool, withLogger(opts.Logger)),
		agent.NewContractAnalyst(m, withLogger(opts.Logger)),
		agent.NewCostInsights(m, costTool, withLogger(opts.Logger)),
		agent.NewNegotiationAdvisor(m, withLogger(opts.Logger)),
	}

	manager := conversation.NewManager(opts.ConversationStore, func(o *conversation.Options) {
		o.Logger = opts.Logger
	})

	r := router.New(opts.RouterModel, func(o *router.Options) {
		o.Logger = opts.Logger
	})

	eng := engine.New(r, m, manager, agents, func(o *engine.Options) {
		o.AgentTimeout = opts.AgentTimeout
		o.SourceCap = opts.SourceCap
		o.HistoryWindow = opts.HistoryWindow
		o.EventBuffer = opts.EventBuffer
		o.Logger = opts.Logger
	})

	return &CostPilot{opts: opts, engine: eng}
}

func withLogger(l logging.Logger) func(o *agent.Options) {
	return func(o *agent.Options) { o.Logger = l }
}

// Ask starts an asynchronous execution, returning the execution id and its
// ordered event sequence (status events, then exactly one terminal event).
func (p *CostPilot) Ask(ctx context.Context, req engine.Request) (string, <-chan core.Event, error) {
	return p.engine.Execute(ctx, req)
}

// AskSync runs the question to completion and returns the final payload.
func (p *CostPilot) AskSync(ctx context.Context, req engine.Request) (*core.CompletePayload, error) {
	return p.engine.ExecuteSync(ctx, req)
}

// Stop cancels an in-flight execution.
func (p *CostPilot) Stop(executionID string) error {
	return p.engine.Stop(executionID)
}

// Engine exposes the underlying engine for edge layers that need direct
// access (e.g. to list active executions).
func (p *CostPilot) Engine() *engine.Engine {
	return p.engine
}
