package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/costpilot/conversation"
	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/model"
	"github.com/hupe1980/costpilot/router"
)

// testAgent is a scriptable agent that records invocations.
type testAgent struct {
	name string
	run  func(ctx context.Context, sc *core.SharedContext) core.AgentResult

	mu    sync.Mutex
	calls int
}

var _ core.Agent = (*testAgent)(nil)

func (a *testAgent) Name() string { return a.name }

func (a *testAgent) Run(ctx context.Context, sc *core.SharedContext) core.AgentResult {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return a.run(ctx, sc)
}

func (a *testAgent) invocations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func succeedingAgent(name, output string, sources ...core.Source) *testAgent {
	return &testAgent{
		name: name,
		run: func(_ context.Context, _ *core.SharedContext) core.AgentResult {
			return core.NewAgentResult(name, output, sources)
		},
	}
}

// blockingAgent never returns before its context ends.
func blockingAgent(name string) *testAgent {
	return &testAgent{
		name: name,
		run: func(ctx context.Context, _ *core.SharedContext) core.AgentResult {
			<-ctx.Done()
			return core.NewAgentFailure(name, core.ErrCodeTimeout, ctx.Err().Error())
		},
	}
}

type fixture struct {
	engine    *Engine
	model     *model.MockModel
	store     core.ConversationStore
	retrieval *testAgent
	analyst   *testAgent
	cost      *testAgent
	advisor   *testAgent
}

func newFixture(t *testing.T, optFns ...func(o *Options)) *fixture {
	t.Helper()

	f := &fixture{
		model: model.NewMockModel("mock", "test"),
		store: conversation.NewMemoryStore(),
		retrieval: succeedingAgent(core.AgentRetrieval, "Trecho: coparticipação de 30%.",
			core.Source{DocumentID: "doc-1", DocumentName: "Contrato 2025", SectionTitle: "Cláusula 8.1", PageNumber: 14, Relevance: 0.9}),
		analyst: succeedingAgent(core.AgentContractAnalyst, "A coparticipação é de 30% conforme a Cláusula 8.1.",
			core.Source{DocumentID: "doc-1", DocumentName: "Contrato 2025", SectionTitle: "Cláusula 8.1", PageNumber: 14, Relevance: 0.9}),
		cost:    succeedingAgent(core.AgentCostInsights, "Sinistralidade em 82,5%."),
		advisor: succeedingAgent(core.AgentNegotiationAdvisor, "[ALTA] Renegociar reajuste."),
	}

	f.engine = New(
		router.New(nil),
		f.model,
		conversation.NewManager(f.store),
		[]core.Agent{f.retrieval, f.analyst, f.cost, f.advisor},
		append([]func(o *Options){func(o *Options) { o.AgentTimeout = 200 * time.Millisecond }}, optFns...)...,
	)
	return f
}

func drain(t *testing.T, events <-chan core.Event) []core.Event {
	t.Helper()
	var out []core.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func terminalOf(t *testing.T, events []core.Event) core.Event {
	t.Helper()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.True(t, last.IsTerminal(), "last event must be terminal, got %s", last.Type)
	return last
}

func TestExecuteEmitsExactlyOneTerminalEvent(t *testing.T) {
	f := newFixture(t)

	execID, events, err := f.engine.Execute(context.Background(), Request{
		Message:        "Qual o valor da coparticipação para consultas?",
		ClientID:       "client-1",
		IncludeSources: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, execID)

	all := drain(t, events)

	terminals := 0
	for i, ev := range all {
		assert.Equal(t, execID, ev.ExecutionID)
		if ev.IsTerminal() {
			terminals++
			assert.Equal(t, len(all)-1, i, "terminal event must be last")
		}
	}
	assert.Equal(t, 1, terminals)
	assert.Greater(t, len(all), 1, "status events must precede the terminal event")
}

func TestScenarioContractQuestion(t *testing.T) {
	f := newFixture(t)

	_, events, err := f.engine.Execute(context.Background(), Request{
		Message:        "Qual o valor da coparticipação para consultas?",
		ClientID:       "client-1",
		ContractID:     "contract-1",
		IncludeSources: true,
	})
	require.NoError(t, err)

	term := terminalOf(t, drain(t, events))
	require.Equal(t, core.EventComplete, term.Type)
	assert.NotEmpty(t, term.Complete.Sources)
	assert.NotEmpty(t, term.Complete.ConversationID)

	assert.Equal(t, 1, f.retrieval.invocations())
	assert.Equal(t, 1, f.analyst.invocations())
	assert.Zero(t, f.cost.invocations(), "cost agent must not run for a contract question")
	assert.Zero(t, f.advisor.invocations())
}

func TestScenarioCostQuestion(t *testing.T) {
	f := newFixture(t)

	_, events, err := f.engine.Execute(context.Background(), Request{
		Message:        "Qual foi o total gasto no último mês?",
		ClientID:       "client-1",
		IncludeSources: true,
	})
	require.NoError(t, err)

	term := terminalOf(t, drain(t, events))
	require.Equal(t, core.EventComplete, term.Type)

	// Single-agent plan passes the agent's narrative through unchanged.
	assert.Equal(t, "Sinistralidade em 82,5%.", term.Complete.Response)
	assert.Equal(t, 1, f.cost.invocations())
	assert.Zero(t, f.retrieval.invocations(), "retrieval must not run for a cost question")
	assert.Empty(t, f.model.Calls(), "no consolidation call for a single successful agent")
}

func TestCostDataProbeDegradesPlan(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.CostDataProbe = func(context.Context, string) bool { return false }
	})

	_, events, err := f.engine.Execute(context.Background(), Request{
		Message:        "Qual foi o total gasto no último mês?",
		ClientID:       "client-1",
		IncludeSources: true,
	})
	require.NoError(t, err)

	term := terminalOf(t, drain(t, events))
	require.Equal(t, core.EventComplete, term.Type)

	// Without claim records the question takes the contract path.
	assert.Zero(t, f.cost.invocations(), "cost agent must not run when the probe reports no data")
	assert.Equal(t, 1, f.retrieval.invocations())
	assert.Equal(t, 1, f.analyst.invocations())
}

func TestStatusMessageForUnknownAgent(t *testing.T) {
	assert.Equal(t, "Executando agente auditor", statusMessageFor("auditor"))
	assert.Equal(t, agentStatusMessages[core.AgentRetrieval], statusMessageFor(core.AgentRetrieval))
}

func TestScenarioNegotiationRunsAllAgents(t *testing.T) {
	f := newFixture(t)

	var advisorInputs []string
	f.advisor.run = func(_ context.Context, sc *core.SharedContext) core.AgentResult {
		advisorInputs = []string{
			sc.PriorOutput(core.AgentContractAnalyst),
			sc.PriorOutput(core.AgentCostInsights),
		}
		return core.NewAgentResult(core.AgentNegotiationAdvisor, "[ALTA] Renegociar reajuste.", nil)
	}

	_, events, err := f.engine.Execute(context.Background(), Request{
		Message:        "O que devo renegociar para economizar?",
		ClientID:       "client-1",
		ContractID:     "contract-1",
		IncludeSources: true,
	})
	require.NoError(t, err)

	term := terminalOf(t, drain(t, events))
	require.Equal(t, core.EventComplete, term.Type)

	for _, a := range []*testAgent{f.retrieval, f.cost, f.analyst, f.advisor} {
		assert.Equal(t, 1, a.invocations(), "agent %s", a.name)
	}

	require.Len(t, advisorInputs, 2)
	assert.NotEqual(t, core.NoPriorContext, advisorInputs[0])
	assert.NotEqual(t, core.NoPriorContext, advisorInputs[1])
}

func TestScenarioRetrievalTimeoutStillCompletes(t *testing.T) {
	f := newFixture(t)
	f.retrieval = blockingAgent(core.AgentRetrieval)
	f.engine.agents[core.AgentRetrieval] = f.retrieval

	var analystSaw string
	f.analyst.run = func(_ context.Context, sc *core.SharedContext) core.AgentResult {
		analystSaw = sc.PriorOutput(core.AgentRetrieval)
		return core.NewAgentResult(core.AgentContractAnalyst, "Sem o texto do contrato não é possível precisar o valor.", nil)
	}

	_, events, err := f.engine.Execute(context.Background(), Request{
		Message:        "Qual o valor da coparticipação para consultas?",
		ClientID:       "client-1",
		IncludeSources: true,
	})
	require.NoError(t, err)

	all := drain(t, events)
	term := terminalOf(t, all)
	require.Equal(t, core.EventComplete, term.Type, "partial failure must still complete")

	assert.Equal(t, core.NoPriorContext, analystSaw)

	var sawFailureStatus bool
	for _, ev := range all {
		if ev.Type == core.EventStatus && ev.Status.Agent == core.AgentRetrieval &&
			ev.Status.Message == fmt.Sprintf("Agente %s falhou (%s)", core.AgentRetrieval, core.ErrCodeTimeout) {
			sawFailureStatus = true
		}
	}
	assert.True(t, sawFailureStatus, "timeout must surface as a status event")
}

func TestConsolidationFailureEmitsErrorAndSkipsAssistantTurn(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.ConsolidationRetries = 1 })
	f.model.SetError(errors.New("model unreachable"))

	_, events, err := f.engine.Execute(context.Background(), Request{
		Message:        "Qual o valor da coparticipação para consultas?",
		ClientID:       "client-1",
		IncludeSources: true,
	})
	require.NoError(t, err)

	term := terminalOf(t, drain(t, events))
	require.Equal(t, core.EventError, term.Type)
	assert.Equal(t, core.ErrCodeConsolidationFailed, term.Error.Code)

	// Both model attempts were made.
	assert.Len(t, f.model.Calls(), 2)

	// The user's turn is durable, the assistant side is not.
	mgr := conversation.NewManager(f.store)
	ids := listConversations(t, f.store, "client-1")
	require.Len(t, ids, 1)
	conv, err := mgr.Get(context.Background(), "client-1", ids[0])
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, core.RoleUser, conv.Turns[0].Role)
}

// assistantFailStore fails appends of assistant turns only.
type assistantFailStore struct {
	core.ConversationStore
}

func (s *assistantFailStore) AppendTurn(ctx context.Context, clientID, conversationID string, t core.Turn) error {
	if t.Role == core.RoleAssistant {
		return errors.New("write refused")
	}
	return s.ConversationStore.AppendTurn(ctx, clientID, conversationID, t)
}

func TestPersistenceFailureCompletesWithWarning(t *testing.T) {
	mem := conversation.NewMemoryStore()
	f := &fixture{
		model: model.NewMockModel("mock", "test"),
		cost:  succeedingAgent(core.AgentCostInsights, "Custo total de R$ 1.000,00."),
	}
	f.engine = New(
		router.New(nil),
		f.model,
		conversation.NewManager(&assistantFailStore{ConversationStore: mem}),
		[]core.Agent{f.cost},
	)

	payload, err := f.engine.ExecuteSync(context.Background(), Request{
		Message:        "Qual foi o total gasto no último mês?",
		ClientID:       "client-1",
		IncludeSources: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Custo total de R$ 1.000,00.", payload.Response)
	assert.True(t, payload.PersistenceWarning)
	assert.NotEmpty(t, payload.ConversationID)
}

func TestStopCancelsExecution(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.AgentTimeout = 5 * time.Second })
	f.engine.agents[core.AgentRetrieval] = blockingAgent(core.AgentRetrieval)

	execID, events, err := f.engine.Execute(context.Background(), Request{
		Message:        "Qual o valor da coparticipação para consultas?",
		ClientID:       "client-1",
		IncludeSources: true,
	})
	require.NoError(t, err)

	// Wait for the execution to register, then stop it.
	require.Eventually(t, func() bool {
		return f.engine.Stop(execID) == nil
	}, time.Second, 10*time.Millisecond)

	term := terminalOf(t, drain(t, events))
	require.Equal(t, core.EventError, term.Type)
	assert.Equal(t, "canceled", term.Error.Code)

	assert.Zero(t, f.analyst.invocations(), "no further stage may start after cancellation")
	assert.Error(t, f.engine.Stop(execID), "stopped execution must be unregistered")
}

func TestExecuteSyncReturnsCompletePayload(t *testing.T) {
	f := newFixture(t)
	f.model.AddResponse("coparticipação", "A coparticipação para consultas é de **30%** (Cláusula 8.1, página 14).")

	payload, err := f.engine.ExecuteSync(context.Background(), Request{
		Message:        "Qual o valor da coparticipação para consultas?",
		ClientID:       "client-1",
		IncludeSources: true,
	})
	require.NoError(t, err)

	assert.Contains(t, payload.Response, "30%")
	require.Len(t, payload.Sources, 1)
	assert.Equal(t, "Cláusula 8.1", payload.Sources[0].SectionTitle)
}

func TestExecuteValidatesRequest(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.engine.Execute(context.Background(), Request{ClientID: "client-1"})
	require.Error(t, err)

	_, _, err = f.engine.Execute(context.Background(), Request{Message: "oi"})
	require.Error(t, err)
}

func TestIncludeSourcesFalseOmitsSources(t *testing.T) {
	f := newFixture(t)

	payload, err := f.engine.ExecuteSync(context.Background(), Request{
		Message:  "Qual o valor da coparticipação para consultas?",
		ClientID: "client-1",
	})
	require.NoError(t, err)
	assert.Empty(t, payload.Sources)
}

func TestConversationIsReusedAcrossExecutions(t *testing.T) {
	f := newFixture(t)

	first, err := f.engine.ExecuteSync(context.Background(), Request{
		Message:  "Qual o valor da coparticipação para consultas?",
		ClientID: "client-1",
	})
	require.NoError(t, err)

	second, err := f.engine.ExecuteSync(context.Background(), Request{
		Message:        "Qual a carência do plano?",
		ClientID:       "client-1",
		ConversationID: first.ConversationID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	conv, err := conversation.NewManager(f.store).Get(context.Background(), "client-1", first.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Turns, 4)
	for i, turn := range conv.Turns {
		assert.Equal(t, i+1, turn.Seq)
	}

	// The routing decision is auditable on the assistant turns.
	meta := conv.Turns[1].Metadata
	require.NotNil(t, meta)
	assert.Equal(t, string(core.IntentContractQuery), meta.Intent)
	assert.NotEmpty(t, meta.Agents)
}

// listConversations inspects the memory store through the manager-facing API.
func listConversations(t *testing.T, store core.ConversationStore, clientID string) []string {
	t.Helper()
	mem, ok := store.(*conversation.MemoryStore)
	require.True(t, ok)
	return mem.ConversationIDs(clientID)
}
