package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/costpilot/conversation"
	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/logging"
	"github.com/hupe1980/costpilot/model"
	"github.com/hupe1980/costpilot/router"
)

// Request is the inbound question handed to the engine by the edge layer.
type Request struct {
	Message        string `json:"message"`
	ClientID       string `json:"client_id"`
	ContractID     string `json:"contract_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	IncludeSources bool   `json:"include_sources"`
}

// Options configures the engine.
type Options struct {
	// AgentTimeout bounds each agent invocation.
	AgentTimeout time.Duration

	// ConsolidationRetries is the number of retries after a failed
	// consolidation call before the execution fails.
	ConsolidationRetries int

	// EventBuffer is the per-execution event channel capacity.
	EventBuffer int

	// SourceCap limits the merged citation list of the final answer.
	SourceCap int

	// HistoryWindow bounds how many prior turns are re-hydrated.
	HistoryWindow int

	// CostDataProbe reports whether claim records exist for a client. When
	// it reports false the router strips cost analysis from the plan.
	// Defaults to assuming data exists.
	CostDataProbe func(ctx context.Context, clientID string) bool

	// Logger receives engine diagnostics.
	Logger logging.Logger
}

// Engine drives multi-agent executions. One Engine serves many concurrent
// questions; each Execute call owns its shared context and event sequence.
type Engine struct {
	router        *router.Router
	model         model.Model
	conversations *conversation.Manager
	agents        map[string]core.Agent
	opts          Options

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// New creates an engine over a router, a consolidation model, a conversation
// manager and the agent set referenced by the plan catalogue.
func New(r *router.Router, m model.Model, conversations *conversation.Manager, agents []core.Agent, optFns ...func(o *Options)) *Engine {
	opts := Options{
		AgentTimeout:         30 * time.Second,
		ConsolidationRetries: 2,
		EventBuffer:          32,
		SourceCap:            5,
		HistoryWindow:        15,
		Logger:               logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	byName := make(map[string]core.Agent, len(agents))
	for _, a := range agents {
		byName[a.Name()] = a
	}

	return &Engine{
		router:        r,
		model:         m,
		conversations: conversations,
		agents:        byName,
		opts:          opts,
		active:        make(map[string]context.CancelFunc),
	}
}

// Execute starts an asynchronous execution for the request and returns the
// execution id plus its event sequence: zero or more status events followed
// by exactly one terminal event, after which the channel closes. Cancel the
// context (or call Stop) to stop dispatching further stages; event delivery
// is fire and forget, so an absent consumer never stalls the run.
func (e *Engine) Execute(ctx context.Context, req Request) (string, <-chan core.Event, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", nil, errors.New("message must not be empty")
	}
	if req.ClientID == "" {
		return "", nil, errors.New("client id must not be empty")
	}

	executionID := core.NewID()

	runCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.active[executionID] = cancel
	e.mu.Unlock()

	b := newBus(e.opts.EventBuffer)

	go func() {
		defer func() {
			e.mu.Lock()
			delete(e.active, executionID)
			e.mu.Unlock()
			cancel()
			b.close()
		}()
		e.run(runCtx, executionID, req, b)
	}()

	return executionID, b.events(), nil
}

// ExecuteSync runs the request to completion and returns the terminal
// payload, for callers that do not consume the event stream.
func (e *Engine) ExecuteSync(ctx context.Context, req Request) (*core.CompletePayload, error) {
	_, events, err := e.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	var terminal *core.Event
	for ev := range events {
		if ev.IsTerminal() {
			t := ev
			terminal = &t
		}
	}
	if terminal == nil {
		return nil, errors.New("execution ended without terminal event")
	}
	if terminal.Type == core.EventError {
		return nil, fmt.Errorf("%s: %s", terminal.Error.Code, terminal.Error.Message)
	}
	return terminal.Complete, nil
}

// Stop cancels an in-flight execution. The run stops dispatching stages;
// state already persisted stays persisted.
func (e *Engine) Stop(executionID string) error {
	e.mu.Lock()
	cancel, ok := e.active[executionID]
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("no active execution with id %s", executionID)
	}
	cancel()
	return nil
}

// Active returns the ids of in-flight executions.
func (e *Engine) Active() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	return ids
}

func (e *Engine) run(ctx context.Context, executionID string, req Request, b *bus) {
	log := e.opts.Logger
	log.Info("execution started", "execution_id", executionID, "client_id", req.ClientID)

	persistWarn := false

	// The user's turn is durable before any agent runs: a failed execution
	// must never lose the question.
	conversationID, err := e.conversations.Append(ctx, req.ConversationID, req.ClientID, req.ContractID, core.Turn{
		Role:    core.RoleUser,
		Content: req.Message,
	})
	if err != nil {
		log.Warn("user turn not persisted", "execution_id", executionID, "error", err)
		conversationID = req.ConversationID
		persistWarn = true
	}

	sc := core.NewSharedContext(executionID, req.ClientID, req.Message)
	sc.ContractID = req.ContractID
	sc.ConversationID = conversationID
	if e.opts.CostDataProbe != nil {
		sc.HasCostData = e.opts.CostDataProbe(ctx, req.ClientID)
	}

	if conversationID != "" {
		turns, err := e.conversations.LoadRecent(ctx, req.ClientID, conversationID, e.opts.HistoryWindow)
		if err != nil {
			log.Warn("history not loaded", "execution_id", executionID, "error", err)
		} else {
			sc.History = trimCurrentQuestion(turns, req.Message)
		}
	}

	b.status(executionID, "routing", "Analisando sua pergunta", "")
	decision := e.router.Route(ctx, sc)
	log.Info("plan resolved", "execution_id", executionID,
		"intent", decision.Intent, "confidence", decision.Confidence, "agents", decision.Plan.Agents())

	for _, stage := range decision.Plan.Stages {
		if ctx.Err() != nil {
			b.emit(core.NewErrorEvent(executionID, "canceled", "execution canceled before completion"))
			return
		}

		results := e.runStage(ctx, executionID, stage, sc, b)

		// The accumulator is mutated only here, at the stage barrier.
		for _, r := range results {
			sc.SetResult(r)
		}
	}

	if ctx.Err() != nil {
		b.emit(core.NewErrorEvent(executionID, "canceled", "execution canceled before completion"))
		return
	}

	b.status(executionID, "consolidation", "Consolidando resposta", "")
	answer, err := e.consolidate(ctx, sc, decision)
	if err != nil {
		log.Error("consolidation failed", "execution_id", executionID, "error", err)
		b.emit(core.NewErrorEvent(executionID, core.ErrCodeConsolidationFailed, err.Error()))
		return
	}

	sources := e.mergeSources(sc, decision.Plan)

	meta := &core.TurnMetadata{
		ExecutionID: executionID,
		Intent:      string(decision.Intent),
		Confidence:  decision.Confidence,
		Reasoning:   decision.Reasoning,
		Agents:      decision.Plan.Agents(),
		Sources:     sources,
	}
	id, err := e.conversations.Append(ctx, conversationID, req.ClientID, req.ContractID, core.Turn{
		Role:     core.RoleAssistant,
		Content:  answer,
		Metadata: meta,
	})
	if err != nil {
		// The answer outlives its history: losing the user-visible reply is
		// worse than losing the log entry.
		log.Error("assistant turn not persisted", "execution_id", executionID, "error", err)
		persistWarn = true
	} else {
		conversationID = id
	}

	ev := core.NewCompleteEvent(executionID, answer, sources, conversationID)
	if !req.IncludeSources {
		ev.Complete.Sources = []core.Source{}
	}
	ev.Complete.PersistenceWarning = persistWarn
	b.emit(ev)

	log.Info("execution completed", "execution_id", executionID, "conversation_id", conversationID)
}

// Progress messages per agent, in the product's language.
var agentStatusMessages = map[string]string{
	core.AgentRetrieval:          "Buscando informações nos contratos",
	core.AgentContractAnalyst:    "Interpretando cláusulas do contrato",
	core.AgentCostInsights:       "Analisando dados de custos",
	core.AgentNegotiationAdvisor: "Gerando recomendações de negociação",
}

// statusMessageFor returns the progress message for an agent, with a generic
// fallback for names outside the catalogue.
func statusMessageFor(name string) string {
	if msg, ok := agentStatusMessages[name]; ok {
		return msg
	}
	return fmt.Sprintf("Executando agente %s", name)
}

// runStage launches the stage's agents concurrently and joins them at a
// barrier. A failed or missing agent yields a failed result; the stage never
// aborts the run.
func (e *Engine) runStage(ctx context.Context, executionID string, stage core.Stage, sc *core.SharedContext, b *bus) []core.AgentResult {
	results := make([]core.AgentResult, len(stage))

	var wg sync.WaitGroup
	for i, name := range stage {
		a, ok := e.agents[name]
		if !ok {
			results[i] = core.NewAgentFailure(name, core.ErrCodeToolUnavailable, "agent not registered")
			continue
		}

		b.status(executionID, name, statusMessageFor(name), name)

		wg.Add(1)
		go func(i int, a core.Agent) {
			defer wg.Done()
			results[i] = e.runAgent(ctx, a, sc)
		}(i, a)
	}
	wg.Wait()

	for _, r := range results {
		msg := fmt.Sprintf("Agente %s concluído", r.Agent)
		if !r.Success {
			msg = fmt.Sprintf("Agente %s falhou (%s)", r.Agent, r.ErrorCode)
		}
		b.status(executionID, r.Agent, msg, r.Agent)
		e.opts.Logger.Info("agent finished", "execution_id", executionID,
			"agent", r.Agent, "success", r.Success, "error_code", r.ErrorCode, "elapsed", r.Elapsed)
	}

	return results
}

// runAgent bounds one agent invocation with the per-agent timeout. Agents
// are expected to honor ctx, but a stuck agent only costs its goroutine: the
// stage barrier proceeds once the deadline passes.
func (e *Engine) runAgent(ctx context.Context, a core.Agent, sc *core.SharedContext) core.AgentResult {
	actx, cancel := context.WithTimeout(ctx, e.opts.AgentTimeout)
	defer cancel()

	done := make(chan core.AgentResult, 1)
	go func() {
		done <- a.Run(actx, sc)
	}()

	select {
	case r := <-done:
		return r
	case <-actx.Done():
		return core.NewAgentFailure(a.Name(), core.ErrCodeTimeout, actx.Err().Error())
	}
}

const consolidationPrompt = `Você recebeu respostas de múltiplos agentes especializados em planos de saúde corporativos.
Sua tarefa é consolidar essas informações em uma resposta única, coerente e completa.

Diretrizes:
1. Integre as informações de forma fluida, sem repetições
2. Mantenha o foco na pergunta original do usuário
3. Se houver informações conflitantes, indique claramente
4. Cite fontes quando disponíveis (cláusula, página)
5. Formate valores em Reais no padrão brasileiro: R$ 1.234.567,89
6. Use Markdown (negrito, listas, tabelas) quando melhorar a leitura`

// consolidate synthesizes the final answer from the accumulated results.
// With a single successful agent and no failures its output passes through
// unchanged; otherwise the model merges the outputs, with retries before
// the failure becomes fatal.
func (e *Engine) consolidate(ctx context.Context, sc *core.SharedContext, decision router.Decision) (string, error) {
	order := decision.Plan.Agents()
	successes := sc.SuccessfulResults(order...)

	var failed []string
	for _, name := range order {
		if r, ok := sc.Result(name); ok && !r.Success {
			failed = append(failed, fmt.Sprintf("%s (%s)", name, r.ErrorCode))
		}
	}

	if len(successes) == 1 && len(failed) == 0 {
		return successes[0].Output, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Pergunta original: %s\n", sc.Question)
	for _, r := range successes {
		fmt.Fprintf(&sb, "\n## Resposta do agente %s\n%s\n", r.Agent, r.Output)
	}
	if len(successes) == 0 {
		fmt.Fprintf(&sb, "\nNenhum agente retornou resultado: %s.\n", core.NoPriorContext)
	}
	if len(failed) > 0 {
		fmt.Fprintf(&sb, "\nObservação: os agentes %s falharam. Responda com o que está disponível e deixe claro que a análise pode estar incompleta.\n",
			strings.Join(failed, ", "))
	}
	sb.WriteString("\nConsolide as respostas acima em uma única resposta à pergunta original.")

	req := model.Request{
		Instructions: consolidationPrompt,
		Messages:     []model.Message{model.UserMessage(sb.String())},
	}

	var lastErr error
	attempts := e.opts.ConsolidationRetries + 1
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		resp, err := e.model.Generate(ctx, req)
		if err == nil {
			return resp.Text, nil
		}
		lastErr = err
		e.opts.Logger.Warn("consolidation attempt failed",
			"execution_id", sc.ExecutionID, "attempt", i+1, "error", err)
	}
	return "", fmt.Errorf("consolidation failed after %d attempts: %w", attempts, lastErr)
}

// mergeSources unions the successful agents' citations, deduplicates them
// and keeps the most relevant ones.
func (e *Engine) mergeSources(sc *core.SharedContext, plan core.Plan) []core.Source {
	var all []core.Source
	for _, r := range sc.SuccessfulResults(plan.Agents()...) {
		all = append(all, r.Sources...)
	}
	return core.TopSources(all, e.opts.SourceCap)
}

// trimCurrentQuestion drops the just-persisted user turn from the
// re-hydrated window so agents do not see the question twice.
func trimCurrentQuestion(turns []core.Turn, question string) []core.Turn {
	if n := len(turns); n > 0 && turns[n-1].Role == core.RoleUser && turns[n-1].Content == question {
		return turns[:n-1]
	}
	return turns
}
