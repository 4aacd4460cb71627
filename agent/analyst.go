package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/logging"
	"github.com/hupe1980/costpilot/model"
)

// ContractAnalyst turns retrieved contract excerpts into a plain-language
// interpretation with clause and page citations. It consumes the retrieval
// agent's output through the shared-context accumulator; when retrieval
// failed it still answers, stating that the contract text is unavailable.
type ContractAnalyst struct {
	BaseAgent
}

var _ core.Agent = (*ContractAnalyst)(nil)

// NewContractAnalyst creates the contract interpretation agent.
func NewContractAnalyst(m model.Model, optFns ...func(o *Options)) *ContractAnalyst {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &ContractAnalyst{
		BaseAgent: newBaseAgent(core.AgentContractAnalyst, m, contractAnalystPrompt, opts),
	}
}

// Run interprets the retrieved passages in the light of the question.
func (a *ContractAnalyst) Run(ctx context.Context, sc *core.SharedContext) core.AgentResult {
	start := time.Now()

	passages := sc.PriorOutput(core.AgentRetrieval)

	// Citations travel with the interpretation so the final answer can
	// reference the exact clauses the analysis is based on.
	var sources []core.Source
	if r, ok := sc.Result(core.AgentRetrieval); ok && r.Success {
		sources = r.Sources
	}

	prompt := fmt.Sprintf("Pergunta do gestor: %s\n\nTrechos do contrato:\n%s\n\nInterprete os trechos acima e responda à pergunta citando cláusula e página.",
		sc.Question, passages)

	out, err := a.generate(ctx, sc, model.UserMessage(prompt))
	if err != nil {
		return a.failErr(start, err)
	}

	return a.succeed(start, out, sources)
}
