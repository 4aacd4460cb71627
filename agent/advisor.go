package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/logging"
	"github.com/hupe1980/costpilot/model"
)

// NegotiationAdvisor produces prioritized, impact-estimated renegotiation
// suggestions by crossing the contract interpretation with the cost
// analysis. It refuses to run when neither input is present: without any
// grounding it would only fabricate recommendations.
type NegotiationAdvisor struct {
	BaseAgent
}

var _ core.Agent = (*NegotiationAdvisor)(nil)

// NewNegotiationAdvisor creates the recommendation agent.
func NewNegotiationAdvisor(m model.Model, optFns ...func(o *Options)) *NegotiationAdvisor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &NegotiationAdvisor{
		BaseAgent: newBaseAgent(core.AgentNegotiationAdvisor, m, negotiationAdvisorPrompt, opts),
	}
}

// Run builds recommendations from whichever upstream outputs succeeded.
func (a *NegotiationAdvisor) Run(ctx context.Context, sc *core.SharedContext) core.AgentResult {
	start := time.Now()

	analysis, hasAnalysis := sc.Result(core.AgentContractAnalyst)
	costs, hasCosts := sc.Result(core.AgentCostInsights)
	hasAnalysis = hasAnalysis && analysis.Success
	hasCosts = hasCosts && costs.Success

	if !hasAnalysis && !hasCosts {
		return a.fail(start, core.ErrCodeNoInput,
			"neither contract interpretation nor cost analysis output is available")
	}

	// Failed inputs surface as the explicit marker so the model knows which
	// side of the picture is missing.
	prompt := fmt.Sprintf("Pergunta do gestor: %s\n\nAnálise do contrato:\n%s\n\nAnálise de custos:\n%s\n\nCom base nas análises acima, gere recomendações de renegociação priorizadas com estimativa de economia.",
		sc.Question,
		sc.PriorOutput(core.AgentContractAnalyst),
		sc.PriorOutput(core.AgentCostInsights))

	out, err := a.generate(ctx, sc, model.UserMessage(prompt))
	if err != nil {
		return a.failErr(start, err)
	}

	var sources []core.Source
	if hasAnalysis {
		sources = analysis.Sources
	}

	return a.succeed(start, out, sources)
}
