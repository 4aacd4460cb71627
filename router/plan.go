package router

import "github.com/hupe1980/costpilot/core"

// PlanFor resolves an intent to its execution plan from the fixed catalogue.
// Unknown intents map to the general plan.
func PlanFor(intent core.Intent) core.Plan {
	switch intent {
	case core.IntentCostAnalysis:
		return core.Plan{
			Intent: intent,
			Stages: []core.Stage{{core.AgentCostInsights}},
		}
	case core.IntentNegotiation, core.IntentCostAndContract:
		// The cross-cutting plan: retrieval and cost analysis feed the
		// contract analyst, whose interpretation feeds the advisor.
		return core.Plan{
			Intent: intent,
			Stages: []core.Stage{
				{core.AgentRetrieval, core.AgentCostInsights},
				{core.AgentContractAnalyst},
				{core.AgentNegotiationAdvisor},
			},
		}
	case core.IntentContractQuery, core.IntentGeneral:
		return core.Plan{
			Intent: intent,
			Stages: []core.Stage{
				{core.AgentRetrieval},
				{core.AgentContractAnalyst},
			},
		}
	default:
		return core.Plan{
			Intent: core.IntentGeneral,
			Stages: []core.Stage{
				{core.AgentRetrieval},
				{core.AgentContractAnalyst},
			},
		}
	}
}

// withoutCostInsights strips the cost agent from a plan for clients without
// claim records, dropping stages left empty. A plan reduced to nothing takes
// the contract path instead, so the question still gets an answer grounded
// on the contract text.
func withoutCostInsights(p core.Plan) core.Plan {
	stages := make([]core.Stage, 0, len(p.Stages))
	for _, stage := range p.Stages {
		var kept core.Stage
		for _, name := range stage {
			if name != core.AgentCostInsights {
				kept = append(kept, name)
			}
		}
		if len(kept) > 0 {
			stages = append(stages, kept)
		}
	}

	if len(stages) == 0 {
		stages = PlanFor(core.IntentGeneral).Stages
	}

	return core.Plan{Intent: p.Intent, Stages: stages}
}
