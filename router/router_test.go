package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/model"
)

func routeQuestion(t *testing.T, r *Router, question string) Decision {
	t.Helper()
	sc := core.NewSharedContext("exec-1", "client-1", question)
	return r.Route(context.Background(), sc)
}

func TestRouteContractQuestion(t *testing.T) {
	r := New(nil)

	d := routeQuestion(t, r, "Qual o valor da coparticipação para consultas?")

	assert.Equal(t, core.IntentContractQuery, d.Intent)
	assert.GreaterOrEqual(t, d.Confidence, 0.6)
	require.Len(t, d.Plan.Stages, 2)
	assert.Equal(t, core.Stage{core.AgentRetrieval}, d.Plan.Stages[0])
	assert.Equal(t, core.Stage{core.AgentContractAnalyst}, d.Plan.Stages[1])
	assert.False(t, d.Plan.Contains(core.AgentCostInsights))
}

func TestRouteCostQuestion(t *testing.T) {
	r := New(nil)

	d := routeQuestion(t, r, "Qual foi o total gasto com internações no último mês?")

	assert.Equal(t, core.IntentCostAnalysis, d.Intent)
	require.Len(t, d.Plan.Stages, 1)
	assert.Equal(t, core.Stage{core.AgentCostInsights}, d.Plan.Stages[0])
	assert.False(t, d.Plan.Contains(core.AgentRetrieval))
}

func TestRouteNegotiationQuestion(t *testing.T) {
	r := New(nil)

	d := routeQuestion(t, r, "O que devo renegociar para economizar no plano?")

	assert.Equal(t, core.IntentNegotiation, d.Intent)
	require.Len(t, d.Plan.Stages, 3)
	assert.ElementsMatch(t, core.Stage{core.AgentRetrieval, core.AgentCostInsights}, d.Plan.Stages[0])
	assert.Equal(t, core.Stage{core.AgentContractAnalyst}, d.Plan.Stages[1])
	assert.Equal(t, core.Stage{core.AgentNegotiationAdvisor}, d.Plan.Stages[2])
	assert.Len(t, d.Plan.Agents(), 4)
}

func TestRouteWithoutCostDataDegradesCostPlan(t *testing.T) {
	r := New(nil)

	sc := core.NewSharedContext("exec-1", "client-1", "Qual foi o total gasto com internações no último mês?")
	sc.HasCostData = false

	d := r.Route(context.Background(), sc)

	// The classification stands, the plan falls back to the contract path.
	assert.Equal(t, core.IntentCostAnalysis, d.Intent)
	assert.False(t, d.Plan.Contains(core.AgentCostInsights))
	require.Len(t, d.Plan.Stages, 2)
	assert.Equal(t, core.Stage{core.AgentRetrieval}, d.Plan.Stages[0])
	assert.Equal(t, core.Stage{core.AgentContractAnalyst}, d.Plan.Stages[1])
}

func TestRouteWithoutCostDataKeepsOtherAgents(t *testing.T) {
	r := New(nil)

	sc := core.NewSharedContext("exec-1", "client-1", "O que devo renegociar para economizar no plano?")
	sc.HasCostData = false

	d := r.Route(context.Background(), sc)

	assert.Equal(t, core.IntentNegotiation, d.Intent)
	assert.False(t, d.Plan.Contains(core.AgentCostInsights))
	require.Len(t, d.Plan.Stages, 3)
	assert.Equal(t, core.Stage{core.AgentRetrieval}, d.Plan.Stages[0])
	assert.Equal(t, core.Stage{core.AgentContractAnalyst}, d.Plan.Stages[1])
	assert.Equal(t, core.Stage{core.AgentNegotiationAdvisor}, d.Plan.Stages[2])
}

func TestRouteSupersetTieBreak(t *testing.T) {
	r := New(nil)

	// One contract keyword and one cost keyword tie at the top score.
	d := routeQuestion(t, r, "A cobertura atual explica a sinistralidade?")

	assert.Equal(t, core.IntentCostAndContract, d.Intent)
	assert.Len(t, d.Plan.Agents(), 4)
}

func TestRouteAmbiguousUsesClassifier(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.AddResponse("Pergunta", `{"intent": "cost_analysis", "confidence": 0.8, "reasoning": "fala de valores"}`)

	r := New(m)

	d := routeQuestion(t, r, "Me ajuda a entender os números?")

	assert.Equal(t, core.IntentCostAnalysis, d.Intent)
	assert.Equal(t, 0.8, d.Confidence)
	assert.Equal(t, "fala de valores", d.Reasoning)
}

func TestRouteClassifierGarbageFallsBack(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.AddResponse("Pergunta", "não sei classificar isso")

	r := New(m)

	d := routeQuestion(t, r, "Me ajuda?")

	assert.Equal(t, core.IntentGeneral, d.Intent)
	require.Len(t, d.Plan.Stages, 2)
}

func TestRouteClassifierErrorFallsBack(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.SetError(errors.New("model unreachable"))

	r := New(m)

	d := routeQuestion(t, r, "Me ajuda?")

	assert.Equal(t, core.IntentGeneral, d.Intent)
	assert.Equal(t, 0.3, d.Confidence)
}

func TestRouteUnknownClassifierIntent(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.AddResponse("Pergunta", `{"intent": "chitchat", "confidence": 0.9}`)

	r := New(m)

	d := routeQuestion(t, r, "Tudo bem?")

	assert.Equal(t, core.IntentGeneral, d.Intent)
}

func TestRouteDeterminism(t *testing.T) {
	r := New(nil)
	question := "A cobertura atual explica a sinistralidade e a economia possível?"

	first := routeQuestion(t, r, question)
	for i := 0; i < 20; i++ {
		d := routeQuestion(t, r, question)
		assert.Equal(t, first.Intent, d.Intent)
		assert.Equal(t, first.Plan, d.Plan)
	}
}

func TestPlanForUnknownIntent(t *testing.T) {
	p := PlanFor("whatever")

	assert.Equal(t, core.IntentGeneral, p.Intent)
	require.NoError(t, p.Validate())
}
