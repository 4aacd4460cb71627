package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlan_Validate(t *testing.T) {
	valid := Plan{
		Intent: IntentNegotiation,
		Stages: []Stage{
			{AgentRetrieval, AgentCostInsights},
			{AgentContractAnalyst},
			{AgentNegotiationAdvisor},
		},
	}
	assert.NoError(t, valid.Validate())

	duplicate := Plan{
		Intent: IntentGeneral,
		Stages: []Stage{{AgentRetrieval}, {AgentRetrieval}},
	}
	assert.Error(t, duplicate.Validate())

	empty := Plan{Intent: IntentGeneral}
	assert.Error(t, empty.Validate())

	emptyStage := Plan{Intent: IntentGeneral, Stages: []Stage{{}}}
	assert.Error(t, emptyStage.Validate())
}

func TestPlan_AgentsAndContains(t *testing.T) {
	p := Plan{
		Intent: IntentContractQuery,
		Stages: []Stage{{AgentRetrieval}, {AgentContractAnalyst}},
	}

	assert.Equal(t, []string{AgentRetrieval, AgentContractAnalyst}, p.Agents())
	assert.True(t, p.Contains(AgentContractAnalyst))
	assert.False(t, p.Contains(AgentCostInsights))
}

func TestEvent_Terminal(t *testing.T) {
	status := NewStatusEvent("exec-1", "searching", "Buscando no contrato", AgentRetrieval)
	assert.False(t, status.IsTerminal())
	assert.Equal(t, EventStatus, status.Type)
	assert.Equal(t, AgentRetrieval, status.Status.Agent)

	complete := NewCompleteEvent("exec-1", "resposta", nil, "conv-1")
	assert.True(t, complete.IsTerminal())
	assert.NotNil(t, complete.Complete)
	assert.NotNil(t, complete.Complete.Sources)

	errEvent := NewErrorEvent("exec-1", ErrCodeConsolidationFailed, "llm unreachable")
	assert.True(t, errEvent.IsTerminal())
	assert.Equal(t, ErrCodeConsolidationFailed, errEvent.Error.Code)
}

func TestConversation_LastSeqAndActiveTurns(t *testing.T) {
	c := &Conversation{
		Turns: []Turn{
			{Seq: 1, Role: RoleUser, Content: "oi"},
			{Seq: 2, Role: RoleAssistant, Content: "olá", Deleted: true},
			{Seq: 3, Role: RoleUser, Content: "pergunta"},
		},
	}

	assert.Equal(t, 3, c.LastSeq())
	active := c.ActiveTurns()
	assert.Len(t, active, 2)
	assert.Equal(t, 1, active[0].Seq)
	assert.Equal(t, 3, active[1].Seq)
}
