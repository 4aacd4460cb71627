package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedContext_AccumulatorRoundTrip(t *testing.T) {
	sc := NewSharedContext("exec-1", "cliente-123", "Qual a carência?")

	_, ok := sc.Result(AgentRetrieval)
	assert.False(t, ok)

	sc.SetResult(NewAgentResult(AgentRetrieval, "trechos do contrato", nil))

	r, ok := sc.Result(AgentRetrieval)
	require.True(t, ok)
	assert.True(t, r.Success)
	assert.Equal(t, "trechos do contrato", r.Output)
}

func TestSharedContext_PriorOutputMarker(t *testing.T) {
	sc := NewSharedContext("exec-1", "cliente-123", "pergunta")

	// Never ran.
	assert.Equal(t, NoPriorContext, sc.PriorOutput(AgentCostInsights))

	// Ran and failed.
	sc.SetResult(NewAgentFailure(AgentCostInsights, ErrCodeTimeout, "deadline exceeded"))
	assert.Equal(t, NoPriorContext, sc.PriorOutput(AgentCostInsights))

	// Ran and succeeded.
	sc.SetResult(NewAgentResult(AgentCostInsights, "gastos totais R$ 10.000", nil))
	assert.Equal(t, "gastos totais R$ 10.000", sc.PriorOutput(AgentCostInsights))
}

func TestSharedContext_SuccessfulResultsOrdered(t *testing.T) {
	sc := NewSharedContext("exec-1", "cliente-123", "pergunta")
	sc.SetResult(NewAgentResult(AgentCostInsights, "custos", nil))
	sc.SetResult(NewAgentFailure(AgentRetrieval, ErrCodeToolUnavailable, "search down"))
	sc.SetResult(NewAgentResult(AgentContractAnalyst, "análise", nil))

	out := sc.SuccessfulResults(AgentRetrieval, AgentCostInsights, AgentContractAnalyst)
	require.Len(t, out, 2)
	assert.Equal(t, AgentCostInsights, out[0].Agent)
	assert.Equal(t, AgentContractAnalyst, out[1].Agent)
}

func TestSharedContext_ConcurrentReadsDuringWrite(t *testing.T) {
	sc := NewSharedContext("exec-1", "cliente-123", "pergunta")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sc.SetResult(NewAgentResult(AgentRetrieval, "out", nil))
			_ = sc.PriorOutput(AgentRetrieval)
			_ = sc.Results()
		}()
	}
	wg.Wait()

	r, ok := sc.Result(AgentRetrieval)
	require.True(t, ok)
	assert.True(t, r.Success)
}
