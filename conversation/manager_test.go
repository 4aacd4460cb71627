package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/costpilot/core"
)

func TestAppendCreatesConversation(t *testing.T) {
	m := NewManager(NewMemoryStore())

	id, err := m.Append(context.Background(), "", "client-1", "contract-1", core.Turn{
		Role:    core.RoleUser,
		Content: "Qual a carência para parto?",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	conv, err := m.Get(context.Background(), "client-1", id)
	require.NoError(t, err)
	assert.Equal(t, "contract-1", conv.ContractID)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, 1, conv.Turns[0].Seq)
	assert.NotEmpty(t, conv.Turns[0].ID)
}

func TestAppendSequenceIsGapFree(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	id, err := m.Append(ctx, "", "client-1", "", core.Turn{Role: core.RoleUser, Content: "primeira"})
	require.NoError(t, err)

	for i := 2; i <= 5; i++ {
		_, err := m.Append(ctx, id, "client-1", "", core.Turn{Role: core.RoleAssistant, Content: fmt.Sprintf("resposta %d", i)})
		require.NoError(t, err)
	}

	conv, err := m.Get(ctx, "client-1", id)
	require.NoError(t, err)
	require.Len(t, conv.Turns, 5)
	for i, turn := range conv.Turns {
		assert.Equal(t, i+1, turn.Seq)
	}
}

func TestConcurrentAppendsSameConversation(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	id, err := m.Append(ctx, "", "client-1", "", core.Turn{Role: core.RoleUser, Content: "início"})
	require.NoError(t, err)

	const writers = 32

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := m.Append(ctx, id, "client-1", "", core.Turn{
				Role:    core.RoleUser,
				Content: fmt.Sprintf("mensagem %d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	conv, err := m.Get(ctx, "client-1", id)
	require.NoError(t, err)
	require.Len(t, conv.Turns, writers+1)

	// Strictly increasing, no duplicates, no gaps.
	seen := make(map[int]bool)
	for _, turn := range conv.Turns {
		assert.False(t, seen[turn.Seq], "duplicate seq %d", turn.Seq)
		seen[turn.Seq] = true
	}
	assert.Equal(t, writers+1, conv.LastSeq())
}

func TestDeleteTurnPreservesNumbering(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	id, err := m.Append(ctx, "", "client-1", "", core.Turn{Role: core.RoleUser, Content: "um"})
	require.NoError(t, err)
	for _, content := range []string{"dois", "três", "quatro"} {
		_, err := m.Append(ctx, id, "client-1", "", core.Turn{Role: core.RoleAssistant, Content: content})
		require.NoError(t, err)
	}

	require.NoError(t, m.DeleteTurn(ctx, "client-1", id, 2))

	conv, err := m.Get(ctx, "client-1", id)
	require.NoError(t, err)

	active := conv.ActiveTurns()
	require.Len(t, active, 3)
	assert.Equal(t, []int{1, 3, 4}, []int{active[0].Seq, active[1].Seq, active[2].Seq})

	// Appends after a deletion continue past the gap, never refilling it.
	_, err = m.Append(ctx, id, "client-1", "", core.Turn{Role: core.RoleUser, Content: "cinco"})
	require.NoError(t, err)

	conv, err = m.Get(ctx, "client-1", id)
	require.NoError(t, err)
	assert.Equal(t, 5, conv.LastSeq())
}

func TestLoadRecentSkipsDeletedAndLimits(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	id, err := m.Append(ctx, "", "client-1", "", core.Turn{Role: core.RoleUser, Content: "t1"})
	require.NoError(t, err)
	for _, content := range []string{"t2", "t3", "t4", "t5"} {
		_, err := m.Append(ctx, id, "client-1", "", core.Turn{Role: core.RoleUser, Content: content})
		require.NoError(t, err)
	}
	require.NoError(t, m.DeleteTurn(ctx, "client-1", id, 4))

	turns, err := m.LoadRecent(ctx, "client-1", id, 3)
	require.NoError(t, err)

	require.Len(t, turns, 3)
	assert.Equal(t, []int{2, 3, 5}, []int{turns[0].Seq, turns[1].Seq, turns[2].Seq})
}

func TestAppendUnknownConversation(t *testing.T) {
	m := NewManager(NewMemoryStore())

	_, err := m.Append(context.Background(), "missing", "client-1", "", core.Turn{Role: core.RoleUser, Content: "oi"})
	require.ErrorIs(t, err, core.ErrConversationNotFound)
}

func TestArchive(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	id, err := m.Append(ctx, "", "client-1", "", core.Turn{Role: core.RoleUser, Content: "oi"})
	require.NoError(t, err)

	require.NoError(t, m.Archive(ctx, "client-1", id))

	conv, err := m.Get(ctx, "client-1", id)
	require.NoError(t, err)
	assert.True(t, conv.Archived)
}

func TestClientPartitionIsolation(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	id, err := m.Append(ctx, "", "client-1", "", core.Turn{Role: core.RoleUser, Content: "oi"})
	require.NoError(t, err)

	_, err = m.Get(ctx, "client-2", id)
	require.ErrorIs(t, err, core.ErrConversationNotFound)
}
