package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/logging"
)

// Options configures the manager.
type Options struct {
	// Logger receives persistence diagnostics.
	Logger logging.Logger
}

// Manager owns the write path to a ConversationStore. It holds one mutex per
// conversation id so concurrent appends to the same conversation are
// serialized while different conversations proceed independently.
type Manager struct {
	store core.ConversationStore
	opts  Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a manager over the given store.
func NewManager(store core.ConversationStore, optFns ...func(o *Options)) *Manager {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Manager{
		store: store,
		opts:  opts,
		locks: make(map[string]*sync.Mutex),
	}
}

// convLock returns the mutex owning writes to one conversation.
func (m *Manager) convLock(conversationID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[conversationID] = l
	}
	return l
}

// Append writes a turn, creating the conversation when conversationID is
// empty, and returns the conversation id. The turn's sequence number is
// assigned here, under the conversation's write lock: one past the highest
// number ever used, so deleted turns never free their numbers.
func (m *Manager) Append(ctx context.Context, conversationID, clientID, contractID string, t core.Turn) (string, error) {
	if conversationID == "" {
		conv, err := m.store.Create(ctx, clientID, contractID)
		if err != nil {
			return "", fmt.Errorf("create conversation: %w", err)
		}
		conversationID = conv.ID
		m.opts.Logger.Debug("conversation created", "conversation_id", conversationID, "client_id", clientID)
	}

	lock := m.convLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conv, err := m.store.Get(ctx, clientID, conversationID)
	if err != nil {
		return "", fmt.Errorf("load conversation %s: %w", conversationID, err)
	}

	if t.ID == "" {
		t.ID = core.NewID()
	}
	t.Seq = conv.LastSeq() + 1
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	if err := m.store.AppendTurn(ctx, clientID, conversationID, t); err != nil {
		return "", fmt.Errorf("append turn %d to %s: %w", t.Seq, conversationID, err)
	}

	return conversationID, nil
}

// LoadRecent returns the last limit non-deleted turns in sequence order.
func (m *Manager) LoadRecent(ctx context.Context, clientID, conversationID string, limit int) ([]core.Turn, error) {
	turns, err := m.store.RecentTurns(ctx, clientID, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent turns of %s: %w", conversationID, err)
	}
	return turns, nil
}

// Get returns the full conversation.
func (m *Manager) Get(ctx context.Context, clientID, conversationID string) (*core.Conversation, error) {
	return m.store.Get(ctx, clientID, conversationID)
}

// DeleteTurn marks one turn deleted. Remaining turns keep their sequence
// numbers; the gap is permanent.
func (m *Manager) DeleteTurn(ctx context.Context, clientID, conversationID string, seq int) error {
	lock := m.convLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.MarkTurnDeleted(ctx, clientID, conversationID, seq); err != nil {
		return fmt.Errorf("delete turn %d of %s: %w", seq, conversationID, err)
	}

	m.opts.Logger.Info("turn deleted", "conversation_id", conversationID, "seq", seq)
	return nil
}

// Archive soft-deletes a whole conversation.
func (m *Manager) Archive(ctx context.Context, clientID, conversationID string) error {
	if err := m.store.Archive(ctx, clientID, conversationID); err != nil {
		return fmt.Errorf("archive conversation %s: %w", conversationID, err)
	}
	return nil
}
