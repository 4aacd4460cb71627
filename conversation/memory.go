package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/costpilot/core"
)

// MemoryStore is an in-memory ConversationStore for tests and single-process
// deployments. Conversations are partitioned by client id, mirroring the
// durable layout.
type MemoryStore struct {
	mu      sync.RWMutex
	clients map[string]map[string]*core.Conversation
}

var _ core.ConversationStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clients: make(map[string]map[string]*core.Conversation)}
}

// Create implements core.ConversationStore.
func (s *MemoryStore) Create(_ context.Context, clientID, contractID string) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv := &core.Conversation{
		ID:         core.NewID(),
		ClientID:   clientID,
		ContractID: contractID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if s.clients[clientID] == nil {
		s.clients[clientID] = make(map[string]*core.Conversation)
	}
	s.clients[clientID][conv.ID] = conv

	out := *conv
	return &out, nil
}

func (s *MemoryStore) lookup(clientID, conversationID string) (*core.Conversation, error) {
	conv, ok := s.clients[clientID][conversationID]
	if !ok {
		return nil, core.ErrConversationNotFound
	}
	return conv, nil
}

// Get implements core.ConversationStore. The returned conversation is a
// deep copy; callers never see later mutations.
func (s *MemoryStore) Get(_ context.Context, clientID, conversationID string) (*core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, err := s.lookup(clientID, conversationID)
	if err != nil {
		return nil, err
	}

	out := *conv
	out.Turns = make([]core.Turn, len(conv.Turns))
	copy(out.Turns, conv.Turns)
	return &out, nil
}

// AppendTurn implements core.ConversationStore.
func (s *MemoryStore) AppendTurn(_ context.Context, clientID, conversationID string, t core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.lookup(clientID, conversationID)
	if err != nil {
		return err
	}

	conv.Turns = append(conv.Turns, t)
	conv.UpdatedAt = time.Now().UTC()
	return nil
}

// RecentTurns implements core.ConversationStore.
func (s *MemoryStore) RecentTurns(_ context.Context, clientID, conversationID string, limit int) ([]core.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, err := s.lookup(clientID, conversationID)
	if err != nil {
		return nil, err
	}

	active := conv.ActiveTurns()
	if limit > 0 && len(active) > limit {
		active = active[len(active)-limit:]
	}
	return active, nil
}

// MarkTurnDeleted implements core.ConversationStore.
func (s *MemoryStore) MarkTurnDeleted(_ context.Context, clientID, conversationID string, seq int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.lookup(clientID, conversationID)
	if err != nil {
		return err
	}

	for i := range conv.Turns {
		if conv.Turns[i].Seq == seq {
			conv.Turns[i].Deleted = true
			conv.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return core.ErrTurnNotFound
}

// ConversationIDs lists the ids stored for one client, for inspection in
// tests and admin tooling.
func (s *MemoryStore) ConversationIDs(clientID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.clients[clientID]))
	for id := range s.clients[clientID] {
		ids = append(ids, id)
	}
	return ids
}

// Archive implements core.ConversationStore.
func (s *MemoryStore) Archive(_ context.Context, clientID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.lookup(clientID, conversationID)
	if err != nil {
		return err
	}

	conv.Archived = true
	conv.UpdatedAt = time.Now().UTC()
	return nil
}
