package core

import (
	"context"
	"errors"
	"time"
)

// ErrConversationNotFound is returned by stores when a conversation id does
// not exist for the given client.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrTurnNotFound is returned by stores when a sequence number does not
// exist within a conversation.
var ErrTurnNotFound = errors.New("turn not found")

// Role identifies the author side of a turn.
type Role string

const (
	// RoleUser marks a turn written by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the engine.
	RoleAssistant Role = "assistant"
)

// TurnMetadata records how an assistant turn was produced, for auditability.
type TurnMetadata struct {
	ExecutionID string   `json:"execution_id,omitempty"`
	Intent      string   `json:"intent,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
	Reasoning   string   `json:"reasoning,omitempty"`
	Agents      []string `json:"agents,omitempty"`
	Sources     []Source `json:"sources,omitempty"`
}

// Turn is one message within a conversation. Seq is assigned by the
// Conversation Manager, strictly increasing and gap-free under normal
// appends; Deleted turns keep their Seq so later turns never renumber.
// A Turn is immutable once written except for the Deleted mark.
type Turn struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Seq       int           `json:"seq"`
	Deleted   bool          `json:"deleted,omitempty"`
	Metadata  *TurnMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Conversation is a durable, ordered, client-scoped log of turns. It is
// created on first message, mutated only by appending turns, and removed only
// by explicit administrative action (Archived soft delete or permanent).
type Conversation struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	ContractID string    `json:"contract_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Turns      []Turn    `json:"turns"`
	Archived   bool      `json:"archived,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LastSeq returns the highest sequence number present, 0 for an empty log.
// Deleted turns count: their numbers are never reused.
func (c *Conversation) LastSeq() int {
	max := 0
	for _, t := range c.Turns {
		if t.Seq > max {
			max = t.Seq
		}
	}
	return max
}

// ActiveTurns returns the non-deleted turns in sequence order.
func (c *Conversation) ActiveTurns() []Turn {
	out := make([]Turn, 0, len(c.Turns))
	for _, t := range c.Turns {
		if !t.Deleted {
			out = append(out, t)
		}
	}
	return out
}

// ConversationStore persists conversations and their turn logs. Stores do not
// serialize concurrent appends; that is the Conversation Manager's job.
// Conversations are partitioned by client id.
type ConversationStore interface {
	Create(ctx context.Context, clientID, contractID string) (*Conversation, error)
	Get(ctx context.Context, clientID, conversationID string) (*Conversation, error)
	AppendTurn(ctx context.Context, clientID, conversationID string, t Turn) error
	RecentTurns(ctx context.Context, clientID, conversationID string, limit int) ([]Turn, error)
	MarkTurnDeleted(ctx context.Context, clientID, conversationID string, seq int) error
	Archive(ctx context.Context, clientID, conversationID string) error
}
