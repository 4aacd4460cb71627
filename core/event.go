package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType discriminates the three kinds of execution events. A run emits
// zero or more status events followed by exactly one terminal event
// (complete or error).
type EventType string

const (
	// EventStatus reports progress of an in-flight execution.
	EventStatus EventType = "status"
	// EventComplete carries the final answer, merged sources and the
	// conversation the turn was appended to. Always the last event on success.
	EventComplete EventType = "complete"
	// EventError signals fatal failure of the execution. Always the last
	// event on failure.
	EventError EventType = "error"
)

// StatusPayload describes one progress notification. Agent is empty for
// engine-level steps (routing, consolidation).
type StatusPayload struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Agent   string `json:"agent,omitempty"`
}

// CompletePayload is the terminal success payload. PersistenceWarning is set
// when the assistant turn could not be written after a successful answer;
// the answer is still delivered in that case.
type CompletePayload struct {
	Response           string   `json:"response"`
	Sources            []Source `json:"sources"`
	ConversationID     string   `json:"conversation_id"`
	PersistenceWarning bool     `json:"persistence_warning,omitempty"`
}

// ErrorPayload is the terminal failure payload.
type ErrorPayload struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// Event is one unit of streamed progress or the terminal outcome of an
// engine run. After emission it must be treated as immutable. Exactly one of
// Status, Complete or Error is non-nil, matching Type.
type Event struct {
	ID          string           `json:"id"`
	ExecutionID string           `json:"execution_id"`
	Type        EventType        `json:"event"`
	Timestamp   time.Time        `json:"timestamp"`
	Status      *StatusPayload   `json:"status,omitempty"`
	Complete    *CompletePayload `json:"complete,omitempty"`
	Error       *ErrorPayload    `json:"error,omitempty"`
}

// NewStatusEvent constructs a progress event for the given step. Agent may be
// empty for steps not attributable to a single agent.
func NewStatusEvent(executionID, step, message, agent string) Event {
	return Event{
		ID:          NewID(),
		ExecutionID: executionID,
		Type:        EventStatus,
		Timestamp:   time.Now().UTC(),
		Status:      &StatusPayload{Step: step, Message: message, Agent: agent},
	}
}

// NewCompleteEvent constructs the terminal success event.
func NewCompleteEvent(executionID, response string, sources []Source, conversationID string) Event {
	if sources == nil {
		sources = []Source{}
	}
	return Event{
		ID:          NewID(),
		ExecutionID: executionID,
		Type:        EventComplete,
		Timestamp:   time.Now().UTC(),
		Complete: &CompletePayload{
			Response:       response,
			Sources:        sources,
			ConversationID: conversationID,
		},
	}
}

// NewErrorEvent constructs the terminal failure event.
func NewErrorEvent(executionID, code, message string) Event {
	return Event{
		ID:          NewID(),
		ExecutionID: executionID,
		Type:        EventError,
		Timestamp:   time.Now().UTC(),
		Error:       &ErrorPayload{Code: code, Message: message},
	}
}

// IsTerminal reports whether this event ends the execution's event sequence.
func (e Event) IsTerminal() bool { return e.Type == EventComplete || e.Type == EventError }

// NewID generates a new unique identifier for events, executions and turns.
func NewID() string { return uuid.NewString() }
