package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
)

// EventType names what happened to a review session.
type EventType string

// Event types emitted by the session engine.
const (
	SessionStarted   EventType = "session.started"
	SessionRestarted EventType = "session.restarted"
	SessionCompleted EventType = "session.completed"
	ItemRevealed     EventType = "item.revealed"
	ItemSkipped      EventType = "item.skipped"
	ItemRated        EventType = "item.rated"
)

// SessionEvent describes a review session right after a transition.
type SessionEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// SessionID identifies the session that changed
	SessionID uuid.UUID `json:"session_id"`

	Type EventType `json:"type"`

	// Index and Total give the cursor position within the session.
	Index int `json:"index"`
	Total int `json:"total"`

	// ItemID is the item now presented; nil once the session is completed.
	ItemID *uuid.UUID `json:"item_id,omitempty"`

	Revealed  bool `json:"revealed"`
	Completed bool `json:"completed"`

	// Rating is set on ItemRated events and on the SessionCompleted event
	// that a final rating produces.
	Rating *domain.Rating `json:"rating,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionEvent creates an event of the given type for sessionID.
func NewSessionEvent(sessionID uuid.UUID, eventType EventType, at time.Time) *SessionEvent {
	return &SessionEvent{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      eventType,
		CreatedAt: at.UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *SessionEvent) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *SessionEvent) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *SessionEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the session engine to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *SessionEvent) error
}
