package events

import (
	"context"
	"log/slog"
	"sync"
)

// LogHandler writes every event to a structured logger at debug level,
// and session completions at info level.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger.With("component", "session_event_log")}
}

// HandleEvent implements EventHandler.
func (h *LogHandler) HandleEvent(ctx context.Context, event *SessionEvent) error {
	level := slog.LevelDebug
	if event.Type == SessionCompleted {
		level = slog.LevelInfo
	}
	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("session_id", event.SessionID.String()),
		slog.String("event_type", string(event.Type)),
		slog.Int("index", event.Index),
		slog.Int("total", event.Total),
	}
	if event.ItemID != nil {
		attrs = append(attrs, slog.String("item_id", event.ItemID.String()))
	}
	if event.Rating != nil {
		attrs = append(attrs, slog.String("rating", event.Rating.String()))
	}
	h.logger.LogAttrs(ctx, level, "review session event", attrs...)
	return nil
}

// Recorder keeps every event it receives. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []SessionEvent
}

// HandleEvent implements EventHandler.
func (r *Recorder) HandleEvent(_ context.Context, event *SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SessionEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in arrival order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
