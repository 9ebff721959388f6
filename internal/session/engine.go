// Package session runs review sessions: a fixed list of items presented one
// at a time, each revealed and then rated or skipped.
//
// An Engine holds the whole state of one session. It is not safe for
// concurrent use; callers that share an Engine must serialise access.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/domain/srs"
	"github.com/phrazzld/brainace/internal/events"
	"github.com/phrazzld/brainace/internal/platform/logger"
)

// ItemSource produces the items of a session. It is consulted once when the
// session starts and again on every Restart.
type ItemSource interface {
	Items(ctx context.Context) ([]domain.Item, error)
}

// ItemSourceFunc adapts a function to the ItemSource interface.
type ItemSourceFunc func(ctx context.Context) ([]domain.Item, error)

// Items implements ItemSource.
func (f ItemSourceFunc) Items(ctx context.Context) ([]domain.Item, error) {
	return f(ctx)
}

// CardWriter persists a rated card and returns the item as stored.
type CardWriter interface {
	SaveCard(ctx context.Context, item domain.Item, card domain.Card) (domain.Item, error)
}

// Dependencies are the collaborators of an Engine. Emitter and Logger are
// optional.
type Dependencies struct {
	Source   ItemSource
	Reviewer srs.Service
	Writer   CardWriter
	Clock    domain.Clock
	Emitter  events.EventEmitter
	Logger   *slog.Logger
}

// View is what the presentation layer shows for the current phase.
type View struct {
	SessionID uuid.UUID    `json:"session_id"`
	Index     int          `json:"index"`
	Total     int          `json:"total"`
	Item      *domain.Item `json:"item,omitempty"`
	Revealed  bool         `json:"revealed"`
	Completed bool         `json:"completed"`
}

// RatingCounts tallies the ratings given during a session.
type RatingCounts struct {
	Again int `json:"again"`
	Hard  int `json:"hard"`
	Good  int `json:"good"`
	Easy  int `json:"easy"`
}

// Summary tallies what happened in a session since it last (re)started.
type Summary struct {
	Reviewed int          `json:"reviewed"`
	Skipped  int          `json:"skipped"`
	Ratings  RatingCounts `json:"ratings"`
}

func (s *Summary) record(r domain.Rating) {
	s.Reviewed++
	switch r {
	case domain.RatingAgain:
		s.Ratings.Again++
	case domain.RatingHard:
		s.Ratings.Hard++
	case domain.RatingGood:
		s.Ratings.Good++
	case domain.RatingEasy:
		s.Ratings.Easy++
	}
}

// Engine is a review session state machine.
type Engine struct {
	id       uuid.UUID
	source   ItemSource
	reviewer srs.Service
	writer   CardWriter
	clock    domain.Clock
	emitter  events.EventEmitter
	logger   *slog.Logger

	items   []domain.Item
	cursor  int
	phase   Phase
	summary Summary
}

// NewEngine starts a session over the items produced by deps.Source.
// A session over no items starts Completed.
func NewEngine(ctx context.Context, deps Dependencies) (*Engine, error) {
	if deps.Source == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("item source cannot be nil")
	}
	if deps.Reviewer == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewer cannot be nil")
	}
	if deps.Writer == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("card writer cannot be nil")
	}
	if deps.Clock == nil {
		deps.Clock = domain.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	id := uuid.New()
	e := &Engine{
		id:       id,
		source:   deps.Source,
		reviewer: deps.Reviewer,
		writer:   deps.Writer,
		clock:    deps.Clock,
		emitter:  deps.Emitter,
		logger: deps.Logger.With(
			slog.String("component", "review_session"),
			slog.String("session_id", id.String()),
		),
	}

	items, err := e.loadItems(ctx)
	if err != nil {
		return nil, err
	}
	e.reset(items)

	logger.FromContextOrDefault(ctx, e.logger).Debug("review session started",
		slog.String("session_id", id.String()),
		slog.Int("total", len(items)))
	e.emit(ctx, events.SessionStarted, nil)

	return e, nil
}

// ID identifies the session.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Progress returns the cursor and the number of items in the session. Once
// completed, the cursor equals the total.
func (e *Engine) Progress() (int, int) {
	return e.cursor, len(e.items)
}

// Summary returns the tally since the session last started.
func (e *Engine) Summary() Summary {
	return e.summary
}

// View describes the current phase for presentation.
func (e *Engine) View() View {
	v := View{
		SessionID: e.id,
		Index:     e.cursor,
		Total:     len(e.items),
		Revealed:  e.phase == PhaseRevealed,
		Completed: e.phase == PhaseCompleted,
	}
	if e.phase != PhaseCompleted {
		it := e.items[e.cursor]
		it.Card = it.Card.Clone()
		v.Item = &it
	}
	return v
}

// Apply performs a transition and returns the resulting view. On any error
// the session is unchanged.
func (e *Engine) Apply(ctx context.Context, t Transition) (View, error) {
	switch tr := t.(type) {
	case Reveal:
		if e.phase != PhaseHidden {
			return e.View(), e.invalid(t)
		}
		e.phase = PhaseRevealed
		e.emit(ctx, events.ItemRevealed, nil)

	case Skip:
		if e.phase != PhaseHidden {
			return e.View(), e.invalid(t)
		}
		e.summary.Skipped++
		e.advance()
		e.emit(ctx, e.advanceEvent(events.ItemSkipped), nil)

	case Rate:
		if e.phase != PhaseRevealed {
			return e.View(), e.invalid(t)
		}
		if err := e.rate(ctx, tr.Rating); err != nil {
			return e.View(), err
		}
		rating := tr.Rating
		e.emit(ctx, e.advanceEvent(events.ItemRated), &rating)

	case Restart:
		items, err := e.loadItems(ctx)
		if err != nil {
			return e.View(), err
		}
		e.reset(items)
		e.emit(ctx, events.SessionRestarted, nil)

	default:
		return e.View(), e.invalid(t)
	}

	return e.View(), nil
}

func (e *Engine) rate(ctx context.Context, rating domain.Rating) error {
	log := logger.FromContextOrDefault(ctx, e.logger)
	if !rating.IsValid() {
		return fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}

	item := e.items[e.cursor]
	now := e.clock.Now()

	card, err := e.reviewer.Review(item.Card, rating, now)
	if err != nil {
		log.Error("failed to schedule card",
			slog.String("item_id", item.ID.String()),
			slog.String("rating", rating.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrCollaboratorFailed, err)
	}

	saved, err := e.writer.SaveCard(ctx, item, card)
	if err != nil {
		log.Error("failed to save rated card",
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrCollaboratorFailed, err)
	}

	log.Debug("item rated",
		slog.String("item_id", item.ID.String()),
		slog.String("rating", rating.String()),
		slog.Time("due", saved.Card.Due))

	e.items[e.cursor] = saved
	e.summary.record(rating)
	e.advance()
	return nil
}

func (e *Engine) loadItems(ctx context.Context) ([]domain.Item, error) {
	items, err := e.source.Items(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, e.logger).Error("failed to load session items",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrCollaboratorFailed, err)
	}
	// The session owns its copy; later changes at the source do not leak in.
	out := make([]domain.Item, len(items))
	for i, it := range items {
		it.Card = it.Card.Clone()
		out[i] = it
	}
	return out, nil
}

func (e *Engine) reset(items []domain.Item) {
	e.items = items
	e.cursor = 0
	e.summary = Summary{}
	e.phase = PhaseHidden
	if len(items) == 0 {
		e.phase = PhaseCompleted
	}
}

func (e *Engine) advance() {
	e.cursor++
	e.phase = PhaseHidden
	if e.cursor >= len(e.items) {
		e.cursor = len(e.items)
		e.phase = PhaseCompleted
	}
}

func (e *Engine) advanceEvent(t events.EventType) events.EventType {
	if e.phase == PhaseCompleted {
		return events.SessionCompleted
	}
	return t
}

func (e *Engine) invalid(t Transition) error {
	return &TransitionError{From: e.phase, Transition: t}
}

func (e *Engine) emit(ctx context.Context, t events.EventType, rating *domain.Rating) {
	if e.emitter == nil {
		return
	}
	v := e.View()
	ev := events.NewSessionEvent(e.id, t, e.clock.Now())
	ev.Index, ev.Total = v.Index, v.Total
	ev.Revealed, ev.Completed = v.Revealed, v.Completed
	ev.Rating = rating
	if v.Item != nil {
		id := v.Item.ID
		ev.ItemID = &id
	}
	if err := e.emitter.EmitEvent(ctx, ev); err != nil {
		logger.FromContextOrDefault(ctx, e.logger).Warn("failed to emit session event",
			slog.String("event_type", string(t)),
			slog.String("error", err.Error()))
	}
}
