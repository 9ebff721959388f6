package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/domain/srs"
	"github.com/phrazzld/brainace/internal/due"
	"github.com/phrazzld/brainace/internal/events"
	"github.com/phrazzld/brainace/internal/hierarchy"
	"github.com/phrazzld/brainace/internal/platform/logger"
	"github.com/phrazzld/brainace/internal/session"
	"github.com/phrazzld/brainace/internal/store"
)

// ReviewService starts review sessions.
type ReviewService interface {
	// StartSession begins a session over the items of tree selected by
	// filter. Ratings are written to storage and then into tree. A restart
	// reads the collection from storage again and selects from that.
	StartSession(ctx context.Context, tree *hierarchy.Tree, filter due.Filter) (*session.Engine, error)
}

type reviewServiceImpl struct {
	collections store.CollectionStore
	items       store.ItemStore
	reviewer    srs.Service
	clock       domain.Clock
	emitter     events.EventEmitter
	logger      *slog.Logger
}

// NewReviewService creates a new ReviewService.
// The emitter may be nil. A nil clock means the system clock and a nil
// logger means slog.Default().
func NewReviewService(
	collections store.CollectionStore,
	items store.ItemStore,
	reviewer srs.Service,
	clock domain.Clock,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (ReviewService, error) {
	if collections == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "collection store cannot be nil"}
	}
	if items == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "item store cannot be nil"}
	}
	if reviewer == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "reviewer cannot be nil"}
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &reviewServiceImpl{
		collections: collections,
		items:       items,
		reviewer:    reviewer,
		clock:       clock,
		emitter:     emitter,
		logger:      logger.With(slog.String("component", "review_service")),
	}, nil
}

// StartSession implements ReviewService
func (s *reviewServiceImpl) StartSession(
	ctx context.Context,
	tree *hierarchy.Tree,
	filter due.Filter,
) (*session.Engine, error) {
	if tree == nil {
		return nil, ErrNilTree
	}
	if !filter.IsValid() {
		f, err := due.ParseFilter(string(filter))
		if err != nil {
			return nil, NewServiceError("start_session", "invalid filter", err)
		}
		filter = f
	}

	collectionID := tree.Collection().ID
	loaded := false
	source := session.ItemSourceFunc(func(ctx context.Context) ([]domain.Item, error) {
		if !loaded {
			loaded = true
			return filter.Apply(tree.AllItems(), s.clock.Now()), nil
		}
		current, err := s.reload(ctx, collectionID)
		if err != nil {
			return nil, err
		}
		return filter.Apply(current.AllItems(), s.clock.Now()), nil
	})

	engine, err := session.NewEngine(ctx, session.Dependencies{
		Source:   source,
		Reviewer: s.reviewer,
		Writer:   &cardWriter{items: s.items, tree: tree},
		Clock:    s.clock,
		Emitter:  s.emitter,
		Logger:   s.logger,
	})
	if err != nil {
		return nil, NewServiceError("start_session", "failed to start session", err)
	}

	_, total := engine.Progress()
	logger.FromContextOrDefault(ctx, s.logger).Info("review session started",
		slog.String("session_id", engine.ID().String()),
		slog.String("collection_id", tree.Collection().ID.String()),
		slog.String("filter", string(filter)),
		slog.Int("total", total))
	return engine, nil
}

// reload reads the collection as it is stored now, so a restarted session
// sees ratings and versions written by other sessions.
func (s *reviewServiceImpl) reload(ctx context.Context, collectionID uuid.UUID) (*hierarchy.Tree, error) {
	snap, err := s.collections.LoadSnapshot(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return hierarchy.Build(snap.Collection, snap.Sections, snap.SubSections, snap.Items)
}

// cardWriter persists a rated card with the item's version as the
// concurrency token and mirrors the stored result into the tree.
type cardWriter struct {
	items store.ItemStore
	tree  *hierarchy.Tree
}

// SaveCard implements session.CardWriter
func (w *cardWriter) SaveCard(ctx context.Context, item domain.Item, card domain.Card) (domain.Item, error) {
	version, err := w.items.UpdateCard(ctx, item.ID, card, item.Version)
	if err != nil {
		return domain.Item{}, err
	}
	item.Card = card.Clone()
	item.Version = version
	w.tree.ReplaceItem(item)
	return item, nil
}
