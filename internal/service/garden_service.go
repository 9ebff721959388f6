package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/due"
	"github.com/phrazzld/brainace/internal/hierarchy"
	"github.com/phrazzld/brainace/internal/platform/logger"
	"github.com/phrazzld/brainace/internal/store"
)

// GardenStores groups the storage interfaces a GardenService writes through.
type GardenStores struct {
	Collections store.CollectionStore
	Sections    store.SectionStore
	SubSections store.SubSectionStore
	Items       store.ItemStore
}

// Stats are the dashboard counts for one collection.
type Stats struct {
	Sections    int             `json:"sections"`
	SubSections int             `json:"sub_sections"`
	Items       int             `json:"items"`
	DueToday    int             `json:"due_today"`
	DueNow      int             `json:"due_now"`
	States      due.StateCounts `json:"states"`
}

// GardenService loads and edits one owner's collection.
type GardenService interface {
	// CreateCollection stores a new, empty collection and returns its tree.
	CreateCollection(ctx context.Context, ownerID *uuid.UUID, name string) (*hierarchy.Tree, error)

	// Load reads the owner's collection into a tree in one consistent read.
	Load(ctx context.Context, ownerID uuid.UUID) (*hierarchy.Tree, error)

	AddSection(ctx context.Context, tree *hierarchy.Tree, name string) (domain.Section, error)
	AddSubSection(ctx context.Context, tree *hierarchy.Tree, sectionID uuid.UUID, name string) (domain.SubSection, error)
	AddItem(ctx context.Context, tree *hierarchy.Tree, subSectionID uuid.UUID, front, back string) (domain.Item, error)

	RenameCollection(ctx context.Context, tree *hierarchy.Tree, name string) error
	RenameSection(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID, name string) error
	RenameSubSection(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID, name string) error

	// EditItem replaces an item's text. Its identity and card are kept.
	EditItem(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID, front, back string) (domain.Item, error)

	// The deletes cascade and return how many nodes left the tree.
	DeleteSection(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID) (int, error)
	DeleteSubSection(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID) (int, error)
	DeleteItem(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID) (int, error)

	// Stats computes dashboard counts from the tree at the current time.
	Stats(tree *hierarchy.Tree) Stats
}

type gardenServiceImpl struct {
	stores GardenStores
	clock  domain.Clock
	logger *slog.Logger
}

// NewGardenService creates a new GardenService.
// It returns an error if any store is nil. A nil clock means the system
// clock and a nil logger means slog.Default().
func NewGardenService(stores GardenStores, clock domain.Clock, logger *slog.Logger) (GardenService, error) {
	switch {
	case stores.Collections == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "collection store cannot be nil"}
	case stores.Sections == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "section store cannot be nil"}
	case stores.SubSections == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "sub-section store cannot be nil"}
	case stores.Items == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "item store cannot be nil"}
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &gardenServiceImpl{
		stores: stores,
		clock:  clock,
		logger: logger.With(slog.String("component", "garden_service")),
	}, nil
}

// CreateCollection implements GardenService
func (s *gardenServiceImpl) CreateCollection(
	ctx context.Context,
	ownerID *uuid.UUID,
	name string,
) (*hierarchy.Tree, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c, err := domain.NewCollection(ownerID, name, s.clock.Now())
	if err != nil {
		return nil, NewServiceError("create_collection", "invalid collection", err)
	}
	if err := s.stores.Collections.Create(ctx, c); err != nil {
		log.Warn("failed to create collection", slog.String("error", err.Error()))
		return nil, NewServiceError("create_collection", "failed to store collection", err)
	}

	log.Info("collection created", slog.String("collection_id", c.ID.String()))
	return hierarchy.New(*c), nil
}

// Load implements GardenService
func (s *gardenServiceImpl) Load(ctx context.Context, ownerID uuid.UUID) (*hierarchy.Tree, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c, err := s.stores.Collections.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, NewServiceError("load_collection", "failed to find collection", err)
	}

	snap, err := s.stores.Collections.LoadSnapshot(ctx, c.ID)
	if err != nil {
		log.Error("failed to load collection snapshot",
			slog.String("collection_id", c.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("load_collection", "failed to read collection", err)
	}

	tree, err := hierarchy.Build(snap.Collection, snap.Sections, snap.SubSections, snap.Items)
	if err != nil {
		log.Error("stored hierarchy is inconsistent",
			slog.String("collection_id", c.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("load_collection", "failed to assemble collection", err)
	}
	return tree, nil
}

// AddSection implements GardenService
func (s *gardenServiceImpl) AddSection(
	ctx context.Context,
	tree *hierarchy.Tree,
	name string,
) (domain.Section, error) {
	if tree == nil {
		return domain.Section{}, ErrNilTree
	}
	sec, err := domain.NewSection(tree.Collection().ID, name, s.clock.Now())
	if err != nil {
		return domain.Section{}, NewServiceError("add_section", "invalid section", err)
	}
	if err := s.stores.Sections.Create(ctx, sec); err != nil {
		return domain.Section{}, NewServiceError("add_section", "failed to store section", err)
	}
	if err := tree.AddSection(*sec); err != nil {
		return domain.Section{}, NewServiceError("add_section", "failed to attach section", err)
	}
	s.logMutation(ctx, "section added", sec.ID)
	return *sec, nil
}

// AddSubSection implements GardenService
func (s *gardenServiceImpl) AddSubSection(
	ctx context.Context,
	tree *hierarchy.Tree,
	sectionID uuid.UUID,
	name string,
) (domain.SubSection, error) {
	if tree == nil {
		return domain.SubSection{}, ErrNilTree
	}
	if _, ok := tree.FindSection(sectionID); !ok {
		return domain.SubSection{}, notFound("section", sectionID)
	}
	sub, err := domain.NewSubSection(sectionID, name, s.clock.Now())
	if err != nil {
		return domain.SubSection{}, NewServiceError("add_sub_section", "invalid sub-section", err)
	}
	if err := s.stores.SubSections.Create(ctx, sub); err != nil {
		return domain.SubSection{}, NewServiceError("add_sub_section", "failed to store sub-section", err)
	}
	if err := tree.AddSubSection(*sub); err != nil {
		return domain.SubSection{}, NewServiceError("add_sub_section", "failed to attach sub-section", err)
	}
	s.logMutation(ctx, "sub-section added", sub.ID)
	return *sub, nil
}

// AddItem implements GardenService
func (s *gardenServiceImpl) AddItem(
	ctx context.Context,
	tree *hierarchy.Tree,
	subSectionID uuid.UUID,
	front, back string,
) (domain.Item, error) {
	if tree == nil {
		return domain.Item{}, ErrNilTree
	}
	if _, ok := tree.FindSubSection(subSectionID); !ok {
		return domain.Item{}, notFound("sub-section", subSectionID)
	}
	it, err := domain.NewItem(subSectionID, front, back, s.clock.Now())
	if err != nil {
		return domain.Item{}, NewServiceError("add_item", "invalid item", err)
	}
	if err := s.stores.Items.Create(ctx, it); err != nil {
		return domain.Item{}, NewServiceError("add_item", "failed to store item", err)
	}
	if err := tree.AddItem(*it); err != nil {
		return domain.Item{}, NewServiceError("add_item", "failed to attach item", err)
	}
	s.logMutation(ctx, "item added", it.ID)
	return *it, nil
}

// RenameCollection implements GardenService
func (s *gardenServiceImpl) RenameCollection(ctx context.Context, tree *hierarchy.Tree, name string) error {
	if tree == nil {
		return ErrNilTree
	}
	name, err := cleanName("collection", name)
	if err != nil {
		return NewServiceError("rename_collection", "invalid name", err)
	}
	id := tree.Collection().ID
	if err := s.stores.Collections.Rename(ctx, id, name); err != nil {
		return NewServiceError("rename_collection", "failed to store name", err)
	}
	tree.RenameCollection(name)
	s.logMutation(ctx, "collection renamed", id)
	return nil
}

// RenameSection implements GardenService
func (s *gardenServiceImpl) RenameSection(
	ctx context.Context,
	tree *hierarchy.Tree,
	id uuid.UUID,
	name string,
) error {
	if tree == nil {
		return ErrNilTree
	}
	if _, ok := tree.FindSection(id); !ok {
		return notFound("section", id)
	}
	name, err := cleanName("section", name)
	if err != nil {
		return NewServiceError("rename_section", "invalid name", err)
	}
	if err := s.stores.Sections.Rename(ctx, id, name); err != nil {
		return NewServiceError("rename_section", "failed to store name", err)
	}
	tree.RenameSection(id, name)
	s.logMutation(ctx, "section renamed", id)
	return nil
}

// RenameSubSection implements GardenService
func (s *gardenServiceImpl) RenameSubSection(
	ctx context.Context,
	tree *hierarchy.Tree,
	id uuid.UUID,
	name string,
) error {
	if tree == nil {
		return ErrNilTree
	}
	if _, ok := tree.FindSubSection(id); !ok {
		return notFound("sub-section", id)
	}
	name, err := cleanName("sub-section", name)
	if err != nil {
		return NewServiceError("rename_sub_section", "invalid name", err)
	}
	if err := s.stores.SubSections.Rename(ctx, id, name); err != nil {
		return NewServiceError("rename_sub_section", "failed to store name", err)
	}
	tree.RenameSubSection(id, name)
	s.logMutation(ctx, "sub-section renamed", id)
	return nil
}

// EditItem implements GardenService
func (s *gardenServiceImpl) EditItem(
	ctx context.Context,
	tree *hierarchy.Tree,
	id uuid.UUID,
	front, back string,
) (domain.Item, error) {
	if tree == nil {
		return domain.Item{}, ErrNilTree
	}
	if _, ok := tree.FindItem(id); !ok {
		return domain.Item{}, notFound("item", id)
	}
	if err := s.stores.Items.UpdateContent(ctx, id, front, back); err != nil {
		return domain.Item{}, NewServiceError("edit_item", "failed to store item text", err)
	}
	tree.EditItem(id, front, back)
	s.logMutation(ctx, "item edited", id)

	it, _ := tree.FindItem(id)
	return it, nil
}

// DeleteSection implements GardenService
func (s *gardenServiceImpl) DeleteSection(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID) (int, error) {
	if tree == nil {
		return 0, ErrNilTree
	}
	if _, ok := tree.FindSection(id); !ok {
		return 0, notFound("section", id)
	}
	if err := s.stores.Sections.Delete(ctx, id); err != nil {
		return 0, NewServiceError("delete_section", "failed to delete section", err)
	}
	removed := tree.DeleteSection(id)
	s.logMutation(ctx, "section deleted", id, slog.Int("removed", removed))
	return removed, nil
}

// DeleteSubSection implements GardenService
func (s *gardenServiceImpl) DeleteSubSection(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID) (int, error) {
	if tree == nil {
		return 0, ErrNilTree
	}
	if _, ok := tree.FindSubSection(id); !ok {
		return 0, notFound("sub-section", id)
	}
	if err := s.stores.SubSections.Delete(ctx, id); err != nil {
		return 0, NewServiceError("delete_sub_section", "failed to delete sub-section", err)
	}
	removed := tree.DeleteSubSection(id)
	s.logMutation(ctx, "sub-section deleted", id, slog.Int("removed", removed))
	return removed, nil
}

// DeleteItem implements GardenService
func (s *gardenServiceImpl) DeleteItem(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID) (int, error) {
	if tree == nil {
		return 0, ErrNilTree
	}
	if _, ok := tree.FindItem(id); !ok {
		return 0, notFound("item", id)
	}
	if err := s.stores.Items.Delete(ctx, id); err != nil {
		return 0, NewServiceError("delete_item", "failed to delete item", err)
	}
	removed := tree.DeleteItem(id)
	s.logMutation(ctx, "item deleted", id)
	return removed, nil
}

// Stats implements GardenService
func (s *gardenServiceImpl) Stats(tree *hierarchy.Tree) Stats {
	if tree == nil {
		return Stats{}
	}
	now := s.clock.Now()
	items := tree.AllItems()
	sections, subSections, itemCount := tree.Len()
	return Stats{
		Sections:    sections,
		SubSections: subSections,
		Items:       itemCount,
		DueToday:    due.CountDueToday(items, now),
		DueNow:      due.CountDueNow(items, now),
		States:      due.CountByState(items),
	}
}

func (s *gardenServiceImpl) logMutation(ctx context.Context, msg string, id uuid.UUID, attrs ...any) {
	args := append([]any{slog.String("id", id.String())}, attrs...)
	logger.FromContextOrDefault(ctx, s.logger).Debug(msg, args...)
}

func cleanName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s %w", domain.ErrValidation, kind, domain.ErrEmptyName)
	}
	return name, nil
}
