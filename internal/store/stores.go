package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
)

// Snapshot is one collection with everything beneath it, read consistently.
// Each slice is in sibling order, parents before children.
type Snapshot struct {
	Collection  domain.Collection
	Sections    []domain.Section
	SubSections []domain.SubSection
	Items       []domain.Item
}

// CollectionStore defines the interface for collection persistence.
type CollectionStore interface {
	// Create saves a new collection.
	// Returns ErrCollectionExists if the owner already has one.
	Create(ctx context.Context, collection *domain.Collection) error

	// GetByOwner retrieves the collection belonging to ownerID.
	// Returns ErrCollectionNotFound if the owner has none.
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Collection, error)

	// LoadSnapshot reads a collection and its whole hierarchy in one
	// consistent read. Returns ErrCollectionNotFound if the collection does
	// not exist and ErrCorruptData if a stored card cannot be decoded.
	LoadSnapshot(ctx context.Context, collectionID uuid.UUID) (*Snapshot, error)

	// Rename changes a collection's name.
	// Returns ErrCollectionNotFound if the collection does not exist.
	Rename(ctx context.Context, id uuid.UUID, name string) error
}

// SectionStore defines the interface for section persistence.
type SectionStore interface {
	// Create appends a section to its collection.
	// Returns ErrCollectionNotFound if the collection does not exist.
	Create(ctx context.Context, section *domain.Section) error

	// Rename changes a section's name.
	// Returns ErrSectionNotFound if the section does not exist.
	Rename(ctx context.Context, id uuid.UUID, name string) error

	// Delete removes a section with all of its sub-sections and items.
	// Returns ErrSectionNotFound if the section does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubSectionStore defines the interface for sub-section persistence.
type SubSectionStore interface {
	// Create appends a sub-section to its section.
	// Returns ErrSectionNotFound if the section does not exist.
	Create(ctx context.Context, subSection *domain.SubSection) error

	// Rename changes a sub-section's name.
	// Returns ErrSubSectionNotFound if the sub-section does not exist.
	Rename(ctx context.Context, id uuid.UUID, name string) error

	// Delete removes a sub-section with all of its items.
	// Returns ErrSubSectionNotFound if the sub-section does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ItemStore defines the interface for item persistence.
type ItemStore interface {
	// Create appends an item to its sub-section.
	// Returns ErrSubSectionNotFound if the sub-section does not exist.
	Create(ctx context.Context, item *domain.Item) error

	// GetByID retrieves an item by its unique ID.
	// Returns ErrItemNotFound if the item does not exist and ErrCorruptData
	// if its card cannot be decoded.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)

	// ListBySubSection returns the items of a sub-section in order.
	// An unknown sub-section yields an empty list.
	ListBySubSection(ctx context.Context, subSectionID uuid.UUID) ([]domain.Item, error)

	// UpdateContent replaces an item's front and back text. The card and
	// version are left untouched.
	// Returns ErrItemNotFound if the item does not exist.
	UpdateContent(ctx context.Context, id uuid.UUID, front, back string) error

	// UpdateCard stores a new card for an item, provided the stored version
	// still equals expectedVersion, and returns the new version.
	// Returns ErrItemNotFound if the item does not exist and ErrConflict if
	// the version has moved on.
	UpdateCard(ctx context.Context, id uuid.UUID, card domain.Card, expectedVersion int64) (int64, error)

	// Delete removes an item.
	// Returns ErrItemNotFound if the item does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
