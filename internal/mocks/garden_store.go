package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/store"
)

type storedSection struct {
	domain.Section
	seq int64
}

type storedSubSection struct {
	domain.SubSection
	seq int64
}

type storedItem struct {
	domain.Item
	seq int64
}

// Garden holds the rows shared by the in-memory hierarchy stores.
type Garden struct {
	mu          sync.Mutex
	seq         int64
	collections map[uuid.UUID]domain.Collection
	sections    map[uuid.UUID]storedSection
	subSections map[uuid.UUID]storedSubSection
	items       map[uuid.UUID]storedItem

	collectionStore *MockCollectionStore
	sectionStore    *MockSectionStore
	subSectionStore *MockSubSectionStore
	itemStore       *MockItemStore
}

// NewGarden creates an empty in-memory garden.
func NewGarden() *Garden {
	g := &Garden{
		collections: make(map[uuid.UUID]domain.Collection),
		sections:    make(map[uuid.UUID]storedSection),
		subSections: make(map[uuid.UUID]storedSubSection),
		items:       make(map[uuid.UUID]storedItem),
	}
	g.collectionStore = &MockCollectionStore{garden: g}
	g.sectionStore = &MockSectionStore{garden: g}
	g.subSectionStore = &MockSubSectionStore{garden: g}
	g.itemStore = &MockItemStore{garden: g}
	return g
}

// Collections returns the garden's collection store.
func (g *Garden) Collections() *MockCollectionStore { return g.collectionStore }

// Sections returns the garden's section store.
func (g *Garden) Sections() *MockSectionStore { return g.sectionStore }

// SubSections returns the garden's sub-section store.
func (g *Garden) SubSections() *MockSubSectionStore { return g.subSectionStore }

// Items returns the garden's item store.
func (g *Garden) Items() *MockItemStore { return g.itemStore }

// Counts reports how many rows of each kind are stored.
func (g *Garden) Counts() (collections, sections, subSections, items int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.collections), len(g.sections), len(g.subSections), len(g.items)
}

// CorruptItem makes subsequent reads of the item fail as if its stored card
// could not be decoded.
func (g *Garden) CorruptItem(id uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if it, ok := g.items[id]; ok {
		it.Card.State = domain.State(-1)
		g.items[id] = it
	}
}

func (g *Garden) next() int64 {
	g.seq++
	return g.seq
}

func (g *Garden) deleteSubSectionLocked(id uuid.UUID) {
	delete(g.subSections, id)
	for itemID, it := range g.items {
		if it.SubSectionID == id {
			delete(g.items, itemID)
		}
	}
}

func readItem(it storedItem) (domain.Item, error) {
	if !it.Card.State.IsValid() {
		return domain.Item{}, store.ErrCorruptData
	}
	out := it.Item
	out.Card = it.Card.Clone()
	return out, nil
}

// MockCollectionStore implements store.CollectionStore for testing.
type MockCollectionStore struct {
	garden *Garden

	CreateFn       func(ctx context.Context, collection *domain.Collection) error
	GetByOwnerFn   func(ctx context.Context, ownerID uuid.UUID) (*domain.Collection, error)
	LoadSnapshotFn func(ctx context.Context, collectionID uuid.UUID) (*store.Snapshot, error)
	RenameFn       func(ctx context.Context, id uuid.UUID, name string) error
}

var _ store.CollectionStore = (*MockCollectionStore)(nil)

// Create implements the CollectionStore interface
func (m *MockCollectionStore) Create(ctx context.Context, collection *domain.Collection) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, collection)
	}
	if err := collection.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.collections[collection.ID]; exists {
		return store.ErrDuplicate
	}
	if collection.OwnerID != nil {
		for _, c := range g.collections {
			if c.OwnerID != nil && *c.OwnerID == *collection.OwnerID {
				return store.ErrCollectionExists
			}
		}
	}
	g.collections[collection.ID] = *collection
	return nil
}

// GetByOwner implements the CollectionStore interface
func (m *MockCollectionStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Collection, error) {
	if m.GetByOwnerFn != nil {
		return m.GetByOwnerFn(ctx, ownerID)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range g.collections {
		if c.OwnerID != nil && *c.OwnerID == ownerID {
			out := c
			return &out, nil
		}
	}
	return nil, store.ErrCollectionNotFound
}

// LoadSnapshot implements the CollectionStore interface
func (m *MockCollectionStore) LoadSnapshot(ctx context.Context, collectionID uuid.UUID) (*store.Snapshot, error) {
	if m.LoadSnapshotFn != nil {
		return m.LoadSnapshotFn(ctx, collectionID)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.collections[collectionID]
	if !ok {
		return nil, store.ErrCollectionNotFound
	}
	snap := &store.Snapshot{
		Collection:  c,
		Sections:    []domain.Section{},
		SubSections: []domain.SubSection{},
		Items:       []domain.Item{},
	}

	var sections []storedSection
	for _, s := range g.sections {
		if s.CollectionID == collectionID {
			sections = append(sections, s)
		}
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].seq < sections[j].seq })

	for _, sec := range sections {
		snap.Sections = append(snap.Sections, sec.Section)

		var subs []storedSubSection
		for _, sub := range g.subSections {
			if sub.SectionID == sec.ID {
				subs = append(subs, sub)
			}
		}
		sort.Slice(subs, func(i, j int) bool { return subs[i].seq < subs[j].seq })

		for _, sub := range subs {
			snap.SubSections = append(snap.SubSections, sub.SubSection)
			items, err := g.itemsOfLocked(sub.ID)
			if err != nil {
				return nil, err
			}
			snap.Items = append(snap.Items, items...)
		}
	}
	return snap, nil
}

// Rename implements the CollectionStore interface
func (m *MockCollectionStore) Rename(ctx context.Context, id uuid.UUID, name string) error {
	if m.RenameFn != nil {
		return m.RenameFn(ctx, id, name)
	}
	if blank(name) {
		return store.ErrInvalidEntity
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.collections[id]
	if !ok {
		return store.ErrCollectionNotFound
	}
	c.Name = name
	g.collections[id] = c
	return nil
}

// MockSectionStore implements store.SectionStore for testing.
type MockSectionStore struct {
	garden *Garden

	CreateFn func(ctx context.Context, section *domain.Section) error
	RenameFn func(ctx context.Context, id uuid.UUID, name string) error
	DeleteFn func(ctx context.Context, id uuid.UUID) error
}

var _ store.SectionStore = (*MockSectionStore)(nil)

// Create implements the SectionStore interface
func (m *MockSectionStore) Create(ctx context.Context, section *domain.Section) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, section)
	}
	if err := section.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.collections[section.CollectionID]; !ok {
		return store.ErrCollectionNotFound
	}
	if _, exists := g.sections[section.ID]; exists {
		return store.ErrDuplicate
	}
	g.sections[section.ID] = storedSection{Section: *section, seq: g.next()}
	return nil
}

// Rename implements the SectionStore interface
func (m *MockSectionStore) Rename(ctx context.Context, id uuid.UUID, name string) error {
	if m.RenameFn != nil {
		return m.RenameFn(ctx, id, name)
	}
	if blank(name) {
		return store.ErrInvalidEntity
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sections[id]
	if !ok {
		return store.ErrSectionNotFound
	}
	s.Name = name
	g.sections[id] = s
	return nil
}

// Delete implements the SectionStore interface
func (m *MockSectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.sections[id]; !ok {
		return store.ErrSectionNotFound
	}
	delete(g.sections, id)
	for subID, sub := range g.subSections {
		if sub.SectionID == id {
			g.deleteSubSectionLocked(subID)
		}
	}
	return nil
}

// MockSubSectionStore implements store.SubSectionStore for testing.
type MockSubSectionStore struct {
	garden *Garden

	CreateFn func(ctx context.Context, subSection *domain.SubSection) error
	RenameFn func(ctx context.Context, id uuid.UUID, name string) error
	DeleteFn func(ctx context.Context, id uuid.UUID) error
}

var _ store.SubSectionStore = (*MockSubSectionStore)(nil)

// Create implements the SubSectionStore interface
func (m *MockSubSectionStore) Create(ctx context.Context, subSection *domain.SubSection) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, subSection)
	}
	if err := subSection.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.sections[subSection.SectionID]; !ok {
		return store.ErrSectionNotFound
	}
	if _, exists := g.subSections[subSection.ID]; exists {
		return store.ErrDuplicate
	}
	g.subSections[subSection.ID] = storedSubSection{SubSection: *subSection, seq: g.next()}
	return nil
}

// Rename implements the SubSectionStore interface
func (m *MockSubSectionStore) Rename(ctx context.Context, id uuid.UUID, name string) error {
	if m.RenameFn != nil {
		return m.RenameFn(ctx, id, name)
	}
	if blank(name) {
		return store.ErrInvalidEntity
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.subSections[id]
	if !ok {
		return store.ErrSubSectionNotFound
	}
	s.Name = name
	g.subSections[id] = s
	return nil
}

// Delete implements the SubSectionStore interface
func (m *MockSubSectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.subSections[id]; !ok {
		return store.ErrSubSectionNotFound
	}
	g.deleteSubSectionLocked(id)
	return nil
}

// MockItemStore implements store.ItemStore for testing.
type MockItemStore struct {
	garden *Garden

	CreateFn           func(ctx context.Context, item *domain.Item) error
	GetByIDFn          func(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	ListBySubSectionFn func(ctx context.Context, subSectionID uuid.UUID) ([]domain.Item, error)
	UpdateContentFn    func(ctx context.Context, id uuid.UUID, front, back string) error
	UpdateCardFn       func(ctx context.Context, id uuid.UUID, card domain.Card, expectedVersion int64) (int64, error)
	DeleteFn           func(ctx context.Context, id uuid.UUID) error

	// UpdateCardCalls counts calls that reached the default implementation.
	UpdateCardCalls int
}

var _ store.ItemStore = (*MockItemStore)(nil)

// Create implements the ItemStore interface
func (m *MockItemStore) Create(ctx context.Context, item *domain.Item) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, item)
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.subSections[item.SubSectionID]; !ok {
		return store.ErrSubSectionNotFound
	}
	if _, exists := g.items[item.ID]; exists {
		return store.ErrDuplicate
	}
	if item.Version < 1 {
		item.Version = 1
	}
	stored := *item
	stored.Card = item.Card.Clone()
	g.items[item.ID] = storedItem{Item: stored, seq: g.next()}
	return nil
}

// GetByID implements the ItemStore interface
func (m *MockItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	it, ok := g.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	out, err := readItem(it)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBySubSection implements the ItemStore interface
func (m *MockItemStore) ListBySubSection(ctx context.Context, subSectionID uuid.UUID) ([]domain.Item, error) {
	if m.ListBySubSectionFn != nil {
		return m.ListBySubSectionFn(ctx, subSectionID)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.itemsOfLocked(subSectionID)
}

func (g *Garden) itemsOfLocked(subSectionID uuid.UUID) ([]domain.Item, error) {
	var stored []storedItem
	for _, it := range g.items {
		if it.SubSectionID == subSectionID {
			stored = append(stored, it)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })

	items := make([]domain.Item, 0, len(stored))
	for _, it := range stored {
		out, err := readItem(it)
		if err != nil {
			return nil, err
		}
		items = append(items, out)
	}
	return items, nil
}

// UpdateContent implements the ItemStore interface
func (m *MockItemStore) UpdateContent(ctx context.Context, id uuid.UUID, front, back string) error {
	if m.UpdateContentFn != nil {
		return m.UpdateContentFn(ctx, id, front, back)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	it, ok := g.items[id]
	if !ok {
		return store.ErrItemNotFound
	}
	it.Front, it.Back = front, back
	g.items[id] = it
	return nil
}

// UpdateCard implements the ItemStore interface
func (m *MockItemStore) UpdateCard(
	ctx context.Context,
	id uuid.UUID,
	card domain.Card,
	expectedVersion int64,
) (int64, error) {
	if m.UpdateCardFn != nil {
		return m.UpdateCardFn(ctx, id, card, expectedVersion)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()
	m.UpdateCardCalls++

	it, ok := g.items[id]
	if !ok {
		return 0, store.ErrItemNotFound
	}
	if it.Version != expectedVersion {
		return 0, store.ErrConflict
	}
	it.Card = card.Clone()
	it.Version++
	g.items[id] = it
	return it.Version, nil
}

// Delete implements the ItemStore interface
func (m *MockItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	g := m.garden
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.items[id]; !ok {
		return store.ErrItemNotFound
	}
	delete(g.items, id)
	return nil
}

// blank reports whether a name is empty after trimming.
func blank(name string) bool {
	return strings.TrimSpace(name) == ""
}
