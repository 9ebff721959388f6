// Package hierarchy holds the in-memory snapshot of one owner's content:
// a Collection of ordered Sections, each holding ordered SubSections, each
// holding ordered Items.
//
// The tree is stored as an arena. Nodes live in maps keyed by id, every node
// keeps the id of its parent, and each parent keeps the ordered ids of its
// children. Values handed out by the read methods are copies; the only way
// to change the snapshot is through the mutation methods.
//
// A Tree is not safe for concurrent use.
package hierarchy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
)

var (
	// ErrParentNotFound is returned when a node names a parent that is not
	// part of the tree.
	ErrParentNotFound = errors.New("parent not found in hierarchy")

	// ErrDuplicateID is returned when a node reuses an id already present
	// at the same level.
	ErrDuplicateID = errors.New("duplicate id in hierarchy")

	// ErrBrokenHierarchy is returned by Build when stored rows do not form
	// a single well-formed tree.
	ErrBrokenHierarchy = errors.New("broken hierarchy")
)

type sectionNode struct {
	section  domain.Section
	children []uuid.UUID
}

type subSectionNode struct {
	subSection domain.SubSection
	children   []uuid.UUID
}

// Tree is an owner's content snapshot.
type Tree struct {
	collection  domain.Collection
	sectionIDs  []uuid.UUID
	sections    map[uuid.UUID]*sectionNode
	subSections map[uuid.UUID]*subSectionNode
	items       map[uuid.UUID]*domain.Item
}

// New returns an empty tree rooted at collection.
func New(collection domain.Collection) *Tree {
	return &Tree{
		collection:  collection,
		sections:    make(map[uuid.UUID]*sectionNode),
		subSections: make(map[uuid.UUID]*subSectionNode),
		items:       make(map[uuid.UUID]*domain.Item),
	}
}

// Build assembles a tree from stored rows. Each slice must already be in
// sibling order; children are appended to their parent in the order they
// appear. A row whose parent is missing fails the whole build.
func Build(
	collection domain.Collection,
	sections []domain.Section,
	subSections []domain.SubSection,
	items []domain.Item,
) (*Tree, error) {
	t := New(collection)
	for _, s := range sections {
		if err := t.AddSection(s); err != nil {
			return nil, fmt.Errorf("%w: section %s: %w", ErrBrokenHierarchy, s.ID, err)
		}
	}
	for _, ss := range subSections {
		if err := t.AddSubSection(ss); err != nil {
			return nil, fmt.Errorf("%w: sub-section %s: %w", ErrBrokenHierarchy, ss.ID, err)
		}
	}
	for _, it := range items {
		if err := t.AddItem(it); err != nil {
			return nil, fmt.Errorf("%w: item %s: %w", ErrBrokenHierarchy, it.ID, err)
		}
	}
	return t, nil
}

// Collection returns the root of the tree.
func (t *Tree) Collection() domain.Collection {
	return t.collection
}

// Sections returns the collection's sections in order.
func (t *Tree) Sections() []domain.Section {
	out := make([]domain.Section, 0, len(t.sectionIDs))
	for _, id := range t.sectionIDs {
		out = append(out, t.sections[id].section)
	}
	return out
}

// SubSections returns the sub-sections of sectionID in order, or nil when
// the section is unknown.
func (t *Tree) SubSections(sectionID uuid.UUID) []domain.SubSection {
	node, ok := t.sections[sectionID]
	if !ok {
		return nil
	}
	out := make([]domain.SubSection, 0, len(node.children))
	for _, id := range node.children {
		out = append(out, t.subSections[id].subSection)
	}
	return out
}

// Items returns the items of subSectionID in order, or nil when the
// sub-section is unknown.
func (t *Tree) Items(subSectionID uuid.UUID) []domain.Item {
	node, ok := t.subSections[subSectionID]
	if !ok {
		return nil
	}
	return t.collectItems(node, make([]domain.Item, 0, len(node.children)))
}

// AllSubSections flattens the tree to its sub-sections, section by section.
func (t *Tree) AllSubSections() []domain.SubSection {
	out := make([]domain.SubSection, 0, len(t.subSections))
	for _, sid := range t.sectionIDs {
		for _, id := range t.sections[sid].children {
			out = append(out, t.subSections[id].subSection)
		}
	}
	return out
}

// AllItems flattens the tree depth-first, preserving sibling order at every
// level.
func (t *Tree) AllItems() []domain.Item {
	out := make([]domain.Item, 0, len(t.items))
	for _, sid := range t.sectionIDs {
		for _, id := range t.sections[sid].children {
			out = t.collectItems(t.subSections[id], out)
		}
	}
	return out
}

func (t *Tree) collectItems(node *subSectionNode, out []domain.Item) []domain.Item {
	for _, id := range node.children {
		out = append(out, copyItem(t.items[id]))
	}
	return out
}

// FindSection looks up a section by id.
func (t *Tree) FindSection(id uuid.UUID) (domain.Section, bool) {
	node, ok := t.sections[id]
	if !ok {
		return domain.Section{}, false
	}
	return node.section, true
}

// FindSubSection looks up a sub-section by id.
func (t *Tree) FindSubSection(id uuid.UUID) (domain.SubSection, bool) {
	node, ok := t.subSections[id]
	if !ok {
		return domain.SubSection{}, false
	}
	return node.subSection, true
}

// FindItem looks up an item by id.
func (t *Tree) FindItem(id uuid.UUID) (domain.Item, bool) {
	it, ok := t.items[id]
	if !ok {
		return domain.Item{}, false
	}
	return copyItem(it), true
}

// Len returns the number of sections, sub-sections and items in the tree.
func (t *Tree) Len() (sections, subSections, items int) {
	return len(t.sections), len(t.subSections), len(t.items)
}

// AddSection appends s to the collection.
func (t *Tree) AddSection(s domain.Section) error {
	if s.CollectionID != t.collection.ID {
		return fmt.Errorf("%w: collection %s", ErrParentNotFound, s.CollectionID)
	}
	if _, exists := t.sections[s.ID]; exists {
		return fmt.Errorf("%w: section %s", ErrDuplicateID, s.ID)
	}
	t.sections[s.ID] = &sectionNode{section: s}
	t.sectionIDs = append(t.sectionIDs, s.ID)
	return nil
}

// AddSubSection appends ss to the section it references.
func (t *Tree) AddSubSection(ss domain.SubSection) error {
	parent, ok := t.sections[ss.SectionID]
	if !ok {
		return fmt.Errorf("%w: section %s", ErrParentNotFound, ss.SectionID)
	}
	if _, exists := t.subSections[ss.ID]; exists {
		return fmt.Errorf("%w: sub-section %s", ErrDuplicateID, ss.ID)
	}
	t.subSections[ss.ID] = &subSectionNode{subSection: ss}
	parent.children = append(parent.children, ss.ID)
	return nil
}

// AddItem appends it to the sub-section it references.
func (t *Tree) AddItem(it domain.Item) error {
	parent, ok := t.subSections[it.SubSectionID]
	if !ok {
		return fmt.Errorf("%w: sub-section %s", ErrParentNotFound, it.SubSectionID)
	}
	if _, exists := t.items[it.ID]; exists {
		return fmt.Errorf("%w: item %s", ErrDuplicateID, it.ID)
	}
	stored := copyItem(&it)
	t.items[it.ID] = &stored
	parent.children = append(parent.children, it.ID)
	return nil
}

// DeleteSection removes a section together with all of its sub-sections and
// items. It returns the number of nodes removed, zero when id is unknown.
func (t *Tree) DeleteSection(id uuid.UUID) int {
	node, ok := t.sections[id]
	if !ok {
		return 0
	}
	removed := 1
	for _, child := range node.children {
		removed += t.dropSubSection(child)
	}
	delete(t.sections, id)
	t.sectionIDs = without(t.sectionIDs, id)
	return removed
}

// DeleteSubSection removes a sub-section and its items. It returns the
// number of nodes removed, zero when id is unknown.
func (t *Tree) DeleteSubSection(id uuid.UUID) int {
	node, ok := t.subSections[id]
	if !ok {
		return 0
	}
	parent := t.sections[node.subSection.SectionID]
	parent.children = without(parent.children, id)
	return t.dropSubSection(id)
}

// DeleteItem removes an item. It returns 1 when the item existed and 0
// otherwise.
func (t *Tree) DeleteItem(id uuid.UUID) int {
	it, ok := t.items[id]
	if !ok {
		return 0
	}
	parent := t.subSections[it.SubSectionID]
	parent.children = without(parent.children, id)
	delete(t.items, id)
	return 1
}

// dropSubSection removes the node and its items without touching the
// parent's child list.
func (t *Tree) dropSubSection(id uuid.UUID) int {
	node := t.subSections[id]
	for _, child := range node.children {
		delete(t.items, child)
	}
	delete(t.subSections, id)
	return 1 + len(node.children)
}

// RenameCollection changes the collection's display name.
func (t *Tree) RenameCollection(name string) {
	t.collection.Name = name
}

// RenameSection changes a section's display name. It reports whether the
// section exists.
func (t *Tree) RenameSection(id uuid.UUID, name string) bool {
	node, ok := t.sections[id]
	if ok {
		node.section.Name = name
	}
	return ok
}

// RenameSubSection changes a sub-section's display name. It reports whether
// the sub-section exists.
func (t *Tree) RenameSubSection(id uuid.UUID, name string) bool {
	node, ok := t.subSections[id]
	if ok {
		node.subSection.Name = name
	}
	return ok
}

// EditItem replaces an item's front and back text. The item keeps its id,
// position and card. It reports whether the item exists.
func (t *Tree) EditItem(id uuid.UUID, front, back string) bool {
	it, ok := t.items[id]
	if ok {
		it.Front = front
		it.Back = back
	}
	return ok
}

// ReplaceItem swaps in a new value for an existing item in place, typically
// after its card has been rated and persisted. The item may not move to a
// different sub-section. It reports whether the replacement happened.
func (t *Tree) ReplaceItem(it domain.Item) bool {
	current, ok := t.items[it.ID]
	if !ok || current.SubSectionID != it.SubSectionID {
		return false
	}
	*current = copyItem(&it)
	return true
}

func copyItem(it *domain.Item) domain.Item {
	out := *it
	out.Card = it.Card.Clone()
	return out
}

func without(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
