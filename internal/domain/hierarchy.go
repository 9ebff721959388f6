package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection is the root of one owner's study material.
type Collection struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
}

// Section groups sub-sections inside a Collection.
type Section struct {
	ID           uuid.UUID `json:"id"`
	CollectionID uuid.UUID `json:"collection_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// SubSection groups items inside a Section.
type SubSection struct {
	ID        uuid.UUID `json:"id"`
	SectionID uuid.UUID `json:"section_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Item is the atomic reviewable unit: front and back text plus one Card.
//
// Version is the storage concurrency token for the Card. It starts at 1 and
// is incremented by every persisted rating.
type Item struct {
	ID           uuid.UUID `json:"id"`
	SubSectionID uuid.UUID `json:"sub_section_id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	CreatedAt    time.Time `json:"created_at"`
	Card         Card      `json:"card"`
	Version      int64     `json:"version"`
}

// NewCollection creates a Collection with a fresh identity.
func NewCollection(ownerID *uuid.UUID, name string, now time.Time) (*Collection, error) {
	c := &Collection{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now.UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the Collection has valid data.
func (c *Collection) Validate() error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("%w: collection %w", ErrValidation, ErrInvalidID)
	}
	if c.OwnerID != nil && *c.OwnerID == uuid.Nil {
		return fmt.Errorf("%w: collection owner %w", ErrValidation, ErrInvalidID)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: collection %w", ErrValidation, ErrEmptyName)
	}
	return nil
}

// NewSection creates a Section owned by the given collection.
func NewSection(collectionID uuid.UUID, name string, now time.Time) (*Section, error) {
	s := &Section{
		ID:           uuid.New(),
		CollectionID: collectionID,
		Name:         strings.TrimSpace(name),
		CreatedAt:    now.UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks if the Section has valid data.
func (s *Section) Validate() error {
	if s.ID == uuid.Nil || s.CollectionID == uuid.Nil {
		return fmt.Errorf("%w: section %w", ErrValidation, ErrInvalidID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: section %w", ErrValidation, ErrEmptyName)
	}
	return nil
}

// NewSubSection creates a SubSection owned by the given section.
func NewSubSection(sectionID uuid.UUID, name string, now time.Time) (*SubSection, error) {
	s := &SubSection{
		ID:        uuid.New(),
		SectionID: sectionID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now.UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks if the SubSection has valid data.
func (s *SubSection) Validate() error {
	if s.ID == uuid.Nil || s.SectionID == uuid.Nil {
		return fmt.Errorf("%w: sub-section %w", ErrValidation, ErrInvalidID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: sub-section %w", ErrValidation, ErrEmptyName)
	}
	return nil
}

// NewItem creates an Item with a fresh Card that is due at creation time.
// Front and back may be empty; an item is usually added blank and edited.
func NewItem(subSectionID uuid.UUID, front, back string, now time.Time) (*Item, error) {
	it := &Item{
		ID:           uuid.New(),
		SubSectionID: subSectionID,
		Front:        front,
		Back:         back,
		CreatedAt:    now.UTC(),
		Card:         NewCard(now),
		Version:      1,
	}
	if err := it.Validate(); err != nil {
		return nil, err
	}
	return it, nil
}

// Validate checks if the Item has valid data.
func (it *Item) Validate() error {
	if it.ID == uuid.Nil || it.SubSectionID == uuid.Nil {
		return fmt.Errorf("%w: item %w", ErrValidation, ErrInvalidID)
	}
	if !it.Card.State.IsValid() {
		return fmt.Errorf("%w: item card %w", ErrValidation, ErrInvalidState)
	}
	return nil
}
