package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/hierarchy"
	"github.com/phrazzld/brainace/internal/session"
)

// Common request/response structures

// CreateCollectionRequest defines the payload for creating an owner's collection.
type CreateCollectionRequest struct {
	OwnerID uuid.UUID `json:"owner_id" validate:"required"`
	Name    string    `json:"name"     validate:"required,max=200"`
}

// NameRequest defines the payload for creating or renaming a named node.
type NameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// ItemRequest defines the payload for creating or editing an item.
// Either side may be left blank and filled in later.
type ItemRequest struct {
	Front string `json:"front" validate:"max=10000"`
	Back  string `json:"back"  validate:"max=10000"`
}

// StartSessionRequest defines the payload for starting a review session.
// An empty filter means the configured default.
type StartSessionRequest struct {
	Filter string `json:"filter" validate:"omitempty,oneof=today now all"`
}

// TransitionRequest defines the payload for applying a session transition.
// Rating is only read for "rate".
type TransitionRequest struct {
	Type   string        `json:"type"   validate:"required,oneof=reveal rate skip restart"`
	Rating domain.Rating `json:"rating,omitempty"`
}

// DeleteResponse reports how many nodes a cascading delete removed.
type DeleteResponse struct {
	Removed int `json:"removed"`
}

// SessionResponse is a session view together with its running tally.
type SessionResponse struct {
	session.View
	Summary session.Summary `json:"summary"`
}

// CollectionResponse is the nested view of a collection.
type CollectionResponse struct {
	domain.Collection
	Sections []SectionResponse `json:"sections"`
}

// SectionResponse is a section with its sub-sections.
type SectionResponse struct {
	domain.Section
	SubSections []SubSectionResponse `json:"sub_sections"`
}

// SubSectionResponse is a sub-section with its items.
type SubSectionResponse struct {
	domain.SubSection
	Items []domain.Item `json:"items"`
}

func treeToResponse(tree *hierarchy.Tree) CollectionResponse {
	resp := CollectionResponse{
		Collection: tree.Collection(),
		Sections:   []SectionResponse{},
	}
	for _, s := range tree.Sections() {
		sr := SectionResponse{Section: s, SubSections: []SubSectionResponse{}}
		for _, ss := range tree.SubSections(s.ID) {
			items := tree.Items(ss.ID)
			if items == nil {
				items = []domain.Item{}
			}
			sr.SubSections = append(sr.SubSections, SubSectionResponse{SubSection: ss, Items: items})
		}
		resp.Sections = append(resp.Sections, sr)
	}
	return resp
}

func sessionToResponse(e *session.Engine) SessionResponse {
	return SessionResponse{View: e.View(), Summary: e.Summary()}
}
