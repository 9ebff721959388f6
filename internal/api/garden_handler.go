package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/api/shared"
	"github.com/phrazzld/brainace/internal/hierarchy"
	"github.com/phrazzld/brainace/internal/platform/logger"
	"github.com/phrazzld/brainace/internal/service"
)

// GardenHandler handles requests that read or edit an owner's collection.
type GardenHandler struct {
	garden service.GardenService
	logger *slog.Logger
}

// NewGardenHandler creates a new GardenHandler
func NewGardenHandler(garden service.GardenService, logger *slog.Logger) *GardenHandler {
	if garden == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("garden service cannot be nil for GardenHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for GardenHandler")
	}

	return &GardenHandler{
		garden: garden,
		logger: logger.With(slog.String("component", "garden_handler")),
	}
}

// RegisterRoutes mounts the collection endpoints on r.
func (h *GardenHandler) RegisterRoutes(r chi.Router) {
	r.Post("/collections", h.CreateCollection)
	r.Route("/owners/{ownerID}", func(r chi.Router) {
		r.Get("/collection", h.GetCollection)
		r.Patch("/collection", h.RenameCollection)
		r.Get("/stats", h.GetStats)

		r.Post("/sections", h.AddSection)
		r.Patch("/sections/{id}", h.RenameSection)
		r.Delete("/sections/{id}", h.DeleteSection)

		r.Post("/sections/{id}/subsections", h.AddSubSection)
		r.Patch("/subsections/{id}", h.RenameSubSection)
		r.Delete("/subsections/{id}", h.DeleteSubSection)

		r.Post("/subsections/{id}/items", h.AddItem)
		r.Put("/items/{id}", h.EditItem)
		r.Delete("/items/{id}", h.DeleteItem)
	})
}

// CreateCollection handles POST /collections requests.
func (h *GardenHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}

	ownerID := req.OwnerID
	tree, err := h.garden.CreateCollection(r.Context(), &ownerID, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("collection created",
		slog.String("owner_id", ownerID.String()),
		slog.String("collection_id", tree.Collection().ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, treeToResponse(tree))
}

// GetCollection handles GET /owners/{ownerID}/collection requests.
func (h *GardenHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.loadTree(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, treeToResponse(tree))
}

// RenameCollection handles PATCH /owners/{ownerID}/collection requests.
func (h *GardenHandler) RenameCollection(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	tree, ok := h.loadTree(w, r)
	if !ok {
		return
	}

	if err := h.garden.RenameCollection(r.Context(), tree, req.Name); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tree.Collection())
}

// GetStats handles GET /owners/{ownerID}/stats requests.
func (h *GardenHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.loadTree(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, h.garden.Stats(tree))
}

// AddSection handles POST /owners/{ownerID}/sections requests.
func (h *GardenHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	tree, ok := h.loadTree(w, r)
	if !ok {
		return
	}

	section, err := h.garden.AddSection(r.Context(), tree, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, section)
}

// RenameSection handles PATCH /owners/{ownerID}/sections/{id} requests.
func (h *GardenHandler) RenameSection(w http.ResponseWriter, r *http.Request) {
	h.rename(w, r, func(tree *hierarchy.Tree, id uuid.UUID, name string) (interface{}, error) {
		if err := h.garden.RenameSection(r.Context(), tree, id, name); err != nil {
			return nil, err
		}
		section, _ := tree.FindSection(id)
		return section, nil
	})
}

// DeleteSection handles DELETE /owners/{ownerID}/sections/{id} requests.
// The section's sub-sections and items are deleted with it.
func (h *GardenHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.garden.DeleteSection)
}

// AddSubSection handles POST /owners/{ownerID}/sections/{id}/subsections requests.
func (h *GardenHandler) AddSubSection(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req NameRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	tree, ok := h.loadTree(w, r)
	if !ok {
		return
	}

	sub, err := h.garden.AddSubSection(r.Context(), tree, sectionID, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, sub)
}

// RenameSubSection handles PATCH /owners/{ownerID}/subsections/{id} requests.
func (h *GardenHandler) RenameSubSection(w http.ResponseWriter, r *http.Request) {
	h.rename(w, r, func(tree *hierarchy.Tree, id uuid.UUID, name string) (interface{}, error) {
		if err := h.garden.RenameSubSection(r.Context(), tree, id, name); err != nil {
			return nil, err
		}
		sub, _ := tree.FindSubSection(id)
		return sub, nil
	})
}

// DeleteSubSection handles DELETE /owners/{ownerID}/subsections/{id} requests.
// The sub-section's items are deleted with it.
func (h *GardenHandler) DeleteSubSection(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.garden.DeleteSubSection)
}

// AddItem handles POST /owners/{ownerID}/subsections/{id}/items requests.
func (h *GardenHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	subSectionID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req ItemRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	tree, ok := h.loadTree(w, r)
	if !ok {
		return
	}

	item, err := h.garden.AddItem(r.Context(), tree, subSectionID, req.Front, req.Back)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, item)
}

// EditItem handles PUT /owners/{ownerID}/items/{id} requests.
// Only the text changes; the item's card is kept.
func (h *GardenHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req ItemRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	tree, ok := h.loadTree(w, r)
	if !ok {
		return
	}

	item, err := h.garden.EditItem(r.Context(), tree, itemID, req.Front, req.Back)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// DeleteItem handles DELETE /owners/{ownerID}/items/{id} requests.
func (h *GardenHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.garden.DeleteItem)
}

// loadTree reads the collection of the {ownerID} path parameter, writing
// the error response itself when that fails.
func (h *GardenHandler) loadTree(w http.ResponseWriter, r *http.Request) (*hierarchy.Tree, bool) {
	ownerID, ok := handlePathUUID(w, r, "ownerID")
	if !ok {
		return nil, false
	}

	tree, err := h.garden.Load(r.Context(), ownerID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	return tree, true
}

type renameFunc func(tree *hierarchy.Tree, id uuid.UUID, name string) (interface{}, error)

func (h *GardenHandler) rename(w http.ResponseWriter, r *http.Request, fn renameFunc) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req NameRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	tree, ok := h.loadTree(w, r)
	if !ok {
		return
	}

	renamed, err := fn(tree, id, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, renamed)
}

type deleteFunc func(ctx context.Context, tree *hierarchy.Tree, id uuid.UUID) (int, error)

func (h *GardenHandler) delete(w http.ResponseWriter, r *http.Request, fn deleteFunc) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	tree, ok := h.loadTree(w, r)
	if !ok {
		return
	}

	removed, err := fn(r.Context(), tree, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("nodes deleted",
		slog.String("id", id.String()),
		slog.Int("removed", removed))
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{Removed: removed})
}
