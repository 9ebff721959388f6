package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/brainace/internal/api/shared"
	"github.com/phrazzld/brainace/internal/due"
	"github.com/phrazzld/brainace/internal/platform/logger"
	"github.com/phrazzld/brainace/internal/service"
	"github.com/phrazzld/brainace/internal/session"
)

// SessionHandler handles review session requests.
type SessionHandler struct {
	garden        service.GardenService
	review        service.ReviewService
	registry      *SessionRegistry
	defaultFilter due.Filter
	logger        *slog.Logger
}

// NewSessionHandler creates a new SessionHandler. Sessions started without
// a filter use defaultFilter.
func NewSessionHandler(
	garden service.GardenService,
	review service.ReviewService,
	registry *SessionRegistry,
	defaultFilter due.Filter,
	logger *slog.Logger,
) *SessionHandler {
	if garden == nil || review == nil || registry == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("services and registry cannot be nil for SessionHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}
	if !defaultFilter.IsValid() {
		defaultFilter = due.FilterToday
	}

	return &SessionHandler{
		garden:        garden,
		review:        review,
		registry:      registry,
		defaultFilter: defaultFilter,
		logger:        logger.With(slog.String("component", "session_handler")),
	}
}

// RegisterRoutes mounts the session endpoints on r.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/owners/{ownerID}/sessions", h.StartSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/transitions", h.ApplyTransition)
		r.Delete("/", h.EndSession)
	})
}

// StartSession handles POST /owners/{ownerID}/sessions requests.
// The session reviews a snapshot of the collection taken now.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, ok := handlePathUUID(w, r, "ownerID")
	if !ok {
		return
	}
	var req StartSessionRequest
	if r.ContentLength != 0 && !parseAndValidateRequest(w, r, &req) {
		return
	}
	filter := h.defaultFilter
	if req.Filter != "" {
		filter = due.Filter(req.Filter)
	}

	tree, err := h.garden.Load(r.Context(), ownerID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	engine, err := h.review.StartSession(r.Context(), tree, filter)
	if err != nil {
		msg := ""
		if MapErrorToStatusCode(err) == http.StatusInternalServerError {
			msg = "Failed to start review session"
		}
		HandleAPIError(w, r, err, msg)
		return
	}
	if err := h.registry.Add(engine); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("review session started",
		slog.String("owner_id", ownerID.String()),
		slog.String("session_id", engine.ID().String()),
		slog.String("filter", string(filter)))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(engine))
}

// GetSession handles GET /sessions/{sessionID} requests.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	var resp SessionResponse
	err := h.registry.Do(id, func(e *session.Engine) error {
		resp = sessionToResponse(e)
		return nil
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ApplyTransition handles POST /sessions/{sessionID}/transitions requests.
// A rejected transition leaves the session unchanged.
func (h *SessionHandler) ApplyTransition(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "sessionID")
	if !ok {
		return
	}
	var req TransitionRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	t, err := session.ParseTransition(req.Type, req.Rating)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var resp SessionResponse
	err = h.registry.Do(id, func(e *session.Engine) error {
		if _, err := e.Apply(r.Context(), t); err != nil {
			return err
		}
		resp = sessionToResponse(e)
		return nil
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// EndSession handles DELETE /sessions/{sessionID} requests.
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "sessionID")
	if !ok {
		return
	}
	if !h.registry.Remove(id) {
		HandleAPIError(w, r, ErrSessionNotFound, "")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("review session ended",
		slog.String("session_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
