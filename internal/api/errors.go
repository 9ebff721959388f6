package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/brainace/internal/api/shared"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/domain/srs"
	"github.com/phrazzld/brainace/internal/service"
	"github.com/phrazzld/brainace/internal/session"
	"github.com/phrazzld/brainace/internal/store"
)

// Errors raised by the HTTP layer itself.
var (
	// ErrSessionNotFound is returned when a session id is unknown or has expired.
	ErrSessionNotFound = errors.New("review session not found")

	// ErrTooManySessions is returned when the session registry is full.
	ErrTooManySessions = errors.New("too many active review sessions")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// Corrupt stored data is checked first: the wrapped decode error would
	// otherwise look like a validation failure.
	case errors.Is(err, store.ErrCorruptData):
		return http.StatusInternalServerError

	// Not found errors
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, ErrTooManySessions):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrCorruptData):
		return "Stored review data could not be read"

	// Not found errors
	case errors.Is(err, store.ErrCollectionNotFound):
		return "Collection not found"
	case errors.Is(err, store.ErrSectionNotFound):
		return "Section not found"
	case errors.Is(err, store.ErrSubSectionNotFound):
		return "Sub-section not found"
	case errors.Is(err, store.ErrItemNotFound):
		return "Item not found"
	case errors.Is(err, ErrSessionNotFound):
		return "Review session not found"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, store.ErrConflict):
		return "Item was reviewed elsewhere; reload and try again"
	case errors.Is(err, store.ErrCollectionExists):
		return "Owner already has a collection"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"
	case errors.Is(err, session.ErrInvalidTransition):
		var te *session.TransitionError
		if errors.As(err, &te) && te.Transition != nil {
			return fmt.Sprintf("Cannot %s while %s", te.Transition.Name(), te.From)
		}
		return "Invalid session transition"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidRating):
		return "Invalid rating"
	case errors.Is(err, domain.ErrEmptyName):
		return "Name cannot be empty"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, ErrTooManySessions):
		return "Too many active review sessions"

	// Collaborator failures
	case errors.Is(err, srs.ErrSchedulerFailed):
		return "Failed to schedule review"
	case errors.Is(err, session.ErrCollaboratorFailed):
		return "Failed to record review"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err, logging the
// full error. A non-empty message overrides the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid", "uuid4":
		return "invalid identifier"
	default:
		return "validation failed"
	}
}
