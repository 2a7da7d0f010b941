package relationship

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nearlink/nearlink-api/internal/middleware"
	"github.com/nearlink/nearlink-api/internal/pkg/response"
)

// Handler handles relationship HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates relationship handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Like handles POST /relationships/{id}/like
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Like)
}

// Unlike handles POST /relationships/{id}/unlike
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.UnlikeOrBreak)
}

// Block handles POST /relationships/{id}/block
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Block)
}

// GetStatus handles GET /relationships/{id}
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	rel, err := h.service.Status(r.Context(), userID, targetID)
	if err != nil {
		if errors.Is(err, ErrSelfRelationship) {
			response.BadRequest(w, "Cannot query a relationship with yourself")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, StatusResponseFromEntity(rel, userID))
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, uuid.UUID) (*Relationship, error)) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	rel, err := fn(r.Context(), userID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfRelationship):
			response.BadRequest(w, "Cannot act on a relationship with yourself")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(w, "INVALID_TRANSITION", "Action is not valid for the current relationship state")
		case errors.Is(err, ErrConflictExceeded):
			response.Conflict(w, "CONFLICT_RETRY", "Concurrent update, please retry")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, StatusResponseFromEntity(rel, userID))
}
