package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nearlink/nearlink-api/internal/middleware"
	"github.com/nearlink/nearlink-api/internal/pkg/response"
	"github.com/nearlink/nearlink-api/internal/pkg/validator"
)

// Handler handles user HTTP requests
type Handler struct {
	repo Repository
}

// NewHandler creates user handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Me handles GET /users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	u, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}
	if u == nil {
		response.NotFound(w, "User not found")
		return
	}

	response.OK(w, ProfileResponseFromEntity(u))
}

// UpdateVisibility handles PUT /users/me/visibility
func (h *Handler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	var req UpdateVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.repo.UpdateVisibility(r.Context(), userID, Visibility(req.Visibility)); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"visibility": req.Visibility})
}
