package gig

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nearlink/nearlink-api/internal/middleware"
	"github.com/nearlink/nearlink-api/internal/pkg/errorhandler"
	"github.com/nearlink/nearlink-api/internal/pkg/response"
	"github.com/nearlink/nearlink-api/internal/pkg/validator"
)

// Handler handles gig HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates gig handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /gigs
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	g, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "GIG_CREATION_FAILED", "Failed to create gig", err)
		return
	}

	response.Created(w, g)
}

// GetByID handles GET /gigs/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	gigID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid gig ID")
		return
	}

	g, err := h.service.GetByID(r.Context(), gigID)
	if err != nil {
		if errors.Is(err, ErrGigNotFound) {
			response.NotFound(w, "Gig not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, g)
}

// Close handles POST /gigs/{id}/close
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	gigID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid gig ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	g, err := h.service.Close(r.Context(), userID, gigID)
	if err != nil {
		switch {
		case errors.Is(err, ErrGigNotFound):
			response.NotFound(w, "Gig not found")
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, "Only the gig owner can close it")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, g)
}

// Apply handles POST /gigs/{id}/applications
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	gigID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid gig ID")
		return
	}

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	app, err := h.service.Apply(r.Context(), userID, gigID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGigNotFound):
			response.NotFound(w, "Gig not found")
		case errors.Is(err, ErrOwnApplication):
			response.BadRequest(w, "Cannot apply to your own gig")
		case errors.Is(err, ErrGigClosed):
			response.Conflict(w, "GIG_CLOSED", "Gig is no longer accepting applications")
		case errors.Is(err, ErrDuplicateApplication):
			response.Conflict(w, "DUPLICATE_APPLICATION", "You have already applied to this gig")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, ApplicationResponseFromEntity(app))
}

// Respond handles POST /gigs/{id}/applications/{appID}/respond
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	gigID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid gig ID")
		return
	}
	appID, err := uuid.Parse(chi.URLParam(r, "appID"))
	if err != nil {
		response.BadRequest(w, "Invalid application ID")
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	app, err := h.service.Respond(r.Context(), userID, gigID, appID, ApplicationStatus(req.Decision))
	if err != nil {
		switch {
		case errors.Is(err, ErrGigNotFound):
			response.NotFound(w, "Gig not found")
		case errors.Is(err, ErrApplicationNotFound):
			response.NotFound(w, "Application not found")
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, "Only the gig owner can respond to applications")
		case errors.Is(err, ErrAlreadyResponded):
			response.Conflict(w, "ALREADY_RESPONDED", "Application has already been responded to")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, ApplicationResponseFromEntity(app))
}

// ListByGig handles GET /gigs/{id}/applications
func (h *Handler) ListByGig(w http.ResponseWriter, r *http.Request) {
	gigID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid gig ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	apps, err := h.service.ListByGig(r.Context(), userID, gigID)
	if err != nil {
		switch {
		case errors.Is(err, ErrGigNotFound):
			response.NotFound(w, "Gig not found")
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, "Only the gig owner can list applications")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, ApplicationListFromEntities(apps))
}

// ListMy handles GET /applications/my
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	apps, err := h.service.ListMyApplications(r.Context(), userID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "APPLICATION_LIST_FAILED", "Failed to list applications", err)
		return
	}

	response.OK(w, ApplicationListFromEntities(apps))
}
