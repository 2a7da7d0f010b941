package radar

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nearlink/nearlink-api/internal/middleware"
	"github.com/nearlink/nearlink-api/internal/pkg/response"
	"github.com/nearlink/nearlink-api/internal/pkg/validator"
)

const defaultRadiusKm = 5.0

// Handler handles radar HTTP requests
type Handler struct {
	index *Index
}

// NewHandler creates radar handler
func NewHandler(index *Index) *Handler {
	return &Handler{index: index}
}

// UpdateLocation handles POST /radar/location
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	applied := h.index.Update(userID, req.Latitude, req.Longitude, req.RecordedAt)

	response.OK(w, &UpdateLocationResponse{Applied: applied})
}

// Nearby handles GET /radar?radius=
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	radiusKm := defaultRadiusKm
	if raw := r.URL.Query().Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, "Invalid radius")
			return
		}
		radiusKm = parsed
	}

	userID := middleware.GetUserID(r.Context())
	neighbors, err := h.index.Nearby(r.Context(), userID, radiusKm, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, ErrNoLocation):
			response.BadRequest(w, "Report your location before querying the radar")
		case errors.Is(err, ErrRadiusTooLarge):
			response.BadRequest(w, "Radius exceeds the maximum")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, &NearbyResponse{Neighbors: neighbors, RadiusKm: radiusKm})
}
