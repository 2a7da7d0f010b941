package radar

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns radar router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)

	r.Post("/location", h.UpdateLocation)
	r.Get("/", h.Nearby)

	return r
}
