package relationship

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns relationship router. rateLimit runs after auth and
// caps per-user action throughput.
func (h *Handler) Routes(authMiddleware, rateLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)
	r.Use(rateLimit)

	r.Post("/{id}/like", h.Like)
	r.Post("/{id}/unlike", h.Unlike)
	r.Post("/{id}/block", h.Block)
	r.Get("/{id}", h.GetStatus)

	return r
}
