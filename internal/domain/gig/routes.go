package gig

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns gig router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/close", h.Close)
	r.Post("/{id}/applications", h.Apply)
	r.Get("/{id}/applications", h.ListByGig)
	r.Post("/{id}/applications/{appID}/respond", h.Respond)

	return r
}

// ApplicationRoutes returns the applicant-facing router
func (h *Handler) ApplicationRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Get("/my", h.ListMy)

	return r
}
