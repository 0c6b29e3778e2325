package trials

import (
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /trials.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/new", h.ServeNew)
		pr.Post("/new", h.HandleCreate)
	})
	return r
}
