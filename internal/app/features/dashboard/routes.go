// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard feature under whatever mount point
// the top-level router chooses (e.g., "/dashboard").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
		pr.Post("/refresh", h.HandleRefresh)
		pr.Post("/matches/{id}/approve", h.HandleApprove)
		pr.Post("/matches/{id}/reject", h.HandleReject)
	})

	return r
}
