// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the activity log under the path where this router is
// mounted (typically "/activity" from bootstrap). An organization only ever
// sees its own events.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
	})

	return r
}
