// internal/app/features/logout/routes.go
package logout

import (
	"github.com/go-chi/chi/v5"
)

// Routes serves /logout. Signed-out visitors are simply sent home, so no
// sign-in guard is applied.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogout)
	r.Post("/", h.ServeLogout)
	return r
}
