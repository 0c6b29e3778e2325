package volunteer

import "github.com/go-chi/chi/v5"

// Routes is mounted at /volunteer. The intake form is public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeForm)
	r.Post("/", h.HandleSubmit)
	r.Post("/documents", h.HandleUpload)
	r.Get("/documents/progress", h.ServeProgress)
	r.Post("/documents/{index}/delete", h.HandleDelete)
	return r
}
