package volunteer

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dalemusser/clinsync/internal/app/system/extract"
	"github.com/dalemusser/clinsync/internal/app/system/timeouts"
	"github.com/dalemusser/clinsync/internal/domain/forms"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /volunteer/documents                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpload extracts the uploaded files in order and appends them to the
// draft's pending list. A second upload while one is running gets 409.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFor(w, r)
	if !ok {
		return
	}
	if !d.begin() {
		http.Error(w, "documents are still being processed", http.StatusConflict)
		return
	}
	var docsAdded bool
	defer func() {
		if !docsAdded {
			d.finish(nil)
		}
	}()

	limit := h.MaxUpload*maxFilesPerUpload + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse upload failed", err, "The upload could not be read.", "/volunteer")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["documents"]
	if len(headers) > maxFilesPerUpload {
		headers = headers[:maxFilesPerUpload]
	}

	var rejected []string
	files := make([]extract.File, 0, len(headers))
	for _, fh := range headers {
		f, err := extract.FromMultipart(fh, h.MaxUpload)
		if err != nil {
			rejected = append(rejected, err.Error())
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		if len(rejected) == 0 {
			rejected = []string{"Please choose at least one PDF, JPG or PNG file."}
		}
		h.respond(w, r, d, http.StatusBadRequest, rejected)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Extract(), h.Log, "extract documents")
	defer cancel()

	docs := h.Pipeline.ExtractAll(ctx, files, d.setProgress)
	d.finish(docs)
	docsAdded = true

	h.Log.Info("documents extracted",
		zap.Int("files", len(docs)),
		zap.Int("rejected", len(rejected)))
	h.respond(w, r, d, http.StatusOK, rejected)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /volunteer/documents/{index}/delete                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDelete removes one pending document, keeping the order of the rest.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFor(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid document index", http.StatusBadRequest)
		return
	}
	if _, err := d.batch.Remove(index); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.respond(w, r, d, http.StatusOK, nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /volunteer/documents/progress                                           |
*─────────────────────────────────────────────────────────────────────────────*/

type progressJSON struct {
	Progress  float64 `json:"progress"`
	InFlight  bool    `json:"in_flight"`
	Documents int     `json:"documents"`
}

// ServeProgress reports the running batch's completed fraction.
func (h *Handler) ServeProgress(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFor(w, r)
	if !ok {
		return
	}
	progress, inFlight := d.status()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(progressJSON{
		Progress:  progress,
		InFlight:  inFlight,
		Documents: d.batch.Len(),
	})
}

// respond re-renders the pending list with status for HTMX callers; everyone
// else is sent back to the form with msgs as flashes.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, d *draft, status int, msgs []string) {
	if r.Header.Get("HX-Request") == "true" {
		vm := h.viewModel(w, r, d, forms.VolunteerForm{}, nil)
		vm.Flashes = msgs
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.RenderSnippet(w, "volunteer_documents", vm)
		return
	}
	for _, m := range msgs {
		if err := h.SessionMgr.AddFlash(w, r, m); err != nil {
			h.Log.Warn("queue flash failed", zap.Error(err))
		}
	}
	http.Redirect(w, r, "/volunteer", http.StatusSeeOther)
}
