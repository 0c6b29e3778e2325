package volunteer

import (
	"net/http"

	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clinsync/internal/app/system/timeouts"
	"github.com/dalemusser/clinsync/internal/app/system/viewdata"
	"github.com/dalemusser/clinsync/internal/domain/forms"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type submittedData struct {
	viewdata.BaseVM
	Name      string
	Documents int
}

// HandleSubmit validates the intake form and stores it together with the
// combined text of the pending documents (POST /volunteer).
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/volunteer")
		return
	}
	d, ok := h.draftFor(w, r)
	if !ok {
		return
	}

	form := forms.ParseVolunteer(r)
	if err := form.Validate(); err != nil {
		v, _ := faults.AsValidation(err)
		viewdata.RenderStatus(w, r, http.StatusUnprocessableEntity, "volunteer", h.viewModel(w, r, d, form, v.Messages()))
		return
	}
	if _, inFlight := d.status(); inFlight {
		viewdata.RenderStatus(w, r, http.StatusConflict, "volunteer",
			h.viewModel(w, r, d, form, []string{"Please wait until your documents finish processing."}))
		return
	}

	names := d.batch.Names()
	report := htmlsanitize.StripTags(d.batch.CombinedText())
	app := form.Application(names, report)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Action(), h.Log, "submit application")
	defer cancel()

	saved, err := h.Apps.Create(ctx, app)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "store application failed", err, "We could not save your application. Please try again.", "/volunteer")
		return
	}
	h.AuditLog.ApplicationSubmitted(ctx, r, saved.ID.Hex(), len(names))
	h.Log.Info("volunteer application stored",
		zap.String("application_id", saved.ID.Hex()),
		zap.Int("documents", len(names)))

	d.batch.Reset()

	templates.Render(w, r, "volunteer_submitted", submittedData{
		BaseVM:    viewdata.NewBaseVM(r, "Application received", "/"),
		Name:      form.Name,
		Documents: len(names),
	})
}
