// internal/app/features/volunteer/handler.go
package volunteer

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"github.com/dalemusser/clinsync/internal/app/system/auditlog"
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/dalemusser/clinsync/internal/app/system/extract"
	"github.com/dalemusser/clinsync/internal/app/system/viewdata"
	"github.com/dalemusser/clinsync/internal/domain/forms"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// maxFilesPerUpload bounds one multipart request.
const maxFilesPerUpload = 10

// ApplicationSaver persists submitted intake forms.
type ApplicationSaver interface {
	Create(ctx context.Context, app models.VolunteerApplication) (models.VolunteerApplication, error)
}

// Handler serves the volunteer health-intake form and its document uploads.
type Handler struct {
	Pipeline   *extract.Pipeline
	Drafts     *Drafts
	Apps       ApplicationSaver
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	MaxUpload  int64 // bytes per file
	Log        *zap.Logger
}

func NewHandler(pipeline *extract.Pipeline, drafts *Drafts, apps ApplicationSaver, sessionMgr *auth.SessionManager, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, maxUpload int64, logger *zap.Logger) *Handler {
	return &Handler{
		Pipeline:   pipeline,
		Drafts:     drafts,
		Apps:       apps,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		ErrLog:     errLog,
		MaxUpload:  maxUpload,
		Log:        logger,
	}
}

type documentVM struct {
	Index  int
	Name   string
	Kind   string
	Size   int64
	Failed bool
	Text   string
}

type volunteerFormData struct {
	viewdata.BaseVM
	Errors    []string
	Form      forms.VolunteerForm
	Genders   []string
	Documents []documentVM
	Progress  int // percent
	InFlight  bool
	MaxMB     int64
}

// draftFor returns the caller's draft, issuing an intake id on first use.
func (h *Handler) draftFor(w http.ResponseWriter, r *http.Request) (*draft, bool) {
	id, err := h.SessionMgr.IntakeID(w, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue intake id failed", err, "Could not start your application.", "/")
		return nil, false
	}
	return h.Drafts.get(id), true
}

func (h *Handler) viewModel(w http.ResponseWriter, r *http.Request, d *draft, form forms.VolunteerForm, errs []string) volunteerFormData {
	progress, inFlight := d.status()
	docs := d.batch.Documents()
	vms := make([]documentVM, len(docs))
	for i, doc := range docs {
		vms[i] = documentVM{
			Index:  i,
			Name:   doc.Name,
			Kind:   doc.Kind,
			Size:   doc.Size,
			Failed: doc.Failed,
			Text:   doc.Text,
		}
	}
	return volunteerFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Volunteer Application", "/").WithFlashes(w, r, h.SessionMgr),
		Errors:    errs,
		Form:      form,
		Genders:   forms.Genders,
		Documents: vms,
		Progress:  int(progress * 100),
		InFlight:  inFlight,
		MaxMB:     h.MaxUpload >> 20,
	}
}

// ServeForm handles GET /volunteer.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFor(w, r)
	if !ok {
		return
	}
	templates.Render(w, r, "volunteer", h.viewModel(w, r, d, forms.VolunteerForm{}, nil))
}
