// internal/app/features/trials/handler.go
package trials

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"github.com/dalemusser/clinsync/internal/app/system/auditlog"
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clinsync/internal/app/system/matchboard"
	"github.com/dalemusser/clinsync/internal/app/system/timeouts"
	"github.com/dalemusser/clinsync/internal/app/system/viewdata"
	"github.com/dalemusser/clinsync/internal/domain/forms"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// TrialCreator posts new trials to the backend.
type TrialCreator interface {
	CreateTrial(ctx context.Context, t models.Trial) (models.Trial, error)
}

type Handler struct {
	API        TrialCreator
	Boards     *matchboard.Registry
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(api TrialCreator, boards *matchboard.Registry, sessionMgr *auth.SessionManager, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		API:        api,
		Boards:     boards,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type trialFormData struct {
	viewdata.BaseVM
	Errors []string
	Form   forms.TrialForm
}

// ServeNew renders the empty form (GET /trials/new).
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "trial_new", trialFormData{
		BaseVM: viewdata.NewBaseVM(r, "Create Trial", "/dashboard"),
	})
}

// HandleCreate validates and posts the trial (POST /trials/new). The
// description is sanitized before it leaves this service.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/trials/new")
		return
	}
	org, _ := auth.CurrentOrg(r)

	form := forms.ParseTrial(r)
	form.Description = htmlsanitize.Sanitize(form.Description)
	if err := form.Validate(); err != nil {
		v, _ := faults.AsValidation(err)
		h.renderForm(w, r, http.StatusUnprocessableEntity, form, v.Messages()...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Action(), h.Log, "create trial")
	defer cancel()

	created, err := h.API.CreateTrial(ctx, form.Trial(org.ID))
	h.AuditLog.TrialCreated(ctx, r, org.ID, created.ID, form.Title, err)
	if err != nil {
		h.Log.Warn("create trial failed", zap.String("org_id", org.ID), zap.Error(err))
		h.renderForm(w, r, http.StatusBadGateway, form, "Failed to create trial. Please try again.")
		return
	}

	if h.Boards != nil {
		h.Boards.For(org.ID).Invalidate()
	}
	h.Log.Info("trial created", zap.String("org_id", org.ID), zap.String("trial_id", created.ID))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, form forms.TrialForm, msgs ...string) {
	viewdata.RenderStatus(w, r, status, "trial_new", trialFormData{
		BaseVM: viewdata.NewBaseVM(r, "Create Trial", "/dashboard"),
		Errors: msgs,
		Form:   form,
	})
}
