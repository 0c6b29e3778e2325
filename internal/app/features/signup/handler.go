// internal/app/features/signup/handler.go
package signup

import (
	"net/http"

	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"github.com/dalemusser/clinsync/internal/app/system/apiclient"
	"github.com/dalemusser/clinsync/internal/app/system/auditlog"
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/app/system/navigation"
	"github.com/dalemusser/clinsync/internal/app/system/orgsession"
	"github.com/dalemusser/clinsync/internal/app/system/ratelimit"
	"github.com/dalemusser/clinsync/internal/app/system/timeouts"
	"github.com/dalemusser/clinsync/internal/app/system/viewdata"
	"github.com/dalemusser/clinsync/internal/domain/forms"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves organization registration.
type Handler struct {
	API        orgsession.Authenticator
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(api orgsession.Authenticator, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		API:        api,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limiter:    limiter,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type signupFormData struct {
	viewdata.BaseVM
	Errors []string
	Name   string
	Email  string
}

// ServeSignup handles GET /signup.
func (h *Handler) ServeSignup(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "signup", signupFormData{
		BaseVM: viewdata.NewBaseVM(r, "Register Organization", "/"),
	})
}

// HandleSignupPost handles POST /signup. On success the new organization is
// signed in; on failure the form is shown again and nothing changes.
func (h *Handler) HandleSignupPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/signup")
		return
	}

	form := forms.ParseSignup(r)
	if err := form.Validate(); err != nil {
		v, _ := faults.AsValidation(err)
		h.renderForm(w, r, http.StatusUnprocessableEntity, form, v.Messages()...)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, form.Email); !ok {
			h.renderForm(w, r, http.StatusTooManyRequests, form, reason)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Action(), h.Log, "signup")
	defer cancel()

	sess := orgsession.New(h.API, h.Log)
	org, err := sess.Signup(ctx, form.Details())
	h.AuditLog.Signup(ctx, r, org.ID, form.Email, err)
	if err != nil {
		status, msg := http.StatusBadGateway, "Sign up failed. Please try again."
		if apiclient.IsStatus(err, http.StatusBadRequest) || apiclient.IsStatus(err, http.StatusConflict) {
			status, msg = http.StatusBadRequest, "An organization with this email is already registered."
		}
		h.renderForm(w, r, status, form, msg)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, org); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Your organization was created but we could not sign you in.", "/login")
		return
	}
	h.Log.Info("organization registered", zap.String("org_id", org.ID))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.AfterSignIn), http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, form forms.SignupForm, msgs ...string) {
	viewdata.RenderStatus(w, r, status, "signup", signupFormData{
		BaseVM: viewdata.NewBaseVM(r, "Register Organization", "/"),
		Errors: msgs,
		Name:   form.Name,
		Email:  form.Email,
	})
}
