// internal/app/features/login/handler.go
package login

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
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

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

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Errors    []string
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentOrg(r); ok {
		http.Redirect(w, r, navigation.SafeBackURL(r, navigation.AfterSignIn), http.StatusSeeOther)
		return
	}
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Organization Login", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	form := forms.ParseLogin(r)
	if err := form.Validate(); err != nil {
		v, _ := faults.AsValidation(err)
		h.renderForm(w, r, http.StatusUnprocessableEntity, form.Email, v.Messages()...)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, form.Email); !ok {
			h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
			h.renderForm(w, r, http.StatusTooManyRequests, form.Email, reason)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Action(), h.Log, "login")
	defer cancel()

	sess := orgsession.New(h.API, h.Log)
	if org, ok := auth.CurrentOrg(r); ok {
		sess.Restore(org)
	}

	org, err := sess.Login(ctx, form.Credentials())
	if err != nil {
		h.AuditLog.LoginFailed(ctx, r, form.Email, err)
		msg := "Login failed. Please try again."
		if apiclient.IsStatus(err, http.StatusUnauthorized) || apiclient.IsStatus(err, http.StatusNotFound) {
			msg = "Invalid email or password."
		}
		h.renderForm(w, r, http.StatusUnauthorized, form.Email, msg)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, org); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Could not sign you in.", "/login")
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(form.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, org.ID, org.Email)
	h.Log.Info("organization signed in", zap.String("org_id", org.ID))

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.AfterSignIn), http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, email string, msgs ...string) {
	viewdata.RenderStatus(w, r, status, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Organization Login", "/"),
		Errors:    msgs,
		Email:     email,
		ReturnURL: r.FormValue("return"),
	})
}
