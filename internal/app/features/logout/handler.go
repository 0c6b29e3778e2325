package logout

import (
	"net/http"

	"github.com/dalemusser/clinsync/internal/app/system/auditlog"
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"go.uber.org/zap"
)

// BoardDropper forgets an organization's in-memory dashboard.
type BoardDropper interface {
	Drop(orgID string)
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Boards     BoardDropper
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, boards BoardDropper, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Boards:     boards,
		AuditLog:   audit,
	}
}

// ServeLogout handles GET and POST /logout. It always ends anonymous.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if org, ok := auth.CurrentOrg(r); ok {
		if h.Boards != nil {
			h.Boards.Drop(org.ID)
		}
		h.AuditLog.Logout(r.Context(), r, org.ID)
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation to "/".
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
