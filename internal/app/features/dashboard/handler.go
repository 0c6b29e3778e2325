// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"github.com/dalemusser/clinsync/internal/app/system/auditlog"
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/dalemusser/clinsync/internal/app/system/matchboard"
	"github.com/dalemusser/clinsync/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// LoadErrorMessage is shown when the trial list itself cannot be fetched.
const LoadErrorMessage = "Failed to load trials. Please try again later."

// Handler serves the organization dashboard. Boards live in the registry
// for the lifetime of the process; each request works on its org's board.
type Handler struct {
	Boards     *matchboard.Registry
	MaxAge     time.Duration
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(boards *matchboard.Registry, maxAge time.Duration, sessionMgr *auth.SessionManager, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Boards:     boards,
		MaxAge:     maxAge,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// board returns the signed-in organization's board. RequireSignedIn runs
// first, so the organization is always present.
func (h *Handler) board(r *http.Request) *matchboard.Board {
	org, _ := auth.CurrentOrg(r)
	return h.Boards.For(org.ID)
}

// refresh reloads b, forcing a reload when force is set and otherwise only
// when the board is stale.
func (h *Handler) refresh(ctx context.Context, b *matchboard.Board, force bool) error {
	if !force && !b.Stale(h.MaxAge) {
		return nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Refresh(), h.Log, "dashboard refresh")
	defer cancel()
	return b.Refresh(ctx)
}
