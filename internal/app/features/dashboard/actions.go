package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/dalemusser/clinsync/internal/app/system/matchboard"
	"github.com/dalemusser/clinsync/internal/app/system/navigation"
	"github.com/dalemusser/clinsync/internal/app/system/timeouts"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleRefresh forces a reload (POST /dashboard/refresh).
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	b := h.board(r)
	if err := h.refresh(r.Context(), b, true); err != nil {
		h.ErrLog.LogBadGateway(w, r, "dashboard refresh failed", err, LoadErrorMessage, "/dashboard")
		return
	}
	h.respond(w, r, b, "")
}

// HandleApprove handles POST /dashboard/matches/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.MatchApproved, func(ctx context.Context, b *matchboard.Board, id string) error {
		return b.Approve(ctx, id)
	})
}

// HandleReject handles POST /dashboard/matches/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.MatchRejected, func(ctx context.Context, b *matchboard.Board, id string) error {
		return b.Reject(ctx, id)
	})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, status string, apply func(context.Context, *matchboard.Board, string) error) {
	org, _ := auth.CurrentOrg(r)
	matchID := chi.URLParam(r, "id")
	b := h.Boards.For(org.ID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Action(), h.Log, "match decision")
	defer cancel()

	err := apply(ctx, b, matchID)
	h.AuditLog.MatchDecision(ctx, r, org.ID, matchID, status, err)

	flash := ""
	if err != nil {
		verb := "approve"
		if status == models.MatchRejected {
			verb = "reject"
		}
		flash = "Failed to " + verb + " match. Please try again."
		h.Log.Warn("match decision failed",
			zap.String("org_id", org.ID),
			zap.String("match_id", matchID),
			zap.Error(err))
	}
	h.respond(w, r, b, flash)
}

// respond re-renders the board fragment for HTMX callers, or queues the
// flash and redirects back to the dashboard.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, b *matchboard.Board, flash string) {
	if r.Header.Get("HX-Request") == "true" {
		var flashes []string
		if flash != "" {
			flashes = []string{flash}
		} else {
			flashes = []string{}
		}
		templates.RenderSnippet(w, "dashboard_board", h.viewModel(w, r, b, flashes))
		return
	}
	if flash != "" {
		if err := h.SessionMgr.AddFlash(w, r, flash); err != nil {
			h.Log.Warn("queue flash failed", zap.Error(err))
		}
	}
	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.Dashboard), http.StatusSeeOther)
}
