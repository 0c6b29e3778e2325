package dashboard

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/dalemusser/clinsync/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clinsync/internal/app/system/matchboard"
	"github.com/dalemusser/clinsync/internal/app/system/viewdata"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type matchVM struct {
	ID          string
	Status      string
	Pending     bool
	Name        string
	Email       string
	ReportHTML  template.HTML
	Unavailable bool
	Reason      string
}

type trialVM struct {
	ID              string
	Title           string
	DescriptionHTML template.HTML
	StartDate       string
	EndDate         string
	Location        string
	Compensation    string
	Criteria        []string
	Pending         int
	Matches         []matchVM
}

type dashboardData struct {
	viewdata.BaseVM
	Trials      []trialVM
	RefreshedAt time.Time
}

func toMatchVM(m models.Match) matchVM {
	vm := matchVM{
		ID:          m.ID,
		Status:      m.Status,
		Pending:     m.IsPending(),
		Name:        m.DisplayName(),
		Unavailable: m.CandidateUnavailable(),
		Reason:      m.CandidateError,
	}
	if m.Candidate != nil {
		vm.Email = m.Candidate.Email
		vm.ReportHTML = htmlsanitize.PlainTextToHTML(htmlsanitize.StripTags(m.Candidate.Report))
	}
	return vm
}

func toTrialVM(t models.Trial) trialVM {
	return trialVM{
		ID:              t.ID,
		Title:           t.Title,
		DescriptionHTML: htmlsanitize.SanitizeToHTML(t.Description),
		StartDate:       t.StartDate,
		EndDate:         t.EndDate,
		Location:        t.Location,
		Compensation:    t.Compensation,
		Criteria:        t.Criteria,
		Pending:         t.PendingCount(),
		Matches: lo.Map(t.Matches, func(m models.Match, _ int) matchVM {
			return toMatchVM(m)
		}),
	}
}

func (h *Handler) viewModel(w http.ResponseWriter, r *http.Request, b *matchboard.Board, flashes []string) dashboardData {
	base := viewdata.NewBaseVM(r, "Dashboard", "/")
	if flashes == nil {
		base = base.WithFlashes(w, r, h.SessionMgr)
	} else {
		base.Flashes = flashes
	}
	return dashboardData{
		BaseVM: base,
		Trials: lo.Map(b.Trials(), func(t models.Trial, _ int) trialVM {
			return toTrialVM(t)
		}),
		RefreshedAt: b.RefreshedAt(),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /dashboard                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeDashboard renders the board, refreshing it first when stale. If the
// trial list cannot be fetched the whole page is an error.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	b := h.board(r)
	if err := h.refresh(r.Context(), b, false); err != nil {
		h.ErrLog.LogBadGateway(w, r, "dashboard refresh failed", err, LoadErrorMessage, "/dashboard")
		return
	}
	templates.Render(w, r, "dashboard", h.viewModel(w, r, b, nil))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /dashboard.json                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type boardJSON struct {
	OrganizationID string         `json:"organization_id"`
	RefreshedAt    time.Time      `json:"refreshed_at"`
	Trials         []models.Trial `json:"trials"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// ServeJSON returns the board tree. Unavailable candidates carry user_error.
func (h *Handler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	b := h.board(r)
	w.Header().Set("Content-Type", "application/json")

	if err := h.refresh(r.Context(), b, false); err != nil {
		h.Log.Warn("dashboard refresh failed", zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(errorJSON{Error: LoadErrorMessage})
		return
	}

	trials := b.Trials()
	if trials == nil {
		trials = []models.Trial{}
	}
	_ = json.NewEncoder(w).Encode(boardJSON{
		OrganizationID: b.OrgID(),
		RefreshedAt:    b.RefreshedAt(),
		Trials:         trials,
	})
}
