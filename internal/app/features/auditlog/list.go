// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"github.com/dalemusser/clinsync/internal/app/store/audit"
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/dalemusser/clinsync/internal/app/system/timeouts"
	"github.com/dalemusser/clinsync/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/samber/lo"
)

const pageSize = 50

// ServeList handles GET /activity: the signed-in organization's audit
// events, newest first, with category, type and date filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	org, ok := auth.CurrentOrg(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Action(), h.Log, "activity list")
	defer cancel()

	category := strings.TrimSpace(query.Get(r, "category"))
	eventType := strings.TrimSpace(query.Get(r, "event_type"))
	startDate := strings.TrimSpace(query.Get(r, "start_date"))
	endDate := strings.TrimSpace(query.Get(r, "end_date"))

	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}

	// Unknown filter values are dropped rather than matching nothing.
	if eventTypesForCategory(category) == nil {
		category = ""
	}
	if eventType != "" && !lo.Contains(eventTypesForCategory(category), eventType) {
		eventType = ""
	}

	filter := audit.QueryFilter{
		OrganizationID: org.ID,
		Category:       category,
		EventType:      eventType,
		Limit:          pageSize,
		Offset:         int64((page - 1) * pageSize),
	}
	if startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartTime = &t
		}
	}
	if endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "A database error occurred.", "/dashboard")
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "A database error occurred.", "/dashboard")
		return
	}

	items := lo.Map(events, func(e audit.Event, _ int) listItem {
		label, ok := eventLabels[e.EventType]
		if !ok {
			label = e.EventType
		}
		return listItem{
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			Label:         label,
			Subject:       e.Subject,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
	})

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	prevPage := max(page-1, 1)
	nextPage := min(page+1, totalPages)

	templates.Render(w, r, "activity_list", listData{
		BaseVM:     viewdata.NewBaseVM(r, "Activity", "/dashboard"),
		Items:      items,
		Category:   category,
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(category),
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Shown:      len(items),
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   prevPage,
		NextPage:   nextPage,
	})
}
