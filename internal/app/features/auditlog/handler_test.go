package auditlog_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	auditlogfeature "github.com/dalemusser/clinsync/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"github.com/dalemusser/clinsync/internal/app/store/audit"
	"github.com/dalemusser/clinsync/internal/testutil"
	"go.uber.org/zap"
)

type fakeEvents struct {
	filters []audit.QueryFilter
	err     error
}

func (f *fakeEvents) Query(ctx context.Context, q audit.QueryFilter) ([]audit.Event, error) {
	f.filters = append(f.filters, q)
	if f.err != nil {
		return nil, f.err
	}
	return []audit.Event{{OrganizationID: q.OrganizationID, EventType: audit.EventLogout, Success: true}}, nil
}

func (f *fakeEvents) CountByFilter(ctx context.Context, q audit.QueryFilter) (int64, error) {
	return 1, nil
}

func serve(t *testing.T, events *fakeEvents, target string) *testutil.ResponseRecorder {
	t.Helper()
	logger := zap.NewNop()
	h := auditlogfeature.NewHandler(events, uierrors.NewErrorLogger(logger), logger)
	rec := testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest("GET", target, testutil.TestOrg())
	testutil.Render(func() { h.ServeList(rec, req) })
	return rec
}

func TestServeList_ScopedToSignedInOrg(t *testing.T) {
	events := &fakeEvents{}
	serve(t, events, "/activity?page=3&category=action&event_type=match_approved&end_date=2026-01-31")

	if len(events.filters) != 1 {
		t.Fatalf("queries: got %d, want 1", len(events.filters))
	}
	f := events.filters[0]
	if f.OrganizationID != testutil.TestOrg().ID {
		t.Errorf("OrganizationID: got %q", f.OrganizationID)
	}
	if f.Category != audit.CategoryAction || f.EventType != audit.EventMatchApproved {
		t.Errorf("filters: got %q / %q", f.Category, f.EventType)
	}
	if f.Offset != 100 || f.Limit != 50 {
		t.Errorf("paging: got offset %d limit %d", f.Offset, f.Limit)
	}
	if f.EndTime == nil || f.EndTime.Format("2006-01-02 15:04:05") != "2026-01-31 23:59:59" {
		t.Errorf("EndTime: got %v", f.EndTime)
	}
}

func TestServeList_DropsUnknownFilters(t *testing.T) {
	events := &fakeEvents{}
	serve(t, events, "/activity?category=admin&event_type=login_success&page=-2")

	f := events.filters[0]
	if f.Category != "" {
		t.Errorf("unknown category should be dropped, got %q", f.Category)
	}
	if f.EventType != audit.EventLoginSuccess {
		t.Errorf("event type valid across all categories should stay, got %q", f.EventType)
	}
	if f.Offset != 0 {
		t.Errorf("bad page should fall back to 1, got offset %d", f.Offset)
	}
}

func TestServeList_StoreFailure(t *testing.T) {
	events := &fakeEvents{err: errors.New("mongo down")}
	rec := serve(t, events, "/activity")
	rec.AssertStatus(t, http.StatusInternalServerError)
}

func TestServeList_RequiresOrg(t *testing.T) {
	logger := zap.NewNop()
	events := &fakeEvents{}
	h := auditlogfeature.NewHandler(events, uierrors.NewErrorLogger(logger), logger)
	rec := testutil.NewRecorder()
	testutil.Render(func() { h.ServeList(rec, testutil.NewRequest("GET", "/activity")) })

	rec.AssertStatus(t, http.StatusUnauthorized)
	if len(events.filters) != 0 {
		t.Error("anonymous request must not query the store")
	}
}
