package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clinsync/internal/app/system/metrics"
)

func TestHandler_ExposesCollectors(t *testing.T) {
	metrics.BranchFailure("leaf")
	metrics.Refresh("ok", 120*time.Millisecond)
	metrics.MatchAction("approve", false)
	metrics.Extraction("pdf", true, 40*time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`clinsync_dashboard_branch_failures_total{level="leaf"}`,
		`clinsync_dashboard_refreshes_total{outcome="ok"}`,
		`clinsync_dashboard_match_actions_total{action="approve",result="error"}`,
		`clinsync_extract_documents_total{kind="pdf",result="ok"}`,
		"clinsync_dashboard_refresh_duration_seconds_bucket",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
