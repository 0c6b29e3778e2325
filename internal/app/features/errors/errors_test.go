package errors_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// render calls fn and ignores template panics; the status is written
// before the template runs.
func render(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func TestForbidden_Status(t *testing.T) {
	h := uierrors.NewHandler()
	rec := httptest.NewRecorder()
	render(func() { h.Forbidden(rec, httptest.NewRequest("GET", "/forbidden", nil)) })
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestUnauthorized_Status(t *testing.T) {
	h := uierrors.NewHandler()
	rec := httptest.NewRecorder()
	render(func() { h.Unauthorized(rec, httptest.NewRequest("GET", "/unauthorized", nil)) })
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestErrorLogger_LogsAndSetsStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/trials/new", nil)
	render(func() {
		el.LogServerError(rec, req, "create trial failed", errors.New("boom"), "Could not save.", "/dashboard")
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	entries := logs.FilterMessage("create trial failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["path"]; got != "/trials/new" {
		t.Errorf("path field: got %v", got)
	}
}

func TestErrorLogger_BadGateway(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	render(func() {
		el.LogBadGateway(rec, httptest.NewRequest("GET", "/dashboard", nil), "refresh failed", errors.New("down"), "Failed to load dashboard.", "/dashboard")
	})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", rec.Code)
	}
}
