package login_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"github.com/dalemusser/clinsync/internal/app/features/login"
	"github.com/dalemusser/clinsync/internal/app/system/ratelimit"
	"github.com/dalemusser/clinsync/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *testutil.FakeBackend) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	logger := zap.NewNop()
	h := login.NewHandler(
		backend.Client(t),
		testutil.NewSessionManager(t),
		ratelimit.NewLoginLimiter(),
		nil,
		uierrors.NewErrorLogger(logger),
		logger,
	)
	return h, backend
}

func post(h *login.Handler, form url.Values) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	req := testutil.NewFormRequest("/login", form)
	testutil.Render(func() { h.HandleLoginPost(rec, req) })
	return rec
}

func TestHandleLoginPost_Success(t *testing.T) {
	h, backend := newTestHandler(t)

	rec := post(h, url.Values{"email": {"Desk@Acme.org"}, "password": {"secret"}})

	rec.AssertRedirect(t, "/dashboard")
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
	if n := backend.CallCount("POST /login-org"); n != 1 {
		t.Errorf("login calls: got %d, want 1", n)
	}
}

func TestHandleLoginPost_HonorsSafeReturn(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(h, url.Values{"email": {"desk@acme.org"}, "password": {"secret"}, "return": {"/trials/new"}})
	rec.AssertRedirect(t, "/trials/new")

	rec = post(h, url.Values{"email": {"desk@acme.org"}, "password": {"secret"}, "return": {"https://evil.example/"}})
	rec.AssertRedirect(t, "/dashboard")
}

// A rejected login (a@b.com / x) leaves the browser anonymous.
func TestHandleLoginPost_InvalidCredentials(t *testing.T) {
	h, backend := newTestHandler(t)

	rec := post(h, url.Values{"email": {"a@b.com"}, "password": {"x"}})

	rec.AssertStatus(t, http.StatusUnauthorized)
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("failed login must not redirect, got %q", loc)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("failed login must not set a session cookie")
	}
	if n := backend.CallCount("POST /login-org"); n != 1 {
		t.Errorf("login calls: got %d, want exactly 1 (no retries)", n)
	}
}

func TestHandleLoginPost_ValidationSkipsBackend(t *testing.T) {
	h, backend := newTestHandler(t)

	rec := post(h, url.Values{"email": {"not-an-email"}})

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	if n := backend.CallCount("POST"); n != 0 {
		t.Errorf("backend calls: got %d, want 0", n)
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	h, backend := newTestHandler(t)
	h.Limiter = ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 1, time.Hour)

	post(h, url.Values{"email": {"a@b.com"}, "password": {"x"}})
	rec := post(h, url.Values{"email": {"a@b.com"}, "password": {"y"}})

	rec.AssertStatus(t, http.StatusTooManyRequests)
	if n := backend.CallCount("POST /login-org"); n != 1 {
		t.Errorf("login calls: got %d, want 1", n)
	}
}

func TestServeLogin_SignedInRedirects(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest("GET", "/login", testutil.TestOrg())
	h.ServeLogin(rec, req)

	rec.AssertRedirect(t, "/dashboard")
}
