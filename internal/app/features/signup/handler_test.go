package signup_test

import (
	"net/http"
	"net/url"
	"testing"

	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"github.com/dalemusser/clinsync/internal/app/features/signup"
	"github.com/dalemusser/clinsync/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*signup.Handler, *testutil.FakeBackend) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	logger := zap.NewNop()
	return signup.NewHandler(backend.Client(t), testutil.NewSessionManager(t), nil, nil, uierrors.NewErrorLogger(logger), logger), backend
}

func post(h *signup.Handler, form url.Values) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	req := testutil.NewFormRequest("/signup", form)
	testutil.Render(func() { h.HandleSignupPost(rec, req) })
	return rec
}

func TestHandleSignupPost_Success(t *testing.T) {
	h, backend := newTestHandler(t)

	rec := post(h, url.Values{
		"name":             {"Beacon Labs"},
		"email":            {"hello@beacon.org"},
		"password":         {"pw"},
		"confirm_password": {"pw"},
	})

	rec.AssertRedirect(t, "/dashboard")
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
	if n := backend.CallCount("POST /signup-org"); n != 1 {
		t.Errorf("signup calls: got %d, want 1", n)
	}
}

func TestHandleSignupPost_PasswordMismatch(t *testing.T) {
	h, backend := newTestHandler(t)

	rec := post(h, url.Values{
		"name":             {"Beacon Labs"},
		"email":            {"hello@beacon.org"},
		"password":         {"pw"},
		"confirm_password": {"other"},
	})

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	if n := backend.CallCount("POST"); n != 0 {
		t.Errorf("backend calls: got %d, want 0", n)
	}
}

func TestHandleSignupPost_DuplicateEmail(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(h, url.Values{
		"name":             {"Acme again"},
		"email":            {testutil.TestOrg().Email},
		"password":         {"pw"},
		"confirm_password": {"pw"},
	})

	rec.AssertStatus(t, http.StatusBadRequest)
	if len(rec.Result().Cookies()) != 0 {
		t.Error("failed signup must not set a session cookie")
	}
}
