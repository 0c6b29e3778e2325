package orgsession_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/clinsync/internal/app/system/apiclient"
	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/app/system/orgsession"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"go.uber.org/zap"
)

type fakeAuth struct {
	org   models.Organization
	err   error
	calls int
}

func (f *fakeAuth) LoginOrg(ctx context.Context, creds models.Credentials) (models.Organization, error) {
	f.calls++
	return f.org, f.err
}

func (f *fakeAuth) SignupOrg(ctx context.Context, details models.SignupDetails) (models.Organization, error) {
	f.calls++
	return f.org, f.err
}

func TestNew_IsAnonymous(t *testing.T) {
	s := orgsession.New(&fakeAuth{}, zap.NewNop())
	if s.State() != orgsession.Anonymous {
		t.Errorf("expected anonymous, got %s", s.State())
	}
	if _, ok := s.Org(); ok {
		t.Error("anonymous session should have no org")
	}
}

func TestLogin_Success(t *testing.T) {
	api := &fakeAuth{org: models.Organization{ID: "o1", Name: "Acme Research"}}
	s := orgsession.New(api, zap.NewNop())

	org, err := s.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if org.ID != "o1" || s.State() != orgsession.Authenticated {
		t.Errorf("unexpected state %s / %+v", s.State(), org)
	}
	got, ok := s.Org()
	if !ok || got.Name != "Acme Research" {
		t.Errorf("Org() = %+v, %v", got, ok)
	}
}

func TestLogin_FailureKeepsState(t *testing.T) {
	api := &fakeAuth{err: errors.New("invalid credentials")}
	s := orgsession.New(api, zap.NewNop())

	_, err := s.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "x"})
	if !errors.Is(err, faults.ErrActionFailed) {
		t.Fatalf("expected ErrActionFailed, got %v", err)
	}
	if s.State() != orgsession.Anonymous {
		t.Error("failed login must leave the session anonymous")
	}

	s.Restore(models.Organization{ID: "o1", Name: "Acme"})
	if _, err := s.Login(context.Background(), models.Credentials{Email: "other@b.com", Password: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if org, _ := s.Org(); org.ID != "o1" {
		t.Errorf("failed login must not replace the current org, got %+v", org)
	}
	if api.calls != 2 {
		t.Errorf("no retries expected, got %d calls", api.calls)
	}
}

func TestSignup(t *testing.T) {
	api := &fakeAuth{org: models.Organization{ID: "o9", Name: "New Org"}}
	s := orgsession.New(api, zap.NewNop())

	if _, err := s.Signup(context.Background(), models.SignupDetails{Name: "New Org", Email: "n@o.org", Password: "pw"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if s.State() != orgsession.Authenticated {
		t.Error("signup should authenticate")
	}

	api.err = errors.New("email taken")
	s.Logout()
	if _, err := s.Signup(context.Background(), models.SignupDetails{}); !errors.Is(err, faults.ErrActionFailed) {
		t.Errorf("expected ErrActionFailed, got %v", err)
	}
	if s.State() != orgsession.Anonymous {
		t.Error("failed signup must leave the session anonymous")
	}
}

func TestLogout(t *testing.T) {
	s := orgsession.New(&fakeAuth{}, zap.NewNop())
	s.Logout()
	if s.State() != orgsession.Anonymous {
		t.Error("logout on anonymous stays anonymous")
	}
	s.Restore(models.Organization{ID: "o1"})
	s.Logout()
	if s.State() != orgsession.Anonymous {
		t.Error("logout should clear the org")
	}
}

// The backend answers 401 for bad credentials; the session stays anonymous
// and the caller gets an ActionFailed error rather than a panic.
func TestLogin_BackendRejectsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login-org" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		http.Error(w, `{"detail":"Invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := apiclient.New(srv.URL, srv.Client(), zap.NewNop())
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	s := orgsession.New(client, zap.NewNop())

	_, err = s.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "x"})
	if !errors.Is(err, faults.ErrActionFailed) {
		t.Fatalf("expected ErrActionFailed, got %v", err)
	}
	if !apiclient.IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("status should be kept in the chain: %v", err)
	}
	if s.State() != orgsession.Anonymous {
		t.Error("session should stay anonymous")
	}
}
