package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/clinsync/internal/app/system/apiclient"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FakeBackend is an in-memory stand-in for the matching backend's REST API.
// It is seeded with one organization (TestOrg, password "secret") owning
// trial T1 with pending matches M1 (user U1) and M2 (user U2), and trial T2
// with no matches.
type FakeBackend struct {
	*httptest.Server

	mu        sync.Mutex
	orgs      map[string]models.Organization // by email
	passwords map[string]string              // by email
	trials    map[string][]models.Trial      // by org id
	matches   map[string][]models.Match      // by trial id
	users     map[string]models.Candidate
	failures  map[string]int // request path → status
	calls     []string
	nextID    int
}

// NewFakeBackend starts the server and closes it when t ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	org := TestOrg()
	f := &FakeBackend{
		orgs:      map[string]models.Organization{org.Email: org},
		passwords: map[string]string{org.Email: "secret"},
		trials: map[string][]models.Trial{
			org.ID: {
				{ID: "T1", Title: "Sleep and memory", OrganizationID: org.ID, StartDate: "2025-03-01", EndDate: "2025-05-01"},
				{ID: "T2", Title: "Low-sodium diet", OrganizationID: org.ID, StartDate: "2025-04-01", EndDate: "2025-09-01"},
			},
		},
		matches: map[string][]models.Match{
			"T1": {
				{ID: "M1", TrialID: "T1", UserID: "U1", Status: models.MatchPending},
				{ID: "M2", TrialID: "T1", UserID: "U2", Status: models.MatchPending},
			},
		},
		users: map[string]models.Candidate{
			"U1": {ID: "U1", Name: "Ada Lovelace", Email: "ada@example.com", Report: "No known conditions."},
			"U2": {ID: "U2", Name: "Grace Hopper", Email: "grace@example.com"},
		},
		failures: map[string]int{},
		nextID:   100,
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Close)
	return f
}

// Client returns an API client pointed at the fake.
func (f *FakeBackend) Client(t *testing.T) *apiclient.Client {
	t.Helper()
	c, err := apiclient.New(f.URL, f.Server.Client(), zap.NewNop())
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return c
}

// Fail makes every request to path answer with status.
func (f *FakeBackend) Fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = status
}

// Calls returns "METHOD /path" for each request received, in order.
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts received requests whose "METHOD /path" has prefix.
func (f *FakeBackend) CallCount(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// MatchStatus returns the backend's status for a match.
func (f *FakeBackend) MatchStatus(matchID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ms := range f.matches {
		for _, m := range ms {
			if m.ID == matchID {
				return m.Status
			}
		}
	}
	return ""
}

// Trials returns the trials stored for an organization.
func (f *FakeBackend) Trials(orgID string) []models.Trial {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Trial(nil), f.trials[orgID]...)
}

func (f *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	r.Get("/orgs/{id}", f.orgTrials)
	r.Get("/trials/{id}", f.trialMatches)
	r.Get("/users/{id}", f.user)
	r.Post("/approve/{id}", f.decide(models.MatchApproved))
	r.Post("/reject/{id}", f.decide(models.MatchRejected))
	r.Post("/trials", f.createTrial)
	r.Post("/login-org", f.login)
	r.Post("/signup-org", f.signup)
	return r
}

func (f *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		status, fail := f.failures[r.URL.Path]
		f.mu.Unlock()
		if fail {
			writeJSON(w, status, map[string]string{"detail": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) orgTrials(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trials, ok := f.trials[chi.URLParam(r, "id")]
	if !ok {
		trials = []models.Trial{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trials": trials})
}

func (f *FakeBackend) trialMatches(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ms := f.matches[chi.URLParam(r, "id")]
	if ms == nil {
		ms = []models.Match{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": ms})
}

func (f *FakeBackend) user(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (f *FakeBackend) decide(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		f.mu.Lock()
		defer f.mu.Unlock()
		for tid, ms := range f.matches {
			for i := range ms {
				if ms[i].ID == id {
					f.matches[tid][i].Status = status
					writeJSON(w, http.StatusOK, map[string]string{"message": "Match " + status})
					return
				}
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Match not found"})
	}
}

func (f *FakeBackend) createTrial(w http.ResponseWriter, r *http.Request) {
	var t models.Trial
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = fmt.Sprintf("T%d", f.nextID)
	f.trials[t.OrganizationID] = append(f.trials[t.OrganizationID], t)
	writeJSON(w, http.StatusOK, t)
}

func (f *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var c models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	org, ok := f.orgs[c.Email]
	if !ok || f.passwords[c.Email] != c.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (f *FakeBackend) signup(w http.ResponseWriter, r *http.Request) {
	var d models.SignupDetails
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.orgs[d.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		return
	}
	f.nextID++
	org := models.Organization{ID: fmt.Sprintf("org-%d", f.nextID), Name: d.Name, Email: d.Email}
	f.orgs[d.Email] = org
	f.passwords[d.Email] = d.Password
	writeJSON(w, http.StatusOK, org)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
