package matchboard_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/app/system/matchboard"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"go.uber.org/zap"
)

var errBackend = errors.New("backend unavailable")

// fakeBackend serves a fixed org → trials → matches → users tree.
type fakeBackend struct {
	mu        sync.Mutex
	trials    []models.Trial
	matches   map[string][]models.Match
	users     map[string]models.Candidate
	failTrial bool
	failUsers map[string]bool
	failMatch map[string]bool

	rejectDecisions bool
	approvals       []string
	rejections      []string
	decisionCalls   atomic.Int32

	// trialsHook, when set, replaces the OrganizationTrials body.
	trialsHook func(ctx context.Context) ([]models.Trial, error)
	// matchesHook runs after TrialMatches has read its result.
	matchesHook func(trialID string)
	// decisionHook runs before an approve or reject is accepted.
	decisionHook func(matchID string)
}

func (f *fakeBackend) OrganizationTrials(ctx context.Context, orgID string) ([]models.Trial, error) {
	if f.trialsHook != nil {
		return f.trialsHook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTrial {
		return nil, errBackend
	}
	return append([]models.Trial(nil), f.trials...), nil
}

func (f *fakeBackend) TrialMatches(ctx context.Context, trialID string) ([]models.Match, error) {
	f.mu.Lock()
	if f.failMatch[trialID] {
		f.mu.Unlock()
		return nil, errBackend
	}
	out := append([]models.Match(nil), f.matches[trialID]...)
	f.mu.Unlock()
	if f.matchesHook != nil {
		f.matchesHook(trialID)
	}
	return out, nil
}

func (f *fakeBackend) User(ctx context.Context, userID string) (models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUsers[userID] {
		return models.Candidate{}, errBackend
	}
	return f.users[userID], nil
}

func (f *fakeBackend) ApproveMatch(ctx context.Context, matchID string) error {
	f.decisionCalls.Add(1)
	if f.decisionHook != nil {
		f.decisionHook(matchID)
	}
	if f.rejectDecisions {
		return errBackend
	}
	f.mu.Lock()
	f.approvals = append(f.approvals, matchID)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) RejectMatch(ctx context.Context, matchID string) error {
	f.decisionCalls.Add(1)
	if f.decisionHook != nil {
		f.decisionHook(matchID)
	}
	if f.rejectDecisions {
		return errBackend
	}
	f.mu.Lock()
	f.rejections = append(f.rejections, matchID)
	f.mu.Unlock()
	return nil
}

func newScenario() *fakeBackend {
	return &fakeBackend{
		trials: []models.Trial{{ID: "T1", Title: "Sleep study"}, {ID: "T2", Title: "Diet study"}},
		matches: map[string][]models.Match{
			"T1": {
				{ID: "M1", UserID: "U1", Status: models.MatchPending},
				{ID: "M2", UserID: "U2", Status: models.MatchPending},
			},
			"T2": {},
		},
		users: map[string]models.Candidate{
			"U1": {ID: "U1", Name: "Ada", Email: "ada@example.com"},
			"U2": {ID: "U2", Name: "Grace", Email: "grace@example.com"},
		},
		failUsers: map[string]bool{},
		failMatch: map[string]bool{},
	}
}

func loadedBoard(t *testing.T, api *fakeBackend) *matchboard.Board {
	t.Helper()
	b := matchboard.New("org-1", api, 0, zap.NewNop())
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return b
}

func statuses(b *matchboard.Board) map[string]string {
	out := map[string]string{}
	for _, tr := range b.Trials() {
		for _, m := range tr.Matches {
			out[m.ID] = m.Status
		}
	}
	return out
}

func TestRefresh_BuildsTreeWithUnavailableCandidate(t *testing.T) {
	api := newScenario()
	api.failUsers["U2"] = true

	b := loadedBoard(t, api)

	trials := b.Trials()
	if len(trials) != 2 || trials[0].ID != "T1" || trials[1].ID != "T2" {
		t.Fatalf("unexpected trials: %+v", trials)
	}
	m1, m2 := trials[0].Matches[0], trials[0].Matches[1]
	if m1.Candidate == nil || m1.Candidate.Name != "Ada" {
		t.Errorf("M1 should carry its candidate: %+v", m1)
	}
	if m2.ID != "M2" || !m2.CandidateUnavailable() || m2.CandidateError != matchboard.CandidateUnavailable {
		t.Errorf("M2 should be kept with the unavailable marker: %+v", m2)
	}
	if m2.DisplayName() != "Unknown Volunteer" {
		t.Errorf("unexpected display name %q", m2.DisplayName())
	}
	if len(trials[1].Matches) != 0 {
		t.Errorf("T2 should have no matches, got %d", len(trials[1].Matches))
	}
	if !b.Loaded() || b.RefreshedAt().IsZero() {
		t.Error("board should be loaded")
	}
}

func TestRefresh_MatchFailureDegradesOneTrial(t *testing.T) {
	api := newScenario()
	api.failMatch["T1"] = true
	api.matches["T2"] = []models.Match{{ID: "M3", UserID: "U1", Status: models.MatchPending}}

	b := loadedBoard(t, api)
	trials := b.Trials()
	if len(trials[0].Matches) != 0 {
		t.Errorf("T1 should have empty matches, got %d", len(trials[0].Matches))
	}
	if len(trials[1].Matches) != 1 || trials[1].Matches[0].ID != "M3" {
		t.Errorf("T2 should be unaffected: %+v", trials[1].Matches)
	}
}

func TestRefresh_RootFailureKeepsPreviousTree(t *testing.T) {
	api := newScenario()
	b := loadedBoard(t, api)
	before := b.RefreshedAt()

	api.mu.Lock()
	api.failTrial = true
	api.mu.Unlock()

	err := b.Refresh(context.Background())
	if !errors.Is(err, faults.ErrRootFetchFailed) {
		t.Fatalf("expected ErrRootFetchFailed, got %v", err)
	}
	if got := len(b.Trials()); got != 2 {
		t.Errorf("previous tree should stay visible, got %d trials", got)
	}
	if !b.RefreshedAt().Equal(before) {
		t.Error("RefreshedAt should not move on failure")
	}
}

func TestRefresh_RootFailureOnFirstLoad(t *testing.T) {
	api := newScenario()
	api.failTrial = true
	b := matchboard.New("org-1", api, 0, zap.NewNop())

	if err := b.Refresh(context.Background()); !errors.Is(err, faults.ErrRootFetchFailed) {
		t.Fatalf("expected ErrRootFetchFailed, got %v", err)
	}
	if b.Loaded() || len(b.Trials()) != 0 {
		t.Error("board should stay empty")
	}
	if !b.Stale(time.Hour) {
		t.Error("unloaded board should be stale")
	}
}

func TestRefresh_SupersededResultDiscarded(t *testing.T) {
	api := newScenario()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	api.trialsHook = func(ctx context.Context) ([]models.Trial, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []models.Trial{{ID: "OLD"}}, nil
		}
		return []models.Trial{{ID: "NEW"}}, nil
	}
	api.matches["OLD"] = nil
	api.matches["NEW"] = nil

	b := matchboard.New("org-1", api, 0, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- b.Refresh(context.Background()) }()
	<-started

	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	trials := b.Trials()
	if len(trials) != 1 || trials[0].ID != "NEW" {
		t.Errorf("stale refresh should have been discarded, got %+v", trials)
	}
}

func TestApprove_ChangesOnlyTarget(t *testing.T) {
	api := newScenario()
	b := loadedBoard(t, api)

	if err := b.Approve(context.Background(), "M1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	got := statuses(b)
	if got["M1"] != models.MatchApproved {
		t.Errorf("M1: got %q", got["M1"])
	}
	if got["M2"] != models.MatchPending {
		t.Errorf("M2 should be untouched, got %q", got["M2"])
	}
	if len(api.approvals) != 1 || api.approvals[0] != "M1" {
		t.Errorf("unexpected backend calls: %v", api.approvals)
	}
}

func TestReject_ChangesOnlyTarget(t *testing.T) {
	api := newScenario()
	b := loadedBoard(t, api)

	if err := b.Reject(context.Background(), "M2"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	got := statuses(b)
	if got["M2"] != models.MatchRejected || got["M1"] != models.MatchPending {
		t.Errorf("unexpected statuses: %v", got)
	}
}

func TestDecision_BackendFailureLeavesStateUnchanged(t *testing.T) {
	api := newScenario()
	b := loadedBoard(t, api)
	api.rejectDecisions = true

	for name, fn := range map[string]func(context.Context, string) error{
		"approve": b.Approve,
		"reject":  b.Reject,
	} {
		err := fn(context.Background(), "M1")
		if !errors.Is(err, faults.ErrActionFailed) {
			t.Errorf("%s: expected ErrActionFailed, got %v", name, err)
		}
		if !errors.Is(err, errBackend) {
			t.Errorf("%s: cause should be kept, got %v", name, err)
		}
	}
	if got := statuses(b); got["M1"] != models.MatchPending || got["M2"] != models.MatchPending {
		t.Errorf("statuses should be unchanged: %v", got)
	}
}

func TestDecision_RefusedWithoutRemoteCall(t *testing.T) {
	api := newScenario()
	b := loadedBoard(t, api)

	if err := b.Approve(context.Background(), "M1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	calls := api.decisionCalls.Load()

	if err := b.Reject(context.Background(), "M1"); !errors.Is(err, faults.ErrActionFailed) {
		t.Errorf("rejecting an approved match: expected ErrActionFailed, got %v", err)
	}
	if err := b.Approve(context.Background(), "nope"); !errors.Is(err, faults.ErrActionFailed) {
		t.Errorf("unknown match: expected ErrActionFailed, got %v", err)
	}
	if got := api.decisionCalls.Load(); got != calls {
		t.Errorf("refused decisions must not reach the backend (%d extra calls)", got-calls)
	}
	if got := statuses(b)["M1"]; got != models.MatchApproved {
		t.Errorf("M1 should stay approved, got %q", got)
	}
}

func TestApprove_DuringRefreshIsNotReverted(t *testing.T) {
	api := newScenario()
	b := loadedBoard(t, api)

	read := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	api.matchesHook = func(trialID string) {
		if trialID != "T1" {
			return
		}
		once.Do(func() {
			close(read)
			<-release
		})
	}

	done := make(chan error, 1)
	go func() { done <- b.Refresh(context.Background()) }()
	<-read

	if err := b.Approve(context.Background(), "M1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := statuses(b)["M1"]; got != models.MatchApproved {
		t.Errorf("M1 after in-flight refresh: got %q, want approved", got)
	}

	api.matchesHook = nil
	api.mu.Lock()
	api.matches["T1"][0].Status = models.MatchApproved
	api.mu.Unlock()
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("later Refresh: %v", err)
	}
	if got := statuses(b)["M1"]; got != models.MatchApproved {
		t.Errorf("M1 after later refresh: got %q, want approved", got)
	}
}

func TestDecision_ConcurrentOppositeDecisions(t *testing.T) {
	api := newScenario()
	b := loadedBoard(t, api)

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	api.decisionHook = func(string) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
	}

	approved := make(chan error, 1)
	go func() { approved <- b.Approve(context.Background(), "M1") }()
	<-entered

	if err := b.Reject(context.Background(), "M1"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	close(release)

	if err := <-approved; !errors.Is(err, faults.ErrActionFailed) {
		t.Errorf("late approve: expected ErrActionFailed, got %v", err)
	}
	if got := statuses(b)["M1"]; got != models.MatchRejected {
		t.Errorf("M1: got %q, want rejected", got)
	}
}

func TestTrials_ReturnsCopy(t *testing.T) {
	b := loadedBoard(t, newScenario())

	snap := b.Trials()
	snap[0].Matches[0].Status = models.MatchRejected
	snap[0].Matches[0].Candidate.Name = "mutated"

	again := b.Trials()
	if again[0].Matches[0].Status != models.MatchPending || again[0].Matches[0].Candidate.Name != "Ada" {
		t.Error("mutating a snapshot must not affect the board")
	}
}

func TestStale(t *testing.T) {
	b := loadedBoard(t, newScenario())
	if b.Stale(time.Hour) {
		t.Error("fresh board should not be stale")
	}
	if b.Stale(0) {
		t.Error("zero max age disables expiry")
	}
	time.Sleep(5 * time.Millisecond)
	if !b.Stale(time.Millisecond) {
		t.Error("board older than max age should be stale")
	}

	b.Invalidate()
	if !b.Stale(0) {
		t.Error("invalidated board should be stale")
	}
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if b.Stale(0) {
		t.Error("refresh should clear invalidation")
	}
}

func TestRegistry(t *testing.T) {
	reg := matchboard.NewRegistry(newScenario(), 4, zap.NewNop())

	a := reg.For("org-a")
	if reg.For("org-a") != a {
		t.Error("For should return the same board for an org")
	}
	if reg.For("org-b") == a {
		t.Error("different orgs need different boards")
	}
	if a.OrgID() != "org-a" {
		t.Errorf("unexpected org id %q", a.OrgID())
	}

	reg.Drop("org-a")
	if reg.Len() != 1 {
		t.Errorf("expected 1 board after drop, got %d", reg.Len())
	}
	if reg.For("org-a") == a {
		t.Error("dropped board should be replaced")
	}
}
