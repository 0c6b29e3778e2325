// Package matchboard keeps an organization's dashboard view: its trials, the
// matches on each trial and the candidate behind each match.
//
// A Board is rebuilt from scratch on every Refresh and swapped in whole.
// Approve and Reject change exactly one match after the backend accepts the
// decision.
package matchboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/clinsync/internal/app/system/aggregate"
	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/app/system/metrics"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"go.uber.org/zap"
)

// CandidateUnavailable is shown in place of a candidate whose profile could
// not be loaded.
const CandidateUnavailable = "Failed to load user data"

// Backend is the subset of the API client a Board needs.
type Backend interface {
	OrganizationTrials(ctx context.Context, orgID string) ([]models.Trial, error)
	TrialMatches(ctx context.Context, trialID string) ([]models.Match, error)
	User(ctx context.Context, userID string) (models.Candidate, error)
	ApproveMatch(ctx context.Context, matchID string) error
	RejectMatch(ctx context.Context, matchID string) error
}

// Board is one organization's dashboard state. Safe for concurrent use.
type Board struct {
	orgID       string
	api         Backend
	log         *zap.Logger
	concurrency int

	gen atomic.Uint64

	mu          sync.RWMutex
	trials      []models.Trial
	applied     uint64
	loaded      bool
	dirty       bool
	refreshedAt time.Time
}

// New returns an empty board for orgID. concurrency bounds in-flight fetches
// per level (0 means unbounded).
func New(orgID string, api Backend, concurrency int, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		orgID:       orgID,
		api:         api,
		log:         logger.With(zap.String("org_id", orgID)),
		concurrency: concurrency,
	}
}

// OrgID returns the organization this board belongs to.
func (b *Board) OrgID() string { return b.orgID }

// Refresh reloads trials, matches and candidates and replaces the visible
// tree. On a root failure the previous tree stays visible and the error
// matches faults.ErrRootFetchFailed. A refresh that finishes after a newer
// one, or after a decision made while it was in flight, is discarded.
func (b *Board) Refresh(ctx context.Context) error {
	gen := b.gen.Add(1)
	start := time.Now()

	nodes, err := aggregate.Tree(ctx,
		func(ctx context.Context) ([]models.Trial, error) {
			return b.api.OrganizationTrials(ctx, b.orgID)
		},
		func(ctx context.Context, t models.Trial) ([]models.Match, error) {
			return b.api.TrialMatches(ctx, t.ID)
		},
		func(ctx context.Context, m models.Match) (models.Candidate, error) {
			return b.api.User(ctx, m.UserID)
		},
		aggregate.Options{
			MaxConcurrency: b.concurrency,
			Log:            b.log,
			OnBranchError: func(be aggregate.BranchError) {
				metrics.BranchFailure(string(be.Level))
			},
		},
	)
	if err != nil {
		metrics.Refresh("failed", time.Since(start))
		b.log.Warn("dashboard refresh failed", zap.Error(err))
		return err
	}

	trials := assemble(nodes)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen <= b.applied {
		metrics.Refresh("superseded", time.Since(start))
		b.log.Debug("discarding superseded refresh",
			zap.Uint64("generation", gen),
			zap.Uint64("applied", b.applied))
		return nil
	}
	b.trials = trials
	b.applied = gen
	b.loaded = true
	b.dirty = false
	b.refreshedAt = time.Now()
	metrics.Refresh("ok", time.Since(start))
	return nil
}

func assemble(nodes []aggregate.Node[models.Trial, models.Match, models.Candidate]) []models.Trial {
	trials := make([]models.Trial, len(nodes))
	for i, n := range nodes {
		t := n.Item
		t.Matches = make([]models.Match, len(n.Children))
		for j, c := range n.Children {
			m := c.Item
			if m.TrialID == "" {
				m.TrialID = t.ID
			}
			if c.LeafAvailable() {
				cand := c.Leaf
				m.Candidate = &cand
			} else {
				m.Candidate = nil
				m.CandidateError = CandidateUnavailable
			}
			t.Matches[j] = m
		}
		trials[i] = t
	}
	return trials
}

// Trials returns a deep copy of the visible tree.
func (b *Board) Trials() []models.Trial {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Trial, len(b.trials))
	for i, t := range b.trials {
		out[i] = t.Clone()
	}
	return out
}

// Loaded reports whether any refresh has been applied.
func (b *Board) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// RefreshedAt returns when the visible tree was swapped in.
func (b *Board) RefreshedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.refreshedAt
}

// Invalidate marks the board stale so the next view refreshes it, e.g.
// after the organization created a trial.
func (b *Board) Invalidate() {
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
}

// Stale reports whether the board has never loaded, was invalidated, or is
// older than maxAge. A non-positive maxAge means a loaded board is fresh.
func (b *Board) Stale(maxAge time.Duration) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.loaded || b.dirty {
		return true
	}
	return maxAge > 0 && time.Since(b.refreshedAt) > maxAge
}

// Approve accepts a pending match.
func (b *Board) Approve(ctx context.Context, matchID string) error {
	return b.decide(ctx, "approve", matchID, models.MatchApproved, b.api.ApproveMatch)
}

// Reject declines a pending match.
func (b *Board) Reject(ctx context.Context, matchID string) error {
	return b.decide(ctx, "reject", matchID, models.MatchRejected, b.api.RejectMatch)
}

var errNotOnBoard = errors.New("match is not on the board")

func (b *Board) decide(ctx context.Context, action, matchID, status string, remote func(context.Context, string) error) error {
	op := action + " match " + matchID

	b.mu.RLock()
	m, ok := b.find(matchID)
	b.mu.RUnlock()
	if !ok {
		metrics.MatchAction(action, false)
		return faults.Action(op, errNotOnBoard)
	}
	if !m.CanTransitionTo(status) {
		metrics.MatchAction(action, false)
		return faults.Action(op, fmt.Errorf("match is already %s", m.Status))
	}

	if err := remote(ctx, matchID); err != nil {
		metrics.MatchAction(action, false)
		b.log.Warn("match decision rejected by backend",
			zap.String("action", action),
			zap.String("match_id", matchID),
			zap.Error(err))
		return faults.Action(op, err)
	}
	metrics.MatchAction(action, true)

	b.mu.Lock()
	defer b.mu.Unlock()
	// Refreshes started before the decision may have read the old status.
	b.applied = b.gen.Load()
	for i := range b.trials {
		for j := range b.trials[i].Matches {
			cur := &b.trials[i].Matches[j]
			if cur.ID != matchID {
				continue
			}
			if !cur.CanTransitionTo(status) {
				b.log.Warn("match decided concurrently",
					zap.String("action", action),
					zap.String("match_id", matchID),
					zap.String("status", cur.Status))
				return faults.Action(op, fmt.Errorf("match is already %s", cur.Status))
			}
			cur.Status = status
		}
	}
	return nil
}

// find must be called with mu held.
func (b *Board) find(matchID string) (models.Match, bool) {
	for _, t := range b.trials {
		for _, m := range t.Matches {
			if m.ID == matchID {
				return m, true
			}
		}
	}
	return models.Match{}, false
}
