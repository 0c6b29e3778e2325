// internal/domain/models/match.go
package models

// Match status values.
const (
	MatchPending  = "pending"
	MatchApproved = "approved"
	MatchRejected = "rejected"
)

// Match links a candidate volunteer to a trial. Status only ever moves from
// pending to approved or rejected.
type Match struct {
	ID      string `json:"match_id"`
	TrialID string `json:"trial_id"`
	UserID  string `json:"user_id"`
	Status  string `json:"status"`

	// Candidate is attached by the dashboard. When the profile lookup failed
	// Candidate is nil and CandidateError holds the reason.
	Candidate      *Candidate `json:"user,omitempty"`
	CandidateError string     `json:"user_error,omitempty"`
}

// CandidateUnavailable reports whether the profile lookup for this match failed.
func (m Match) CandidateUnavailable() bool {
	return m.Candidate == nil && m.CandidateError != ""
}

// DisplayName returns the candidate name or a placeholder.
func (m Match) DisplayName() string {
	if m.Candidate != nil && m.Candidate.Name != "" {
		return m.Candidate.Name
	}
	return "Unknown Volunteer"
}

// IsPending reports whether the match still awaits a decision. The backend
// may omit the status on new matches; that counts as pending.
func (m Match) IsPending() bool {
	return m.Status == MatchPending || m.Status == ""
}

// CanTransitionTo reports whether moving to status is allowed.
func (m Match) CanTransitionTo(status string) bool {
	if !m.IsPending() {
		return false
	}
	return status == MatchApproved || status == MatchRejected
}

// Clone returns a copy that does not share the candidate pointer.
func (m Match) Clone() Match {
	c := m
	if m.Candidate != nil {
		cand := *m.Candidate
		c.Candidate = &cand
	}
	return c
}

// Candidate is the read-only volunteer profile shown on a match row.
type Candidate struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Report string `json:"report,omitempty"`
}
