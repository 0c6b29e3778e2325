// internal/domain/models/trial.go
package models

// Trial is a clinical trial created by an organization. Matches are not part
// of the backend's trial payload; the dashboard attaches them after fetching
// each trial's matches separately.
type Trial struct {
	ID             string   `json:"_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	StartDate      string   `json:"startDate"` // YYYY-MM-DD
	EndDate        string   `json:"endDate"`   // YYYY-MM-DD
	Location       string   `json:"location"`
	Compensation   string   `json:"compensation"`
	ContactName    string   `json:"contactName"`
	ContactPhone   string   `json:"contactPhone"`
	OrganizationID string   `json:"org_id"`
	Criteria       []string `json:"eligibility,omitempty"`

	Matches []Match `json:"matches,omitempty"`
}

// Clone returns a deep copy so snapshots handed to templates cannot alias
// board state.
func (t Trial) Clone() Trial {
	c := t
	if t.Criteria != nil {
		c.Criteria = append([]string(nil), t.Criteria...)
	}
	if t.Matches != nil {
		c.Matches = make([]Match, len(t.Matches))
		for i, m := range t.Matches {
			c.Matches[i] = m.Clone()
		}
	}
	return c
}

// PendingCount returns how many matches still await a decision.
func (t Trial) PendingCount() int {
	n := 0
	for _, m := range t.Matches {
		if m.IsPending() {
			n++
		}
	}
	return n
}
