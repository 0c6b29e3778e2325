// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/clinsync/internal/app/store/audit"
	"github.com/dalemusser/clinsync/internal/app/system/viewdata"
)

// listItem represents a single audit event row for display.
type listItem struct {
	Timestamp     time.Time
	Category      string
	EventType     string
	Label         string
	Subject       string
	IP            string
	Success       bool
	FailureReason string
	Details       map[string]string
}

// listData is the view model for the activity page.
type listData struct {
	viewdata.BaseVM

	Items []listItem

	// Filters
	Category  string
	EventType string
	StartDate string
	EndDate   string

	// Filter options
	Categories []categoryOption
	EventTypes []string

	// Pagination
	Page       int
	TotalPages int
	Total      int64
	Shown      int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value string
	Label string
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Sign-in"},
		{Value: audit.CategoryAction, Label: "Trials and matches"},
	}
}

var eventLabels = map[string]string{
	audit.EventLoginSuccess:        "Logged in",
	audit.EventLoginFailed:         "Login failed",
	audit.EventSignupSuccess:       "Organization registered",
	audit.EventSignupFailed:        "Registration failed",
	audit.EventLogout:              "Logged out",
	audit.EventMatchApproved:       "Match approved",
	audit.EventMatchRejected:       "Match rejected",
	audit.EventMatchDecisionFailed: "Match decision failed",
	audit.EventTrialCreated:        "Trial created",
	audit.EventTrialCreateFailed:   "Trial creation failed",
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types an organization can see.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailed,
		audit.EventSignupSuccess,
		audit.EventSignupFailed,
		audit.EventLogout,
	}
	actionEvents := []string{
		audit.EventMatchApproved,
		audit.EventMatchRejected,
		audit.EventMatchDecisionFailed,
		audit.EventTrialCreated,
		audit.EventTrialCreateFailed,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAction:
		return actionEvents
	case "":
		return append(authEvents, actionEvents...)
	default:
		return nil
	}
}
