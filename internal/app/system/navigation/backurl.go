// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/dashboard").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject. These prevent
	// redirect loops back to form or action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks both the query parameter and form value for "return", rejects
// anything that is not a local path, and applies the prefix and subpath
// rules in opts.
//
//	url := navigation.SafeBackURL(r, navigation.AfterSignIn)
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}
	if ret == "" {
		return opts.Fallback
	}

	if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
		return opts.Fallback
	}
	for _, excluded := range opts.ExcludedSubpaths {
		if strings.Contains(ret, excluded) {
			return opts.Fallback
		}
	}
	return ret
}

var (
	// AfterSignIn is where login and signup send the organization next.
	AfterSignIn = BackURLOptions{
		ExcludedSubpaths: []string{"/login", "/signup", "/logout"},
		Fallback:         "/dashboard",
	}

	// Dashboard keeps match actions inside the dashboard.
	Dashboard = BackURLOptions{
		AllowedPrefix:    "/dashboard",
		ExcludedSubpaths: []string{"/approve", "/reject", "/refresh"},
		Fallback:         "/dashboard",
	}
)
