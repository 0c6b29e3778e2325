// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/csrf"
)

// SiteName is shown in the page title and header.
const SiteName = "ClinSync"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	SiteName string

	// Organization context (from session middleware)
	IsLoggedIn bool
	OrgName    string
	OrgEmail   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string

	// One-shot messages (flash) to show above the page body.
	Flashes []string
}

// NewBaseVM creates a populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    SiteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
	if org, ok := auth.CurrentOrg(r); ok {
		vm.IsLoggedIn = true
		vm.OrgName = org.Name
		vm.OrgEmail = org.Email
	}
	return vm
}

// WithFlashes pops queued flash messages from the session into vm.
func (vm BaseVM) WithFlashes(w http.ResponseWriter, r *http.Request, sm *auth.SessionManager) BaseVM {
	if sm != nil {
		vm.Flashes = sm.Flashes(w, r)
	}
	return vm
}

// RenderStatus writes status and then renders the named page. Use it for
// re-rendered forms and error pages where the status carries meaning.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, name, data)
}
