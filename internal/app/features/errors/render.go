// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/clinsync/internal/app/system/viewdata"
)

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	render(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL, "")
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusForbidden, "Access denied", msg, backURL, "")
}

// RenderPage shows a full-page error with the given status. retryURL, when
// set, is offered as a "Try again" link.
func RenderPage(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL, retryURL string) {
	render(w, r, status, title, msg, backURL, retryURL)
}

func render(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL, retryURL string) {
	vm := viewdata.NewBaseVM(r, title, "/")
	if backURL != "" {
		vm.BackURL = backURL
	}
	viewdata.RenderStatus(w, r, status, "error_page", pageData{
		BaseVM:   vm,
		Message:  msg,
		RetryURL: retryURL,
	})
}
