// internal/domain/models/organization.go
package models

// Organization is the identity of the signed-in trial sponsor as returned by
// the matching backend on login or signup.
type Organization struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// IsZero reports whether no organization identity is present.
func (o Organization) IsZero() bool {
	return o.ID == ""
}

// Credentials is the payload posted to /login-org.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupDetails is the payload posted to /signup-org.
type SignupDetails struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
