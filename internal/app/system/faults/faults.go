// Package faults defines the error taxonomy shared by the dashboard, the
// session store, the form screens and the extraction pipeline.
//
// Callers classify failures with errors.Is against the sentinels below.
// Branch and extraction failures are normally absorbed where they happen;
// the sentinels exist so logs and tests can still tell them apart.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRootFetchFailed means the root collection (an organization's trials)
	// could not be read. Fatal to the current view.
	ErrRootFetchFailed = errors.New("root fetch failed")

	// ErrBranchFetchFailed means a child or leaf fetch failed. Recovered by
	// degrading that branch only.
	ErrBranchFetchFailed = errors.New("branch fetch failed")

	// ErrActionFailed means a user-initiated remote action (approve, reject,
	// login, signup, submit) failed. No local state changes.
	ErrActionFailed = errors.New("action failed")

	// ErrExtractionFailed means text could not be pulled from one document.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrValidationFailed means required input is missing or inconsistent.
	ErrValidationFailed = errors.New("validation failed")
)

// Wrap tags err with a taxonomy sentinel and an operation name. Both the
// sentinel and the original error stay reachable through errors.Is/As.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// Action is shorthand for Wrap(ErrActionFailed, op, err).
func Action(op string, err error) error {
	return Wrap(ErrActionFailed, op, err)
}

// FieldError is one problem with one form field.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// Validation collects every field-level problem found in a form.
type Validation struct {
	Fields []FieldError
}

// Add records a problem for field.
func (v *Validation) Add(field, msg string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: msg})
}

// Require records "is required" when value is blank.
func (v *Validation) Require(field, label, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, label+" is required.")
	}
}

// Has reports whether field has at least one recorded problem.
func (v *Validation) Has(field string) bool {
	for _, f := range v.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Err returns v as an error, or nil when nothing was recorded.
func (v *Validation) Err() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *Validation) Error() string {
	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, " ")
}

// Is lets errors.Is(err, ErrValidationFailed) match a *Validation.
func (v *Validation) Is(target error) bool {
	return target == ErrValidationFailed
}

// Messages returns the user-facing messages in the order recorded.
func (v *Validation) Messages() []string {
	out := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		out = append(out, f.Message)
	}
	return out
}

// AsValidation extracts a *Validation from err.
func AsValidation(err error) (*Validation, bool) {
	var v *Validation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
