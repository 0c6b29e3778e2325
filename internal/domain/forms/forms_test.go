package forms_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/domain/forms"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		return nil
	}
	if !errors.Is(err, faults.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	v, ok := faults.AsValidation(err)
	if !ok {
		t.Fatalf("expected *faults.Validation, got %T", err)
	}
	var out []string
	for _, f := range v.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestLoginForm(t *testing.T) {
	if err := (forms.LoginForm{Email: "a@b.com", Password: "x"}).Validate(); err != nil {
		t.Errorf("valid login: %v", err)
	}

	got := fieldsOf(t, forms.LoginForm{}.Validate())
	if !reflect.DeepEqual(got, []string{"email", "password"}) {
		t.Errorf("empty login fields = %v", got)
	}

	got = fieldsOf(t, forms.LoginForm{Email: "not-an-email", Password: "x"}.Validate())
	if !reflect.DeepEqual(got, []string{"email"}) {
		t.Errorf("bad email fields = %v", got)
	}
}

func TestLoginForm_CredentialsLowercaseEmail(t *testing.T) {
	c := forms.LoginForm{Email: "Desk@Example.COM", Password: "Secret"}.Credentials()
	if c.Email != "desk@example.com" || c.Password != "Secret" {
		t.Errorf("unexpected credentials %+v", c)
	}
}

func TestSignupForm(t *testing.T) {
	ok := forms.SignupForm{Name: "Acme", Email: "a@b.com", Password: "pw", ConfirmPassword: "pw"}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid signup: %v", err)
	}

	mismatch := ok
	mismatch.ConfirmPassword = "other"
	err := mismatch.Validate()
	v, _ := faults.AsValidation(err)
	if v == nil || !v.Has("confirm_password") || v.Messages()[0] != "Passwords do not match!" {
		t.Errorf("expected mismatch error, got %v", err)
	}

	got := fieldsOf(t, forms.SignupForm{}.Validate())
	if !reflect.DeepEqual(got, []string{"name", "email", "password"}) {
		t.Errorf("empty signup fields = %v", got)
	}
}

func validTrial() forms.TrialForm {
	return forms.TrialForm{
		Title:        "Sleep and memory",
		Description:  "Eight-week study",
		StartDate:    "2025-03-01",
		EndDate:      "2025-05-01",
		Location:     "Columbia, MO",
		ContactName:  "Dr. Lee",
		ContactPhone: "5551234567",
		Criteria:     "Age 18-65\n\n  Non-smoker  \n",
	}
}

func TestTrialForm_Valid(t *testing.T) {
	f := validTrial()
	if err := f.Validate(); err != nil {
		t.Fatalf("valid trial: %v", err)
	}
	tr := f.Trial("org-1")
	if tr.OrganizationID != "org-1" || tr.Title != f.Title {
		t.Errorf("unexpected trial %+v", tr)
	}
	if !reflect.DeepEqual(tr.Criteria, []string{"Age 18-65", "Non-smoker"}) {
		t.Errorf("criteria = %q", tr.Criteria)
	}
}

func TestTrialForm_ListsEveryMissingField(t *testing.T) {
	got := fieldsOf(t, forms.TrialForm{}.Validate())
	want := []string{"title", "description", "start_date", "end_date", "location", "contact_name", "contact_phone"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
}

func TestTrialForm_Inconsistent(t *testing.T) {
	f := validTrial()
	f.EndDate = "2025-02-01"
	f.ContactPhone = "555-1234"
	got := fieldsOf(t, f.Validate())
	if !reflect.DeepEqual(got, []string{"end_date", "contact_phone"}) {
		t.Errorf("fields = %v", got)
	}

	f = validTrial()
	f.EndDate = f.StartDate
	if err := f.Validate(); err != nil {
		t.Errorf("same-day trial should be valid: %v", err)
	}
}

func validVolunteer() forms.VolunteerForm {
	return forms.VolunteerForm{
		Name:        "Ada Lovelace",
		Email:       "ada@example.com",
		DateOfBirth: "1990-12-10",
		Gender:      "female",
		Height:      "165",
		Weight:      "58.5",
	}
}

func TestVolunteerForm(t *testing.T) {
	if err := validVolunteer().Validate(); err != nil {
		t.Fatalf("valid volunteer: %v", err)
	}

	got := fieldsOf(t, forms.VolunteerForm{}.Validate())
	if !reflect.DeepEqual(got, []string{"name", "email", "date_of_birth", "gender"}) {
		t.Errorf("empty volunteer fields = %v", got)
	}

	f := validVolunteer()
	f.Gender = "unknown"
	f.Height = "tall"
	f.Phone = "(555) 123"
	got = fieldsOf(t, f.Validate())
	if !reflect.DeepEqual(got, []string{"gender", "phone", "height"}) {
		t.Errorf("inconsistent volunteer fields = %v", got)
	}
}

func TestVolunteerForm_Application(t *testing.T) {
	app := validVolunteer().Application([]string{"labs.pdf"}, "--- labs.pdf ---\nA1C 5.2")
	if app.EmailCI != "ada@example.com" || app.Status != "submitted" {
		t.Errorf("unexpected application %+v", app)
	}
	if len(app.DocumentNames) != 1 || !strings.Contains(app.ReportText, "A1C") {
		t.Errorf("documents not carried: %+v", app)
	}
}

func TestParseTrial(t *testing.T) {
	vals := url.Values{
		"title":         {"  Sleep  "},
		"contact_phone": {"5551234567"},
		"criteria":      {"a\nb"},
	}
	req := httptest.NewRequest(http.MethodPost, "/trials/new", strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f := forms.ParseTrial(req)
	if f.Title != "Sleep" || f.ContactPhone != "5551234567" || len(f.CriteriaList()) != 2 {
		t.Errorf("unexpected parse %+v", f)
	}
}
