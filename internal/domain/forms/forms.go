// Package forms defines the submitted records behind each form screen.
//
// Every form has a pure Validate that reports all problems at once as a
// *faults.Validation, so a re-rendered page can flag every field.
package forms

import (
	"net/http"
	"strings"

	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/app/system/inputval"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/samber/lo"
)

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

func checkEmail(v *faults.Validation, value string) {
	if value != "" && !inputval.IsValidEmail(value) {
		v.Add("email", "A valid email address is required.")
	}
}

// LoginForm is the organization sign-in form.
type LoginForm struct {
	Email    string
	Password string
}

// ParseLogin reads a LoginForm from a posted request.
func ParseLogin(r *http.Request) LoginForm {
	return LoginForm{
		Email:    field(r, "email"),
		Password: r.PostFormValue("password"),
	}
}

func (f LoginForm) Validate() error {
	var v faults.Validation
	v.Require("email", "Email", f.Email)
	checkEmail(&v, f.Email)
	if f.Password == "" {
		v.Add("password", "Password is required.")
	}
	return v.Err()
}

// Credentials returns the login payload.
func (f LoginForm) Credentials() models.Credentials {
	return models.Credentials{Email: strings.ToLower(f.Email), Password: f.Password}
}

// SignupForm is the organization registration form.
type SignupForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// ParseSignup reads a SignupForm from a posted request.
func ParseSignup(r *http.Request) SignupForm {
	return SignupForm{
		Name:            field(r, "name"),
		Email:           field(r, "email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
}

func (f SignupForm) Validate() error {
	var v faults.Validation
	v.Require("name", "Organization name", f.Name)
	v.Require("email", "Email", f.Email)
	checkEmail(&v, f.Email)
	if f.Password == "" {
		v.Add("password", "Password is required!")
	} else if f.Password != f.ConfirmPassword {
		v.Add("confirm_password", "Passwords do not match!")
	}
	return v.Err()
}

// Details returns the signup payload.
func (f SignupForm) Details() models.SignupDetails {
	return models.SignupDetails{Name: f.Name, Email: strings.ToLower(f.Email), Password: f.Password}
}

// TrialForm is the new-trial form. Criteria holds one criterion per line.
type TrialForm struct {
	Title        string
	Description  string
	StartDate    string
	EndDate      string
	Location     string
	Compensation string
	ContactName  string
	ContactPhone string
	Criteria     string
}

// ParseTrial reads a TrialForm from a posted request.
func ParseTrial(r *http.Request) TrialForm {
	return TrialForm{
		Title:        field(r, "title"),
		Description:  field(r, "description"),
		StartDate:    field(r, "start_date"),
		EndDate:      field(r, "end_date"),
		Location:     field(r, "location"),
		Compensation: field(r, "compensation"),
		ContactName:  field(r, "contact_name"),
		ContactPhone: field(r, "contact_phone"),
		Criteria:     r.PostFormValue("criteria"),
	}
}

func (f TrialForm) Validate() error {
	var v faults.Validation
	v.Require("title", "Title", f.Title)
	v.Require("description", "Description", f.Description)
	v.Require("start_date", "Start date", f.StartDate)
	v.Require("end_date", "End date", f.EndDate)
	v.Require("location", "Location", f.Location)
	v.Require("contact_name", "Contact name", f.ContactName)
	v.Require("contact_phone", "Contact phone", f.ContactPhone)

	start, startOK := inputval.ParseDate(f.StartDate)
	end, endOK := inputval.ParseDate(f.EndDate)
	if f.StartDate != "" && !startOK {
		v.Add("start_date", "Start date must be a valid date.")
	}
	if f.EndDate != "" && !endOK {
		v.Add("end_date", "End date must be a valid date.")
	}
	if startOK && endOK && end.Before(start) {
		v.Add("end_date", "End date cannot be before the start date.")
	}
	if f.ContactPhone != "" && !inputval.IsDigits(f.ContactPhone) {
		v.Add("contact_phone", "Contact phone may contain digits only.")
	}
	return v.Err()
}

// CriteriaList splits Criteria into trimmed, non-empty lines.
func (f TrialForm) CriteriaList() []string {
	lines := lo.Map(strings.Split(f.Criteria, "\n"), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(lines)
}

// Trial converts the form into the payload for POST /trials.
func (f TrialForm) Trial(orgID string) models.Trial {
	return models.Trial{
		Title:          f.Title,
		Description:    f.Description,
		StartDate:      f.StartDate,
		EndDate:        f.EndDate,
		Location:       f.Location,
		Compensation:   f.Compensation,
		ContactName:    f.ContactName,
		ContactPhone:   f.ContactPhone,
		OrganizationID: orgID,
		Criteria:       f.CriteriaList(),
	}
}

// Genders are the accepted values of the intake form's gender field.
var Genders = []string{"male", "female", "other", "prefer-not-to-say"}

// VolunteerForm is the volunteer health-intake form.
type VolunteerForm struct {
	Name              string
	Email             string
	Phone             string
	DateOfBirth       string
	Gender            string
	Height            string
	Weight            string
	MedicalConditions string
	Medications       string
	Allergies         string
	PastSurgeries     string
}

// ParseVolunteer reads a VolunteerForm from a posted request.
func ParseVolunteer(r *http.Request) VolunteerForm {
	return VolunteerForm{
		Name:              field(r, "name"),
		Email:             field(r, "email"),
		Phone:             field(r, "phone"),
		DateOfBirth:       field(r, "date_of_birth"),
		Gender:            field(r, "gender"),
		Height:            field(r, "height"),
		Weight:            field(r, "weight"),
		MedicalConditions: field(r, "medical_conditions"),
		Medications:       field(r, "medications"),
		Allergies:         field(r, "allergies"),
		PastSurgeries:     field(r, "past_surgeries"),
	}
}

func (f VolunteerForm) Validate() error {
	var v faults.Validation
	v.Require("name", "Full name", f.Name)
	v.Require("email", "Email", f.Email)
	checkEmail(&v, f.Email)
	v.Require("date_of_birth", "Date of birth", f.DateOfBirth)
	if f.DateOfBirth != "" {
		if _, ok := inputval.ParseDate(f.DateOfBirth); !ok {
			v.Add("date_of_birth", "Date of birth must be a valid date.")
		}
	}
	v.Require("gender", "Gender", f.Gender)
	if f.Gender != "" && !lo.Contains(Genders, f.Gender) {
		v.Add("gender", "Gender must be one of: "+strings.Join(Genders, ", ")+".")
	}
	if f.Phone != "" && !inputval.IsDigits(f.Phone) {
		v.Add("phone", "Phone may contain digits only.")
	}
	if f.Height != "" && !inputval.IsNumber(f.Height) {
		v.Add("height", "Height must be a number.")
	}
	if f.Weight != "" && !inputval.IsNumber(f.Weight) {
		v.Add("weight", "Weight must be a number.")
	}
	return v.Err()
}

// Application converts the form plus the extracted documents into the record
// that is stored for the backend.
func (f VolunteerForm) Application(documentNames []string, report string) models.VolunteerApplication {
	return models.VolunteerApplication{
		Name:              f.Name,
		Email:             f.Email,
		EmailCI:           strings.ToLower(f.Email),
		Phone:             f.Phone,
		DateOfBirth:       f.DateOfBirth,
		Gender:            f.Gender,
		HeightCM:          f.Height,
		WeightKG:          f.Weight,
		MedicalConditions: f.MedicalConditions,
		Medications:       f.Medications,
		Allergies:         f.Allergies,
		PastSurgeries:     f.PastSurgeries,
		DocumentNames:     documentNames,
		ReportText:        report,
		Status:            models.ApplicationSubmitted,
	}
}
