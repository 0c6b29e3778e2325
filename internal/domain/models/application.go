// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application status values.
const (
	ApplicationSubmitted = "submitted"
)

// VolunteerApplication is a submitted health-intake form. The uploaded files
// themselves are not kept; only their names and the combined extracted text.
type VolunteerApplication struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name        string `bson:"name" json:"name"`
	Email       string `bson:"email" json:"email"`
	EmailCI     string `bson:"email_ci" json:"-"`
	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
	DateOfBirth string `bson:"date_of_birth" json:"dateOfBirth"`
	Gender      string `bson:"gender" json:"gender"`
	HeightCM    string `bson:"height_cm,omitempty" json:"height,omitempty"`
	WeightKG    string `bson:"weight_kg,omitempty" json:"weight,omitempty"`

	MedicalConditions string `bson:"medical_conditions,omitempty" json:"medicalConditions,omitempty"`
	Medications       string `bson:"medications,omitempty" json:"medications,omitempty"`
	Allergies         string `bson:"allergies,omitempty" json:"allergies,omitempty"`
	PastSurgeries     string `bson:"past_surgeries,omitempty" json:"pastSurgeries,omitempty"`

	DocumentNames []string `bson:"document_names,omitempty" json:"documentNames,omitempty"`
	ReportText    string   `bson:"report_text,omitempty" json:"reportText,omitempty"`

	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
