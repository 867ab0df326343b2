package models

import (
	"time"

	"github.com/smart-eye-care/eyecare-connector-go/internals/http"
)

const (
	PatientURL       = "/patient/"
	PatientMeURL     = "/patient/me"
	PatientCreateURL = "/patient/create"
)

type Patient struct {
	PatientID     string    `json:"patientId"`
	UserID        string    `json:"userId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	DateOfBirth   string    `json:"dateOfBirth"`
	ContactNumber string    `json:"contactNumber"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	http.BaseModel
}

// NewPatient is the profile-creation payload. The gateway expects the date
// of birth under "dob" here but serves it back as "dateOfBirth".
type NewPatient struct {
	UserID        string `json:"userId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	DateOfBirth   string `json:"dob"`
	ContactNumber string `json:"contactNumber"`
	Address       string `json:"address"`
}
