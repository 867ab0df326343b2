package models

import (
	"time"

	"github.com/smart-eye-care/eyecare-connector-go/internals/http"
)

const (
	ReportURL          = "/report/"
	ReportCreateURL    = "/report/create"
	ReportByDoctorURL  = "/report/byDoctor/"
	ReportByPatientURL = "/report/byPatient/"
)

// Severity is the three-value scale a report carries. The enumeration is
// authoritative; any other value is rejected before it reaches the gateway.
type Severity string

const (
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

type Image struct {
	ID     string `json:"id"`
	ImgURL string `json:"imgUrl"`
}

// Report is a persisted diagnostic report. The patient and doctor snapshots
// are filled in by the gateway on single-report reads and may be absent in
// list responses.
type Report struct {
	ReportID           string    `json:"reportId"`
	PatientID          string    `json:"patientId"`
	DoctorID           string    `json:"doctorId"`
	Prediction         string    `json:"prediction"`
	Severity           Severity  `json:"severity"`
	DoctorPrescription string    `json:"doctorPrescription"`
	Images             []Image   `json:"images,omitempty"`
	Patient            *Patient  `json:"patient,omitempty"`
	Doctor             *Doctor   `json:"doctor,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`

	http.BaseModel
}

// NewReport is the creation payload; the gateway assigns the reportId, the
// authoring doctor and the timestamps.
type NewReport struct {
	PatientID          string   `json:"patientId"`
	Prediction         string   `json:"prediction"`
	Severity           Severity `json:"severity"`
	DoctorPrescription string   `json:"doctorPrescription"`
	ImageURLs          []string `json:"imageUrls"`
}

// ReportUpdate carries the only fields that stay editable once a report is
// created. Patient, doctor, images and timestamps are immutable.
type ReportUpdate struct {
	Prediction         string   `json:"prediction"`
	Severity           Severity `json:"severity"`
	DoctorPrescription string   `json:"doctorPrescription"`
}
