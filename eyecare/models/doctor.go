package models

import (
	"github.com/smart-eye-care/eyecare-connector-go/internals/http"
)

const (
	DoctorURL       = "/doctors/"
	DoctorCreateURL = "/doctors/create"
)

type Doctor struct {
	DoctorID       string `json:"doctorId"`
	UserID         string `json:"userId"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Specialization string `json:"specialization"`
	ContactNumber  string `json:"contactNumber"`

	http.BaseModel
}

type NewDoctor struct {
	UserID         string `json:"userId"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Specialization string `json:"specialization"`
	ContactNumber  string `json:"contactNumber"`
}
