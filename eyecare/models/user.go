package models

import (
	"github.com/smart-eye-care/eyecare-connector-go/internals/http"
)

const (
	LoginURL      = "/api/auth/login"
	UserURL       = "/users/"
	UserCreateURL = "/users/create"
)

// Role is the account role the gateway assigns at creation. It gates which
// dashboard an identity lands on and which report actions the client offers;
// the gateway itself remains the authorization authority.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

type User struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`

	http.BaseModel
}

// NewUser is the creation payload; the gateway assigns the userId.
type NewUser struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
