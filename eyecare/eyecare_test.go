package eyecare_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gotest.tools/v3/assert"

	"github.com/smart-eye-care/eyecare-connector-go/eyecare"
	"github.com/smart-eye-care/eyecare-connector-go/eyecare/models"
)

func TestConnectAndResume(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId":   "u-5",
		"userName": "admin",
		"role":     "ADMIN",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			json.NewEncoder(w).Encode(models.LoginResponse{Token: token})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := eyecare.NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))

	connector, err := eyecare.Connect(context.Background(), srv.URL, "admin", "secret", true, store)
	assert.NilError(t, err)
	assert.Equal(t, connector.Session.Current().Role, models.RoleAdmin)
	assert.Equal(t, eyecare.LandingRoute(connector.Session.Current()), eyecare.RouteAdmin)

	// a fresh process picks the session back up without a network call
	resumed, err := eyecare.Resume(srv.URL, true, store)
	assert.NilError(t, err)
	assert.Equal(t, resumed.Session.Current().UserID, "u-5")

	// after logout, resuming fails
	assert.NilError(t, resumed.Logout())
	_, err = eyecare.Resume(srv.URL, true, store)
	assert.ErrorIs(t, err, eyecare.ErrAuthentication)
}

func TestConnectInvalidURL(t *testing.T) {
	_, err := eyecare.Connect(context.Background(), "", "u", "p", true, nil)
	assert.ErrorContains(t, err, "invalid url")
}

func TestRegisterPatientTwoStep(t *testing.T) {
	var gotUser models.NewUser
	var gotPatient models.NewPatient
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/create":
			assert.NilError(t, json.NewDecoder(r.Body).Decode(&gotUser))
			json.NewEncoder(w).Encode(models.User{UserID: "u-42", UserName: gotUser.UserName, Role: gotUser.Role})
		case "/patient/create":
			assert.NilError(t, json.NewDecoder(r.Body).Decode(&gotPatient))
			json.NewEncoder(w).Encode(models.Patient{PatientID: "p-9", UserID: gotPatient.UserID, FirstName: gotPatient.FirstName})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	patient, err := eyecare.RegisterPatient(context.Background(), srv.URL, eyecare.Registration{
		UserName:    "newpatient",
		Password:    "pw",
		Email:       "p@example.com",
		FirstName:   "Pat",
		LastName:    "Doe",
		DateOfBirth: "1990-01-02",
	}, true)
	assert.NilError(t, err)
	assert.Equal(t, patient.PatientID, "p-9")
	assert.Equal(t, gotUser.Role, models.RolePatient)
	assert.Equal(t, gotPatient.UserID, "u-42")
	assert.Equal(t, gotPatient.DateOfBirth, "1990-01-02")
}

func TestRegisterPatientReportsFailedStep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/create":
			json.NewEncoder(w).Encode(models.User{UserID: "u-42"})
		case "/patient/create":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"dob is malformed"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	_, err := eyecare.RegisterPatient(context.Background(), srv.URL, eyecare.Registration{UserName: "x"}, true)
	assert.ErrorContains(t, err, "create patient profile")
	assert.ErrorContains(t, err, "dob is malformed")
}

func TestUserAdministration(t *testing.T) {
	var deleted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/" && r.Method == "GET":
			json.NewEncoder(w).Encode([]models.User{
				{UserID: "u-1", UserName: "admin", Role: models.RoleAdmin},
				{UserID: "u-2", UserName: "doc", Role: models.RoleDoctor},
			})
		case r.URL.Path == "/users/u-2" && r.Method == "DELETE":
			deleted = "u-2"
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	connector := eyecare.New(srv.URL, "tok", true)

	users, err := connector.Users(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(users), 2)
	assert.Equal(t, users[1].Role, models.RoleDoctor)

	assert.NilError(t, connector.DeleteUser(context.Background(), "u-2"))
	assert.Equal(t, deleted, "u-2")
}

func TestProfileLookupsAreCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/patient/me":
			calls++
			json.NewEncoder(w).Encode(models.Patient{PatientID: "p-1", UserID: "u-1", FirstName: "Pat"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	connector := eyecare.New(srv.URL, "tok", true)

	first, err := connector.MyPatientProfile(context.Background())
	assert.NilError(t, err)
	second, err := connector.MyPatientProfile(context.Background())
	assert.NilError(t, err)

	assert.Equal(t, first.PatientID, second.PatientID)
	assert.Equal(t, calls, 1)

	// logout flushes the cache
	assert.NilError(t, connector.Logout())
	_, err = connector.MyPatientProfile(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, calls, 2)
}
