package eyecare

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/smart-eye-care/eyecare-connector-go/eyecare/models"
	secHttp "github.com/smart-eye-care/eyecare-connector-go/internals/http"
	"github.com/smart-eye-care/eyecare-connector-go/internals/utils"
)

const (
	profileCacheTTL   = 10 * time.Minute
	profileCacheSweep = 15 * time.Minute
)

// EyeCare is a connector to the Smart Eye Care records gateway. It exposes
// the typed operations the dashboards need; all durable state lives on the
// gateway side.
type EyeCare struct {
	Client  *secHttp.Client
	Session *Session

	profiles *cache.Cache
}

// New builds a connector around an existing token, without touching the
// network. The session slot starts empty and in memory.
func New(url string, token string, verifyCert bool) *EyeCare {
	return &EyeCare{
		Client:   secHttp.NewClient(url, token, verifyCert),
		Session:  NewSession(secHttp.NewAnonymousClient(url, verifyCert), NewMemorySessionStore()),
		profiles: cache.New(profileCacheTTL, profileCacheSweep),
	}
}

// Connect logs in with a username and password, persists the session in the
// given store and returns a connector authenticated with the issued token.
func Connect(ctx context.Context, url string, username string, password string, verifyCert bool, store SessionStore) (*EyeCare, error) {
	url, err := utils.ValidateURL(url)
	if err != nil {
		return nil, errors.New("invalid url")
	}
	if store == nil {
		store = NewMemorySessionStore()
	}

	session := NewSession(secHttp.NewAnonymousClient(url, verifyCert), store)
	identity, err := session.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	return &EyeCare{
		Client:   secHttp.NewClient(url, identity.Token, verifyCert),
		Session:  session,
		profiles: cache.New(profileCacheTTL, profileCacheSweep),
	}, nil
}

// Resume rebuilds a connector from a previously persisted session, the
// reload case. It fails with an AuthenticationError when the store holds no
// usable identity; no network call is made.
func Resume(url string, verifyCert bool, store SessionStore) (*EyeCare, error) {
	url, err := utils.ValidateURL(url)
	if err != nil {
		return nil, errors.New("invalid url")
	}

	session := NewSession(secHttp.NewAnonymousClient(url, verifyCert), store)
	identity := session.Current()
	if identity == nil {
		return nil, AuthenticationError{Reason: "no active session"}
	}

	return &EyeCare{
		Client:   secHttp.NewClient(url, identity.Token, verifyCert),
		Session:  session,
		profiles: cache.New(profileCacheTTL, profileCacheSweep),
	}, nil
}

// Logout drops the persisted session. The connector must not be used for
// authenticated calls afterwards.
func (ec *EyeCare) Logout() error {
	ec.profiles.Flush()
	return ec.Session.Logout()
}

func (ec *EyeCare) postJSON(ctx context.Context, path string, payload interface{}, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return ec.Client.PostAndParse(ctx, path, bytes.NewReader(body), target)
}

func (ec *EyeCare) putJSON(ctx context.Context, path string, payload interface{}, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return ec.Client.PutAndParse(ctx, path, bytes.NewReader(body), target)
}

// Users lists all accounts. Admin dashboard only; the gateway rejects other
// roles.
func (ec *EyeCare) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := ec.Client.GetAndParse(ctx, models.UserURL, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (ec *EyeCare) CreateUser(ctx context.Context, newUser models.NewUser) (*models.User, error) {
	var user models.User
	err := ec.postJSON(ctx, models.UserCreateURL, newUser, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ec *EyeCare) DeleteUser(ctx context.Context, id string) error {
	return ec.Client.Delete(ctx, models.UserURL+id)
}

func (ec *EyeCare) Doctors(ctx context.Context) ([]models.Doctor, error) {
	var doctors []models.Doctor
	err := ec.Client.GetAndParse(ctx, models.DoctorURL, &doctors)
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

func (ec *EyeCare) CreateDoctor(ctx context.Context, newDoctor models.NewDoctor) (*models.Doctor, error) {
	var doctor models.Doctor
	err := ec.postJSON(ctx, models.DoctorCreateURL, newDoctor, &doctor)
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (ec *EyeCare) DeleteDoctor(ctx context.Context, id string) error {
	return ec.Client.Delete(ctx, models.DoctorURL+id)
}

func (ec *EyeCare) Patients(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	err := ec.Client.GetAndParse(ctx, models.PatientURL, &patients)
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (ec *EyeCare) CreatePatient(ctx context.Context, newPatient models.NewPatient) (*models.Patient, error) {
	var patient models.Patient
	err := ec.postJSON(ctx, models.PatientCreateURL, newPatient, &patient)
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (ec *EyeCare) DeletePatient(ctx context.Context, id string) error {
	ec.profiles.Delete(profileKey("patient", id))
	return ec.Client.Delete(ctx, models.PatientURL+id)
}

// MyPatientProfile resolves the signed-in patient's own profile. The lookup
// is cached; report views resolve it repeatedly.
func (ec *EyeCare) MyPatientProfile(ctx context.Context) (*models.Patient, error) {
	key := profileKey("patient", "me")
	if x, found := ec.profiles.Get(key); found {
		patient := x.(models.Patient)
		return &patient, nil
	}

	var patient models.Patient
	err := ec.Client.GetAndParse(ctx, models.PatientMeURL, &patient)
	if err != nil {
		return nil, err
	}
	ec.profiles.Set(key, patient, cache.DefaultExpiration)
	return &patient, nil
}

// PatientProfile fetches one patient by id, with the same cache.
func (ec *EyeCare) PatientProfile(ctx context.Context, id string) (*models.Patient, error) {
	key := profileKey("patient", id)
	if x, found := ec.profiles.Get(key); found {
		patient := x.(models.Patient)
		return &patient, nil
	}

	var patient models.Patient
	err := ec.Client.GetAndParse(ctx, models.PatientURL+id, &patient)
	if err != nil {
		return nil, err
	}
	ec.profiles.Set(key, patient, cache.DefaultExpiration)
	return &patient, nil
}

// DoctorProfile fetches one doctor by id, cached like patients.
func (ec *EyeCare) DoctorProfile(ctx context.Context, id string) (*models.Doctor, error) {
	key := profileKey("doctor", id)
	if x, found := ec.profiles.Get(key); found {
		doctor := x.(models.Doctor)
		return &doctor, nil
	}

	var doctor models.Doctor
	err := ec.Client.GetAndParse(ctx, models.DoctorURL+id, &doctor)
	if err != nil {
		return nil, err
	}
	ec.profiles.Set(key, doctor, cache.DefaultExpiration)
	return &doctor, nil
}

func profileKey(kind string, id string) string {
	return kind + ":" + id
}

// Registration is the self-service signup form: one account plus one patient
// profile.
type Registration struct {
	UserName      string
	Password      string
	Email         string
	FirstName     string
	LastName      string
	DateOfBirth   string
	ContactNumber string
	Address       string
}

// RegisterPatient runs the two-step signup: create the account, then create
// the patient profile under the returned userId. The error says which step
// failed; a profile failure leaves the created account behind, which matches
// the gateway's behavior.
func RegisterPatient(ctx context.Context, url string, reg Registration, verifyCert bool) (*models.Patient, error) {
	url, err := utils.ValidateURL(url)
	if err != nil {
		return nil, errors.New("invalid url")
	}
	client := secHttp.NewAnonymousClient(url, verifyCert)

	userPayload, err := json.Marshal(models.NewUser{
		UserName: reg.UserName,
		Password: reg.Password,
		Email:    reg.Email,
		Role:     models.RolePatient,
	})
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := client.PostAndParse(ctx, models.UserCreateURL, bytes.NewReader(userPayload), &user); err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	patientPayload, err := json.Marshal(models.NewPatient{
		UserID:        user.UserID,
		FirstName:     reg.FirstName,
		LastName:      reg.LastName,
		DateOfBirth:   reg.DateOfBirth,
		ContactNumber: reg.ContactNumber,
		Address:       reg.Address,
	})
	if err != nil {
		return nil, err
	}
	var patient models.Patient
	if err := client.PostAndParse(ctx, models.PatientCreateURL, bytes.NewReader(patientPayload), &patient); err != nil {
		return nil, errors.Wrap(err, "create patient profile")
	}
	return &patient, nil
}
