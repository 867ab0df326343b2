package eyecare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smart-eye-care/eyecare-connector-go/eyecare/models"
	secHttp "github.com/smart-eye-care/eyecare-connector-go/internals/http"
)

// Route is the dashboard a signed-in identity lands on.
type Route string

const (
	RouteLogin   Route = "/login"
	RouteAdmin   Route = "/admin"
	RouteDoctor  Route = "/doctor"
	RoutePatient Route = "/patient"
)

// Identity is the decoded session principal. Its role shapes which views and
// actions the client offers, nothing more: every mutation is still checked
// by the gateway, and a gateway denial is surfaced as an error.
type Identity struct {
	UserID    string      `json:"userId"`
	UserName  string      `json:"userName"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Token     string      `json:"token"`
}

func (id *Identity) Expired() bool {
	return !id.ExpiresAt.IsZero() && time.Now().After(id.ExpiresAt)
}

type sessionClaims struct {
	UserID   string      `json:"userId"`
	UserName string      `json:"userName"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// DecodeIdentity decodes the gateway's signed token without verifying the
// signature. The client has no key material; the decoded claims are a UI
// hint only and the gateway re-checks authorization on every call.
func DecodeIdentity(token string) (*Identity, error) {
	claims := &sessionClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("token carries unknown role %q", claims.Role)
	}

	identity := &Identity{
		UserID:   claims.UserID,
		UserName: claims.UserName,
		Role:     claims.Role,
		Token:    token,
	}
	if identity.UserID == "" {
		identity.UserID = claims.Subject
	}
	if identity.UserName == "" {
		identity.UserName = claims.Subject
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// LandingRoute maps an identity to its dashboard. It is a pure function: it
// can be re-derived at any point, e.g. after a reload, from Session.Current.
func LandingRoute(identity *Identity) Route {
	if identity == nil {
		return RouteLogin
	}
	switch identity.Role {
	case models.RoleAdmin:
		return RouteAdmin
	case models.RoleDoctor:
		return RouteDoctor
	case models.RolePatient:
		return RoutePatient
	}
	return RouteLogin
}

// SessionStore persists at most one identity, the way the browser app kept a
// single record in local storage.
type SessionStore interface {
	Save(identity Identity) error
	// Load returns nil when no session exists or the stored value is
	// malformed; a broken slot is treated as absent, not as an error.
	Load() (*Identity, error)
	Clear() error
}

// FileSessionStore keeps the identity in a single JSON file, overwritten on
// each login and removed on logout.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// DefaultSessionPath is the per-user location used when the caller does not
// supply one.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "eyecare", "session.json"), nil
}

func (s *FileSessionStore) Save(identity Identity) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileSessionStore) Load() (*Identity, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, nil
	}
	return &identity, nil
}

func (s *FileSessionStore) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemorySessionStore holds the identity in memory only. Useful for tests and
// for callers that do not want a session surviving the process.
type MemorySessionStore struct {
	mu       sync.Mutex
	identity *Identity
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Save(identity Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
	return nil
}

func (s *MemorySessionStore) Load() (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil, nil
	}
	identity := *s.identity
	return &identity, nil
}

func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	return nil
}

// Session establishes, exposes and tears down the current identity. It owns
// the single session slot; every role-gated view consults it.
type Session struct {
	mu     sync.Mutex
	client *secHttp.Client
	store  SessionStore
}

// NewSession wires the guard to the login endpoint and a storage slot. The
// client may be anonymous; login is the only call it makes.
func NewSession(client *secHttp.Client, store SessionStore) *Session {
	return &Session{client: client, store: store}
}

// Login authenticates against the gateway and persists the decoded identity.
// A rejection or an undecodable token yields an AuthenticationError and
// leaves the slot untouched.
func (s *Session) Login(ctx context.Context, username string, password string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(models.LoginRequest{UserName: username, Password: password})
	if err != nil {
		return nil, err
	}

	var resp models.LoginResponse
	err = s.client.PostAndParse(ctx, models.LoginURL, bytes.NewReader(payload), &resp)
	if err != nil {
		if gwErr, ok := AsGatewayError(err); ok && gwErr.StatusCode < 500 {
			return nil, AuthenticationError{Reason: gwErr.Message}
		}
		return nil, err
	}
	if resp.Token == "" {
		return nil, AuthenticationError{Reason: "gateway returned no token"}
	}

	identity, err := DecodeIdentity(resp.Token)
	if err != nil {
		return nil, AuthenticationError{Reason: err.Error()}
	}

	if err := s.store.Save(*identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// Current reads the persisted slot synchronously; no network call is made.
// An absent, malformed or expired session comes back as nil.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, err := s.store.Load()
	if err != nil || identity == nil {
		return nil
	}
	if identity.Expired() || !identity.Role.Valid() {
		return nil
	}
	return identity
}

// Logout clears the slot unconditionally. Calling it twice is fine.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clear()
}
