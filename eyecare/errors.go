package eyecare

import (
	"errors"
	"fmt"

	secHttp "github.com/smart-eye-care/eyecare-connector-go/internals/http"
)

// GatewayError is re-exported so callers don't have to import internals.
type GatewayError = secHttp.GatewayError

// AuthenticationError means no session was or could be established. Login
// rejections and undecodable tokens end up here; no partial identity is ever
// persisted alongside one.
type AuthenticationError struct {
	Reason string
}

func (e AuthenticationError) Error() string {
	if e.Reason == "" {
		return "authentication failed"
	}
	return "authentication failed: " + e.Reason
}

// Is enables errors.Is matching regardless of the reason.
func (e AuthenticationError) Is(target error) bool {
	_, ok := target.(AuthenticationError)
	if ok {
		return true
	}
	_, ok = target.(*AuthenticationError)
	return ok
}

// ErrAuthentication is the sentinel for errors.Is checks.
var ErrAuthentication = AuthenticationError{}

// ValidationError is a client-side rejection of a draft or edit. It is
// raised before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

var ErrValidation = ValidationError{}

// PredictionError wraps a failed upload-and-predict call. The in-progress
// draft is left untouched so the author can retry or fill the label manually.
type PredictionError struct {
	Err error
}

func (e PredictionError) Error() string {
	if e.Err == nil {
		return "upload and predict failed"
	}
	return "upload and predict failed: " + e.Err.Error()
}

func (e PredictionError) Unwrap() error {
	return e.Err
}

func (e PredictionError) Is(target error) bool {
	_, ok := target.(PredictionError)
	if ok {
		return true
	}
	_, ok = target.(*PredictionError)
	return ok
}

var ErrPrediction = PredictionError{}

// Workflow misuse sentinels.
var (
	ErrNoDraft        = errors.New("no draft in progress")
	ErrNoReport       = errors.New("no report open")
	ErrNoEdit         = errors.New("no edit in progress")
	ErrEditNotAllowed = errors.New("role is not allowed to author or edit reports")
)

// AsGatewayError unwraps err down to the gateway response if there is one.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
