package eyecare

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/smart-eye-care/eyecare-connector-go/eyecare/models"
)

// State identifies where the report workflow currently is.
type State string

const (
	StateListing    State = "listing"
	StateDrafting   State = "drafting"
	StatePredicting State = "predicting"
	StateViewing    State = "viewing"
	StateEditing    State = "editing"
)

// Draft is the unsaved report under construction. It lives only in this
// process; abandoning it has no side effect on the gateway.
type Draft struct {
	// ID is a client-side handle; the gateway assigns the real reportId
	// on creation.
	ID                 string
	PatientID          string
	Prediction         string
	Severity           models.Severity
	DoctorPrescription string
	ImageURLs          []string
}

// Edit is the bounded editable subset of a persisted report. Patient,
// doctor, images and timestamps are not part of it.
type Edit struct {
	Prediction         string
	Severity           models.Severity
	DoctorPrescription string
}

// Workflow drives a report from draft to persisted and through bounded
// post-creation edits. It consults the session guard for every role-gated
// step and talks to the gateway for all durable state.
//
// A Workflow is not safe for concurrent use: one authoring or editing
// session is active at a time, matching the single dashboard the original
// client renders.
type Workflow struct {
	gateway *EyeCare
	session *Session
	log     *slog.Logger

	state   State
	reports []models.Report
	draft   *Draft
	current *models.Report
	edit    *Edit
}

type WorkflowOption func(*Workflow)

func WithLogger(log *slog.Logger) WorkflowOption {
	return func(w *Workflow) {
		w.log = log
	}
}

func NewWorkflow(gateway *EyeCare, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		gateway: gateway,
		session: gateway.Session,
		state:   StateListing,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w
}

func (w *Workflow) State() State {
	return w.state
}

// Reports is the listing fetched by the last successful Refresh.
func (w *Workflow) Reports() []models.Report {
	return w.reports
}

// Draft returns the report under construction, or nil outside Drafting.
func (w *Workflow) Draft() *Draft {
	return w.draft
}

// Report returns the currently opened report, or nil.
func (w *Workflow) Report() *models.Report {
	return w.current
}

// Edit returns the in-progress edit copy, or nil.
func (w *Workflow) Edit() *Edit {
	return w.edit
}

// Refresh fetches the role-scoped report set: everything for an admin, own
// authored reports for a doctor, own received reports for a patient. It runs
// on entry and again after every successful mutation. A failure keeps the
// previous listing.
func (w *Workflow) Refresh(ctx context.Context) error {
	identity := w.session.Current()
	if identity == nil {
		return AuthenticationError{Reason: "no active session"}
	}

	var (
		reports []models.Report
		err     error
	)
	switch identity.Role {
	case models.RoleAdmin:
		reports, err = w.gateway.Reports(ctx)
	case models.RoleDoctor:
		reports, err = w.gateway.ReportsByDoctor(ctx, Me)
	case models.RolePatient:
		reports, err = w.gateway.ReportsByPatient(ctx, Me)
	default:
		return AuthenticationError{Reason: "no active session"}
	}
	if err != nil {
		return errors.Wrap(err, "refresh reports")
	}

	w.reports = reports
	w.log.Debug("report listing refreshed", "role", identity.Role, "count", len(reports))
	return nil
}

// StartDraft opens a fresh draft with the severity default. Only doctors and
// admins author reports; anyone else is turned away without a network call.
func (w *Workflow) StartDraft() (*Draft, error) {
	identity := w.session.Current()
	if identity == nil {
		return nil, AuthenticationError{Reason: "no active session"}
	}
	if identity.Role != models.RoleDoctor && identity.Role != models.RoleAdmin {
		return nil, ErrEditNotAllowed
	}

	w.draft = &Draft{
		ID:       uuid.NewString(),
		Severity: models.SeverityMild,
	}
	w.current = nil
	w.edit = nil
	w.state = StateDrafting
	return w.draft, nil
}

// AttachImage uploads one image and invokes the classifier in a single
// request. On success the returned label becomes the draft's prediction and
// the image reference is appended; the step is repeatable, and the last
// successful label wins unless the author overwrites it. On failure the
// draft is left exactly as it was.
func (w *Workflow) AttachImage(ctx context.Context, filename string, image io.Reader) (*models.PredictionResult, error) {
	if w.draft == nil || (w.state != StateDrafting && w.state != StatePredicting) {
		return nil, ErrNoDraft
	}

	w.state = StatePredicting
	result, err := w.gateway.UploadAndPredict(ctx, filename, image)
	w.state = StateDrafting
	if err != nil {
		w.log.Warn("prediction failed", "file", filename, "error", err)
		return nil, PredictionError{Err: err}
	}

	w.draft.Prediction = result.Prediction.Result
	w.draft.ImageURLs = append(w.draft.ImageURLs, result.ImageURL)
	w.log.Info("prediction attached", "draft", w.draft.ID, "label", result.Prediction.Result)
	return result, nil
}

func validateDraft(draft *Draft) error {
	if strings.TrimSpace(draft.PatientID) == "" {
		return ValidationError{Field: "patientId"}
	}
	if strings.TrimSpace(draft.Prediction) == "" {
		return ValidationError{Field: "prediction"}
	}
	if strings.TrimSpace(draft.DoctorPrescription) == "" {
		return ValidationError{Field: "doctorPrescription"}
	}
	if !draft.Severity.Valid() {
		return ValidationError{Field: "severity", Reason: "must be Mild, Moderate or Severe"}
	}
	return nil
}

// Submit validates the draft and persists it. Validation failures never
// reach the network. A gateway failure keeps the draft intact so the author
// can retry without re-entering anything; only a confirmed create discards
// it and returns the workflow to the refreshed listing.
func (w *Workflow) Submit(ctx context.Context) (*models.Report, error) {
	if w.draft == nil || w.state != StateDrafting {
		return nil, ErrNoDraft
	}
	if err := validateDraft(w.draft); err != nil {
		return nil, err
	}

	created, err := w.gateway.CreateReport(ctx, models.NewReport{
		PatientID:          w.draft.PatientID,
		Prediction:         w.draft.Prediction,
		Severity:           w.draft.Severity,
		DoctorPrescription: w.draft.DoctorPrescription,
		ImageURLs:          w.draft.ImageURLs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create report")
	}

	w.log.Info("report created", "report", created.ReportID, "patient", created.PatientID)
	w.draft = nil
	w.state = StateListing
	if err := w.Refresh(ctx); err != nil {
		// the create already succeeded; the listing is just stale
		w.log.Warn("refresh after create failed", "error", err)
	}
	return created, nil
}

// Abandon drops any draft or edit without talking to the gateway. Navigating
// away from authoring is always safe.
func (w *Workflow) Abandon() {
	w.draft = nil
	w.edit = nil
	w.current = nil
	w.state = StateListing
}

// Open fetches one report for viewing.
func (w *Workflow) Open(ctx context.Context, id string) (*models.Report, error) {
	if w.session.Current() == nil {
		return nil, AuthenticationError{Reason: "no active session"}
	}

	report, err := w.gateway.Report(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "open report")
	}
	w.current = report
	w.draft = nil
	w.edit = nil
	w.state = StateViewing
	return report, nil
}

// CanEdit says whether the signed-in identity may edit the opened report.
// It exists so a view can hide the affordance; BeginEdit enforces the same
// rule.
func (w *Workflow) CanEdit() bool {
	identity := w.session.Current()
	if identity == nil {
		return false
	}
	return identity.Role == models.RoleDoctor || identity.Role == models.RoleAdmin
}

// BeginEdit copies the three editable fields of the opened report. Patients
// are rejected here, before any network traffic.
func (w *Workflow) BeginEdit() (*Edit, error) {
	if w.current == nil || w.state != StateViewing {
		return nil, ErrNoReport
	}
	identity := w.session.Current()
	if identity == nil {
		return nil, AuthenticationError{Reason: "no active session"}
	}
	if identity.Role != models.RoleDoctor && identity.Role != models.RoleAdmin {
		return nil, ErrEditNotAllowed
	}

	w.edit = &Edit{
		Prediction:         w.current.Prediction,
		Severity:           w.current.Severity,
		DoctorPrescription: w.current.DoctorPrescription,
	}
	w.state = StateEditing
	return w.edit, nil
}

func validateEdit(edit *Edit) error {
	if strings.TrimSpace(edit.Prediction) == "" {
		return ValidationError{Field: "prediction"}
	}
	if strings.TrimSpace(edit.DoctorPrescription) == "" {
		return ValidationError{Field: "doctorPrescription"}
	}
	if !edit.Severity.Valid() {
		return ValidationError{Field: "severity", Reason: "must be Mild, Moderate or Severe"}
	}
	return nil
}

// SaveEdit persists the edit copy and re-fetches the report. On any failure
// the edits are kept and the workflow stays in Editing.
func (w *Workflow) SaveEdit(ctx context.Context) (*models.Report, error) {
	if w.edit == nil || w.state != StateEditing || w.current == nil {
		return nil, ErrNoEdit
	}
	if err := validateEdit(w.edit); err != nil {
		return nil, err
	}

	updated, err := w.gateway.UpdateReport(ctx, w.current.ReportID, models.ReportUpdate{
		Prediction:         w.edit.Prediction,
		Severity:           w.edit.Severity,
		DoctorPrescription: w.edit.DoctorPrescription,
	})
	if err != nil {
		return nil, errors.Wrap(err, "update report")
	}

	fresh, err := w.gateway.Report(ctx, w.current.ReportID)
	if err != nil {
		// the update went through; fall back to the update response
		w.log.Warn("re-fetch after update failed", "report", w.current.ReportID, "error", err)
		fresh = updated
	}

	w.log.Info("report updated", "report", fresh.ReportID)
	w.current = fresh
	w.edit = nil
	w.state = StateViewing
	return fresh, nil
}

// CancelEdit discards the edit copy and returns to viewing. No network call
// is made.
func (w *Workflow) CancelEdit() {
	w.edit = nil
	if w.current != nil {
		w.state = StateViewing
	} else {
		w.state = StateListing
	}
}
