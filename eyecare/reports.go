package eyecare

import (
	"context"
	"io"

	"github.com/smart-eye-care/eyecare-connector-go/eyecare/models"
)

// Me scopes a report listing to the signed-in doctor or patient. The
// gateway resolves it server-side, so no caller ever sees another
// principal's set.
const Me = "me"

// Reports lists every report. The gateway only allows this for admins.
func (ec *EyeCare) Reports(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	err := ec.Client.GetAndParse(ctx, models.ReportURL, &reports)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// ReportsByDoctor lists reports authored by one doctor. Pass Me for the
// signed-in clinician.
func (ec *EyeCare) ReportsByDoctor(ctx context.Context, doctorID string) ([]models.Report, error) {
	var reports []models.Report
	err := ec.Client.GetAndParse(ctx, models.ReportByDoctorURL+doctorID, &reports)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// ReportsByPatient lists reports received by one patient. Pass Me for the
// signed-in patient.
func (ec *EyeCare) ReportsByPatient(ctx context.Context, patientID string) ([]models.Report, error) {
	var reports []models.Report
	err := ec.Client.GetAndParse(ctx, models.ReportByPatientURL+patientID, &reports)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (ec *EyeCare) Report(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := ec.Client.GetAndParse(ctx, models.ReportURL+id, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (ec *EyeCare) CreateReport(ctx context.Context, newReport models.NewReport) (*models.Report, error) {
	var report models.Report
	err := ec.postJSON(ctx, models.ReportCreateURL, newReport, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (ec *EyeCare) UpdateReport(ctx context.Context, id string, update models.ReportUpdate) (*models.Report, error) {
	var report models.Report
	err := ec.putJSON(ctx, models.ReportURL+id, update, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (ec *EyeCare) DeleteReport(ctx context.Context, id string) error {
	return ec.Client.Delete(ctx, models.ReportURL+id)
}

// UploadAndPredict sends one image to the classifier in a single multipart
// request and returns the stored image reference together with the verdict.
func (ec *EyeCare) UploadAndPredict(ctx context.Context, filename string, image io.Reader) (*models.PredictionResult, error) {
	var result models.PredictionResult
	err := ec.Client.PostMultipart(ctx, models.UploadPredictURL, "file", filename, image, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
