package pipeline

import (
	"context"
	"strings"

	"medflow/internal/genai"
	"medflow/internal/prompts"
	"medflow/pkg/document"
)

const minTranscriptForPatientData = 20

// PatientExtractor pulls demographics, identifiers, insurance, history
// summary, and social history out of the raw transcription.
type PatientExtractor struct {
	gw  *genai.Gateway
	cfg prompts.StageConfig
}

// NewPatientExtractor resolves the stage configuration up front;
// construction fails when the stage name is absent from the registry.
func NewPatientExtractor(gw *genai.Gateway, reg *prompts.Registry) (*PatientExtractor, error) {
	cfg, err := reg.Config("patient_data_extraction")
	if err != nil {
		return nil, err
	}
	return &PatientExtractor{gw: gw, cfg: cfg}, nil
}

// Extract runs the patient-data stage over the transcription.
func (e *PatientExtractor) Extract(ctx context.Context, transcription string) (map[string]any, error) {
	if len(strings.TrimSpace(transcription)) < minTranscriptForPatientData {
		return nil, StageError{Stage: StagePatientData, Err: InputTooShortError{Field: "transcription", Min: minTranscriptForPatientData}}
	}
	user := prompts.Interpolate(e.cfg.UserMessageTemplate, map[string]string{"transcription": transcription})
	res, err := e.gw.Generate(ctx, e.cfg, user)
	if err != nil {
		return nil, StageError{Stage: StagePatientData, Err: err}
	}
	return document.NormalizeMap(res.JSON), nil
}
