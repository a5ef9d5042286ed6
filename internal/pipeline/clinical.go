package pipeline

import (
	"context"
	"strings"

	"medflow/internal/genai"
	"medflow/internal/prompts"
	"medflow/pkg/document"
)

// ClinicalExtractor turns the SOAP note text into structured clinical data:
// vitals and findings as measurement objects, symptoms, and the
// assessment/plan breakdown. It reads the note, not the raw transcript.
type ClinicalExtractor struct {
	gw  *genai.Gateway
	cfg prompts.StageConfig
}

// NewClinicalExtractor resolves the data_extraction stage configuration.
func NewClinicalExtractor(gw *genai.Gateway, reg *prompts.Registry) (*ClinicalExtractor, error) {
	cfg, err := reg.Config("data_extraction")
	if err != nil {
		return nil, err
	}
	return &ClinicalExtractor{gw: gw, cfg: cfg}, nil
}

// Extract runs the clinical-data stage over a SOAP note.
func (e *ClinicalExtractor) Extract(ctx context.Context, note SOAPNote) (map[string]any, error) {
	text := note.Text()
	if len(strings.TrimSpace(text)) < minTranscriptForNote {
		return nil, StageError{Stage: StageClinicalData, Err: InputTooShortError{Field: "soap note", Min: minTranscriptForNote}}
	}
	user := prompts.Interpolate(e.cfg.UserMessageTemplate, map[string]string{"soap_note": text})
	res, err := e.gw.Generate(ctx, e.cfg, user)
	if err != nil {
		return nil, StageError{Stage: StageClinicalData, Err: err}
	}
	return document.NormalizeMap(res.JSON), nil
}
