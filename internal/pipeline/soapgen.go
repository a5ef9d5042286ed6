package pipeline

import (
	"context"
	"strings"

	"medflow/internal/genai"
	"medflow/internal/prompts"
)

const minTranscriptForNote = 10

// SOAPGenerator produces the four-section note. This is the one stage whose
// response format is unstructured text, parsed by section headers.
type SOAPGenerator struct {
	gw  *genai.Gateway
	cfg prompts.StageConfig
}

// NewSOAPGenerator resolves the soap_note stage configuration.
func NewSOAPGenerator(gw *genai.Gateway, reg *prompts.Registry) (*SOAPGenerator, error) {
	cfg, err := reg.Config("soap_note")
	if err != nil {
		return nil, err
	}
	return &SOAPGenerator{gw: gw, cfg: cfg}, nil
}

// Generate runs the SOAP stage over the transcription.
func (g *SOAPGenerator) Generate(ctx context.Context, transcription string) (SOAPNote, error) {
	if len(strings.TrimSpace(transcription)) < minTranscriptForNote {
		return nil, StageError{Stage: StageSOAPNote, Err: InputTooShortError{Field: "transcription", Min: minTranscriptForNote}}
	}
	user := prompts.Interpolate(g.cfg.UserMessageTemplate, map[string]string{"transcription": transcription})
	res, err := g.gw.Generate(ctx, g.cfg, user)
	if err != nil {
		return nil, StageError{Stage: StageSOAPNote, Err: err}
	}
	return ParseSOAPNote(res.Text), nil
}
