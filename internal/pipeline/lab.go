package pipeline

import (
	"context"
	"strings"

	"medflow/internal/genai"
	"medflow/internal/prompts"
	"medflow/pkg/document"
)

// RequestTypeNone marks a requisition stage that had nothing to request.
const RequestTypeNone = "none"

// LabGenerator enumerates ordered laboratory tests from the note's
// assessment and plan and assembles the full requisition document.
type LabGenerator struct {
	gw   *genai.Gateway
	cfg  prompts.StageConfig
	opts options
}

// NewLabGenerator resolves the lab_request_generation stage configuration.
func NewLabGenerator(gw *genai.Gateway, reg *prompts.Registry, opts ...Option) (*LabGenerator, error) {
	cfg, err := reg.Config("lab_request_generation")
	if err != nil {
		return nil, err
	}
	return &LabGenerator{gw: gw, cfg: cfg, opts: buildOptions(opts)}, nil
}

// Generate produces a lab requisition, or the "none" result without any
// external call when the note has no plan.
func (g *LabGenerator) Generate(ctx context.Context, note SOAPNote, patientData map[string]any) (map[string]any, error) {
	plan := note.Plan()
	if strings.TrimSpace(plan) == "" {
		return noneResult("No plan found in SOAP note"), nil
	}

	user := prompts.Interpolate(g.cfg.UserMessageTemplate, map[string]string{
		"context": requestContext(note[SectionAssessment], plan),
	})
	res, err := g.gw.Generate(ctx, g.cfg, user)
	if err != nil {
		return nil, StageError{Stage: StageLabRequest, Err: err}
	}
	if document.String(res.JSON, "request_type") == RequestTypeNone {
		return document.NormalizeMap(res.JSON), nil
	}
	return buildLabRequisition(g.opts.clock(), g.opts.idSuffix(), res.JSON, patientData), nil
}

func noneResult(message string) map[string]any {
	return map[string]any{
		"request_type": RequestTypeNone,
		"message":      message,
	}
}

// requestContext assembles the ASSESSMENT/PLAN block both requisition
// stages feed to the model.
func requestContext(assessment, plan string) string {
	return "\nASSESSMENT:\n" + assessment + "\n\nPLAN:\n" + plan + "\n"
}
