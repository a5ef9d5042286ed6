package pipeline

import (
	"context"
	"strings"

	"medflow/internal/genai"
	"medflow/internal/prompts"
	"medflow/pkg/document"
)

// PharmacyGenerator enumerates written, changed, and discontinued
// prescriptions from the note's assessment and plan and assembles the full
// requisition document.
type PharmacyGenerator struct {
	gw   *genai.Gateway
	cfg  prompts.StageConfig
	opts options
}

// NewPharmacyGenerator resolves the pharmacy_request_generation stage
// configuration.
func NewPharmacyGenerator(gw *genai.Gateway, reg *prompts.Registry, opts ...Option) (*PharmacyGenerator, error) {
	cfg, err := reg.Config("pharmacy_request_generation")
	if err != nil {
		return nil, err
	}
	return &PharmacyGenerator{gw: gw, cfg: cfg, opts: buildOptions(opts)}, nil
}

// Generate produces a pharmacy requisition, or the "none" result without
// any external call when the note has no plan.
func (g *PharmacyGenerator) Generate(ctx context.Context, note SOAPNote, patientData map[string]any) (map[string]any, error) {
	plan := note.Plan()
	if strings.TrimSpace(plan) == "" {
		return noneResult("No plan found in SOAP note"), nil
	}

	user := prompts.Interpolate(g.cfg.UserMessageTemplate, map[string]string{
		"context": requestContext(note[SectionAssessment], plan),
	})
	res, err := g.gw.Generate(ctx, g.cfg, user)
	if err != nil {
		return nil, StageError{Stage: StagePharmacyRx, Err: err}
	}
	if document.String(res.JSON, "request_type") == RequestTypeNone {
		return document.NormalizeMap(res.JSON), nil
	}
	return buildPharmacyRequisition(g.opts.clock(), g.opts.idSuffix(), res.JSON, patientData), nil
}

// MedicationList flattens a pharmacy requisition into one line per
// prescription: "generic strength - frequency".
func MedicationList(requisition map[string]any) []string {
	if document.String(requisition, "request_type") == RequestTypeNone {
		return nil
	}
	details := document.Map(requisition, "prescription_details")
	prescriptions, _ := details["prescriptions"].([]any)
	var out []string
	for _, item := range prescriptions {
		rx, ok := item.(map[string]any)
		if !ok {
			continue
		}
		med := document.Map(rx, "medication")
		directions := document.Map(rx, "directions")
		name := document.String(med, "generic_name")
		if name == "" {
			name = "Unknown"
		}
		line := strings.TrimSpace(name + " " + document.String(med, "strength"))
		line = strings.TrimSpace(line + " - " + document.String(directions, "frequency"))
		out = append(out, strings.TrimSuffix(line, " -"))
	}
	return out
}
