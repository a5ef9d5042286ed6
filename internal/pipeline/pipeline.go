// Package pipeline chains the five extraction stages that turn a clinical
// encounter transcription into structured medical documents.
package pipeline

import (
	"context"
	"time"

	"medflow/internal/genai"
	"medflow/internal/prompts"
)

// Record aggregates the five stage outputs for one pipeline run.
type Record struct {
	Transcription       string         `json:"transcription"`
	PatientData         map[string]any `json:"patient_data"`
	SOAPNote            SOAPNote       `json:"soap_note"`
	ClinicalData        map[string]any `json:"clinical_data"`
	LabRequisition      map[string]any `json:"lab_requisition"`
	PharmacyRequisition map[string]any `json:"pharmacy_requisition"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// Pipeline sequences the five stages. Stages are pure functions over
// immutable input documents; outputs are threaded explicitly, never shared.
type Pipeline struct {
	patient  *PatientExtractor
	soap     *SOAPGenerator
	clinical *ClinicalExtractor
	lab      *LabGenerator
	pharmacy *PharmacyGenerator
	opts     options
}

// New constructs all five stages up front. Construction fails when any
// stage name does not resolve to a configuration record.
func New(gw *genai.Gateway, reg *prompts.Registry, opts ...Option) (*Pipeline, error) {
	patient, err := NewPatientExtractor(gw, reg)
	if err != nil {
		return nil, err
	}
	soap, err := NewSOAPGenerator(gw, reg)
	if err != nil {
		return nil, err
	}
	clinical, err := NewClinicalExtractor(gw, reg)
	if err != nil {
		return nil, err
	}
	lab, err := NewLabGenerator(gw, reg, opts...)
	if err != nil {
		return nil, err
	}
	pharmacy, err := NewPharmacyGenerator(gw, reg, opts...)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		patient:  patient,
		soap:     soap,
		clinical: clinical,
		lab:      lab,
		pharmacy: pharmacy,
		opts:     buildOptions(opts),
	}, nil
}

// Run executes the five stages sequentially. The first failure aborts the
// run; later stages never execute and no partial record is returned.
func (p *Pipeline) Run(ctx context.Context, transcription string) (Record, error) {
	rec := Record{Transcription: transcription, GeneratedAt: p.opts.clock()}

	patientData, err := p.observe(ctx, StagePatientData, func() (map[string]any, error) {
		return p.patient.Extract(ctx, transcription)
	})
	if err != nil {
		return Record{}, err
	}
	rec.PatientData = patientData

	var note SOAPNote
	_, err = p.observe(ctx, StageSOAPNote, func() (map[string]any, error) {
		var soapErr error
		note, soapErr = p.soap.Generate(ctx, transcription)
		return nil, soapErr
	})
	if err != nil {
		return Record{}, err
	}
	rec.SOAPNote = note

	clinical, err := p.observe(ctx, StageClinicalData, func() (map[string]any, error) {
		return p.clinical.Extract(ctx, note)
	})
	if err != nil {
		return Record{}, err
	}
	rec.ClinicalData = clinical

	lab, err := p.observe(ctx, StageLabRequest, func() (map[string]any, error) {
		return p.lab.Generate(ctx, note, patientData)
	})
	if err != nil {
		return Record{}, err
	}
	rec.LabRequisition = lab

	pharmacy, err := p.observe(ctx, StagePharmacyRx, func() (map[string]any, error) {
		return p.pharmacy.Generate(ctx, note, patientData)
	})
	if err != nil {
		return Record{}, err
	}
	rec.PharmacyRequisition = pharmacy

	return rec, nil
}

func (p *Pipeline) observe(ctx context.Context, stage string, fn func() (map[string]any, error)) (map[string]any, error) {
	start := p.opts.clock()
	out, err := fn()
	if p.opts.observer != nil {
		p.opts.observer(ctx, stage, err, p.opts.clock().Sub(start))
	}
	return out, err
}
