// Package service is the composition root: it wires the extraction pipeline,
// the patient record store, the audio archive, and observability together
// behind one API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode"

	"medflow/internal/blob"
	"medflow/internal/genai"
	"medflow/internal/pipeline"
	"medflow/internal/prompts"
	"medflow/internal/store"
	"medflow/pkg/document"
)

// ErrNoAudioArchive is returned by recording operations when the service was
// built without an audio archive.
var ErrNoAudioArchive = errors.New("service: no audio archive configured")

// Service runs transcriptions through the pipeline and persists the results.
type Service struct {
	pipeline *pipeline.Pipeline
	store    store.RecordStore
	opts     options
}

// New constructs the service. The pipeline is built internally so stage
// outcomes flow into the configured metrics recorder.
func New(gw *genai.Gateway, reg *prompts.Registry, recordStore store.RecordStore, opts ...Option) (*Service, error) {
	o := buildOptions(opts)
	p, err := pipeline.New(gw, reg,
		pipeline.WithClock(o.clock.Now),
		pipeline.WithObserver(func(ctx context.Context, stage string, err error, elapsed time.Duration) {
			o.metrics.Observe(ctx, stage, err == nil, elapsed)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return &Service{pipeline: p, store: recordStore, opts: o}, nil
}

// ProcessTranscript runs the five-stage pipeline over the transcription and
// persists the resulting visit. audioKey, when non-empty, links the visit to
// an archived recording. Returns the composite record and the visit id.
func (s *Service) ProcessTranscript(ctx context.Context, transcription, audioKey string) (pipeline.Record, string, error) {
	ctx, span := s.opts.tracer.Start(ctx, "process_transcript")
	rec, err := s.pipeline.Run(ctx, transcription)
	if err != nil {
		s.opts.logger.Error("pipeline run failed: %v", err)
		span.End(err)
		return pipeline.Record{}, "", err
	}

	name := patientName(rec.PatientData)
	visit := store.Visit{
		PatientName:         name,
		PatientMRN:          DeriveMRN(name, s.opts.clock.Now()),
		Transcription:       rec.Transcription,
		PatientData:         rec.PatientData,
		SOAPNote:            rec.SOAPNote,
		ClinicalData:        rec.ClinicalData,
		LabRequisition:      rec.LabRequisition,
		PharmacyRequisition: rec.PharmacyRequisition,
		AudioFile:           audioKey,
	}
	visitID, err := s.store.SaveVisit(ctx, visit)
	if err != nil {
		s.opts.logger.Error("save visit failed: %v", err)
		span.End(err)
		return pipeline.Record{}, "", fmt.Errorf("save visit: %w", err)
	}
	s.opts.logger.Info("visit %s saved for %s", visitID, name)
	span.End(nil)
	return rec, visitID, nil
}

// ArchiveRecording stores an uploaded encounter recording and returns its
// archive info. The key embeds the capture time and container extension.
func (s *Service) ArchiveRecording(ctx context.Context, r io.Reader, ext, contentType string) (blob.Info, error) {
	if s.opts.audio == nil {
		return blob.Info{}, ErrNoAudioArchive
	}
	ctx, span := s.opts.tracer.Start(ctx, "archive_recording")
	key := blob.RecordingKey(s.opts.clock.Now(), ext)
	info, err := s.opts.audio.Put(ctx, key, r, blob.PutOptions{ContentType: contentType})
	span.End(err)
	if err != nil {
		return blob.Info{}, fmt.Errorf("archive recording: %w", err)
	}
	s.opts.logger.Info("recording archived as %s", key)
	return info, nil
}

// Recording opens an archived encounter recording.
func (s *Service) Recording(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	if s.opts.audio == nil {
		return blob.Info{}, nil, ErrNoAudioArchive
	}
	return s.opts.audio.Get(ctx, key)
}

// Visits returns a patient's visit history, newest first.
func (s *Service) Visits(ctx context.Context, patientName string) ([]store.VisitRecord, error) {
	return s.store.Visits(ctx, patientName)
}

// Patients lists every known patient summary, most recently seen first.
func (s *Service) Patients(ctx context.Context) ([]store.Summary, error) {
	return s.store.Patients(ctx)
}

// PatientSummary reports one patient's summary.
func (s *Service) PatientSummary(ctx context.Context, patientName string) (store.Summary, bool, error) {
	return s.store.PatientSummary(ctx, patientName)
}

// UpdateVisit merges fields into a stored visit record.
func (s *Service) UpdateVisit(ctx context.Context, patientName, visitID string, fields map[string]any) (bool, error) {
	return s.store.UpdateVisit(ctx, patientName, visitID, fields)
}

// DeriveMRN builds a medical record number from the patient's name and the
// visit time: the first three letters of the name uppercased, the year, and
// the month-day-hour-minute. Empty when the name has no letters.
func DeriveMRN(patientName string, now time.Time) string {
	letters := make([]rune, 0, 3)
	for _, r := range patientName {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
			if len(letters) == 3 {
				break
			}
		}
	}
	if len(letters) == 0 {
		return ""
	}
	return fmt.Sprintf("%s-%d-%s", string(letters), now.Year(), now.Format("01021504"))
}

func patientName(patientData map[string]any) string {
	return document.String(document.Map(patientData, "personal_info"), "full_name")
}
