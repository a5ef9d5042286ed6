// Package store persists per-patient visit records and summaries behind one
// interface with filesystem, in-memory, SQLite, and Postgres drivers.
package store

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"medflow/pkg/document"
)

// Visit is one processed encounter ready to persist.
type Visit struct {
	PatientName         string
	PatientMRN          string
	Transcription       string
	PatientData         map[string]any
	SOAPNote            map[string]string
	ClinicalData        map[string]any
	LabRequisition      map[string]any
	PharmacyRequisition map[string]any
	AudioFile           string
}

// VisitRecord is a stored visit as a JSON-shaped document.
type VisitRecord = map[string]any

// Summary aggregates one patient's visit history. The MRN is fixed at the
// first visit; later visits never overwrite it.
type Summary struct {
	PatientName  string         `json:"patient_name"`
	MRN          string         `json:"mrn"`
	FirstVisit   string         `json:"first_visit"`
	LastVisit    string         `json:"last_visit"`
	VisitCount   int            `json:"visit_count"`
	Demographics map[string]any `json:"demographics,omitempty"`
}

// RecordStore is the persistence contract shared by every driver.
type RecordStore interface {
	// SaveVisit stores the visit under the patient's partition and updates
	// the patient summary. Returns the generated visit id.
	SaveVisit(ctx context.Context, visit Visit) (string, error)
	// Visits returns the patient's visit records newest first, empty when
	// the patient is unknown.
	Visits(ctx context.Context, patientName string) ([]VisitRecord, error)
	// Patients lists every summary, most recently visited first.
	Patients(ctx context.Context) ([]Summary, error)
	// PatientSummary reports one patient's summary and whether it exists.
	PatientSummary(ctx context.Context, patientName string) (Summary, bool, error)
	// UpdateVisit merges fields into an existing visit record. Reports
	// false when the visit does not exist.
	UpdateVisit(ctx context.Context, patientName, visitID string, fields map[string]any) (bool, error)
}

// UnknownPatient partitions visits whose patient name never surfaced.
const UnknownPatient = "Unknown"

type options struct {
	clock    func() time.Time
	idSuffix func() string
}

// Option configures a store driver.
type Option func(*options)

// WithClock overrides the time source for visit ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithIDSuffix overrides the random fragment that keeps same-second visit
// ids distinct.
func WithIDSuffix(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.idSuffix = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:    time.Now,
		idSuffix: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:6] },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SanitizePatientName maps a display name onto a safe partition name:
// letters, digits, spaces, hyphens, and underscores survive; everything else
// is dropped; leading and trailing spaces are trimmed; spaces become
// underscores. Sanitizing is idempotent.
func SanitizePatientName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
}

// partition picks the storage partition for a visit's patient name.
func partition(patientName string) string {
	if p := SanitizePatientName(patientName); p != "" {
		return p
	}
	return UnknownPatient
}

// visitID builds a timestamp-ordered visit id. The random suffix keeps two
// saves within the same second from colliding.
func visitID(now time.Time, suffix string) string {
	return "visit_" + now.Format("20060102_150405") + "_" + suffix
}

// newVisitRecord assembles the stored document for one visit.
func newVisitRecord(visit Visit, id string, now time.Time) VisitRecord {
	name := visit.PatientName
	if name == "" {
		name = UnknownPatient
	}
	rec := VisitRecord{
		"visit_id":             id,
		"timestamp":            now.Format(time.RFC3339),
		"patient_name":         name,
		"patient_mrn":          visit.PatientMRN,
		"transcription":        visit.Transcription,
		"patient_data":         document.Clone(visit.PatientData),
		"soap_note":            cloneSOAP(visit.SOAPNote),
		"clinical_data":        document.Clone(visit.ClinicalData),
		"lab_requisition":      document.Clone(visit.LabRequisition),
		"pharmacy_requisition": document.Clone(visit.PharmacyRequisition),
	}
	if visit.AudioFile != "" {
		rec["audio_file"] = visit.AudioFile
	}
	return rec
}

func cloneSOAP(note map[string]string) map[string]string {
	out := make(map[string]string, len(note))
	for k, v := range note {
		out[k] = v
	}
	return out
}

// updatedSummary folds one saved visit into the patient's summary.
func updatedSummary(prev Summary, found bool, visit Visit, timestamp string) Summary {
	if !found {
		name := visit.PatientName
		if name == "" {
			name = UnknownPatient
		}
		prev = Summary{PatientName: name, MRN: visit.PatientMRN, FirstVisit: timestamp}
	}
	prev.VisitCount++
	prev.LastVisit = timestamp
	if pi := document.Map(visit.PatientData, "personal_info"); pi != nil {
		prev.Demographics = document.Clone(pi).(map[string]any)
	}
	return prev
}

// sortSummariesDesc orders summaries by last visit descending; summaries
// without a last visit sort to the end.
func sortSummariesDesc(summaries []Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.LastVisit == "" || b.LastVisit == "" {
			return b.LastVisit == "" && a.LastVisit != ""
		}
		return a.LastVisit > b.LastVisit
	})
}
