package pipeline

import "fmt"

// Stage names, used for error attribution and observability labels.
const (
	StagePatientData  = "patient_data"
	StageSOAPNote     = "soap_note"
	StageClinicalData = "clinical_data"
	StageLabRequest   = "lab_requisition"
	StagePharmacyRx   = "pharmacy_requisition"
)

// InputTooShortError rejects trivial input before any external call.
type InputTooShortError struct {
	Field string
	Min   int
}

func (e InputTooShortError) Error() string {
	return fmt.Sprintf("%s too short: minimum %d characters", e.Field, e.Min)
}

// StageError attributes a failure to one of the five stages so the pipeline
// caller can identify exactly which stage failed and why.
type StageError struct {
	Stage string
	Err   error
}

func (e StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e StageError) Unwrap() error { return e.Err }
