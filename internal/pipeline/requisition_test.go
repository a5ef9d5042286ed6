package pipeline

import (
	"strings"
	"testing"
	"time"

	"medflow/pkg/document"
)

var frozenNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func samplePatientData() map[string]any {
	return map[string]any{
		"personal_info": map[string]any{
			"full_name":     "Michael Robert Chen",
			"first_name":    "Michael",
			"last_name":     "Chen",
			"date_of_birth": "1965-06-22",
			"age":           59.0,
			"gender":        "male",
		},
		"identifiers": map[string]any{"patient_id": "PT-2024-9921"},
		"contact_info": map[string]any{
			"phone": "617-555-8901",
			"email": "michael.chen@email.com",
		},
		"insurance": map[string]any{
			"provider":      "Aetna",
			"policy_number": "ABC987654321",
			"group_number":  "GRP-7788",
			"insurance_id":  "AET-123",
		},
		"medical_context": map[string]any{
			"visit_date":             "2025-03-14",
			"primary_care_physician": "Dr. Patel",
		},
		"medical_history_summary": map[string]any{
			"known_allergies":     []any{"sulfa drugs", "latex"},
			"chronic_conditions":  []any{"hyperlipidemia", "hypothyroidism"},
			"current_medications": []any{"Atorvastatin 40mg", "Metoprolol 50mg"},
		},
	}
}

func TestBuildLabRequisitionShape(t *testing.T) {
	testDetails := map[string]any{
		"request_type": "laboratory_tests",
		"tests_requested": []any{
			map[string]any{"test_name": "Lipid Panel", "fasting_required": true},
		},
	}
	req := buildLabRequisition(frozenNow, "abc123", testDetails, samplePatientData())

	if req["requisition_id"] != "LAB-REQ-20250314-092653-abc123" {
		t.Fatalf("requisition_id = %v", req["requisition_id"])
	}
	if req["status"] != "pending" {
		t.Fatalf("status = %v", req["status"])
	}
	patient := document.Map(req, "patient_information")
	if document.String(patient, "full_name") != "Michael Robert Chen" {
		t.Fatalf("patient name not sourced: %#v", patient)
	}
	if document.Map(patient, "identifiers")["patient_id"] != "PT-2024-9921" {
		t.Fatalf("identifiers not sourced: %#v", patient)
	}
	provider := document.Map(req, "ordering_provider")
	if provider["name"] != "Dr. Patel" {
		t.Fatalf("ordering provider fallback failed: %#v", provider)
	}
	billing := document.Map(req, "billing_information")
	if billing["insurance_provider"] != "Aetna" {
		t.Fatalf("billing not sourced: %#v", billing)
	}
	conditions := document.Map(billing, "diagnosis_codes")
	if conditions == nil {
		t.Fatalf("diagnosis codes missing: %#v", billing)
	}
	if details := document.Map(req, "test_details"); details["request_type"] != "laboratory_tests" {
		t.Fatalf("test details not carried: %#v", details)
	}
}

func TestBuildLabRequisitionOmitsMissingSources(t *testing.T) {
	req := buildLabRequisition(frozenNow, "abc123", map[string]any{"request_type": "laboratory_tests", "tests_requested": []any{"x"}}, map[string]any{})
	if _, ok := req["patient_information"]; ok {
		t.Fatalf("empty patient information kept: %#v", req)
	}
	if _, ok := req["billing_information"]; ok {
		t.Fatalf("empty billing kept: %#v", req)
	}
	if _, ok := req["ordering_provider"]; ok {
		t.Fatalf("empty provider kept: %#v", req)
	}
}

func TestBuildPharmacyRequisitionShape(t *testing.T) {
	details := map[string]any{
		"request_type": "prescriptions",
		"prescriptions": []any{
			map[string]any{
				"medication": map[string]any{"generic_name": "nitroglycerin", "strength": "0.4mg"},
				"directions": map[string]any{"frequency": "as needed"},
			},
		},
	}
	req := buildPharmacyRequisition(frozenNow, "def456", details, samplePatientData())

	if req["requisition_id"] != "RX-20250314-092653-def456" {
		t.Fatalf("requisition_id = %v", req["requisition_id"])
	}
	if req["valid_until"] != frozenNow.AddDate(1, 0, 0).Format(time.RFC3339) {
		t.Fatalf("valid_until = %v", req["valid_until"])
	}
	prescriber := document.Map(req, "prescriber_information")
	if prescriber["name"] != "Dr. Patel" {
		t.Fatalf("prescriber not sourced: %#v", prescriber)
	}
	safety := document.Map(req, "patient_safety")
	if safety == nil || safety["contraindications_checked"] != true {
		t.Fatalf("patient safety block missing: %#v", req)
	}
	allergies, _ := safety["known_allergies"].([]any)
	if len(allergies) != 2 {
		t.Fatalf("allergies not carried: %#v", safety)
	}
	billing := document.Map(req, "billing_information")
	if billing["cardholder_id"] != "AET-123" {
		t.Fatalf("cardholder id not sourced: %#v", billing)
	}
}

func TestRequisitionIDsDifferWithSuffix(t *testing.T) {
	a := requisitionID("LAB-REQ", frozenNow, shortSuffix())
	b := requisitionID("LAB-REQ", frozenNow, shortSuffix())
	if a == b {
		t.Fatalf("same-second requisition ids collided: %s", a)
	}
	if !strings.HasPrefix(a, "LAB-REQ-20250314-092653-") {
		t.Fatalf("unexpected id shape: %s", a)
	}
}

func TestMedicationList(t *testing.T) {
	req := map[string]any{
		"prescription_details": map[string]any{
			"prescriptions": []any{
				map[string]any{
					"medication": map[string]any{"generic_name": "aspirin", "strength": "81mg"},
					"directions": map[string]any{"frequency": "daily"},
				},
				map[string]any{
					"medication": map[string]any{"strength": "10mg"},
				},
			},
		},
	}
	got := MedicationList(req)
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %#v", got)
	}
	if got[0] != "aspirin 81mg - daily" {
		t.Fatalf("line = %q", got[0])
	}
	if got[1] != "Unknown 10mg" {
		t.Fatalf("line = %q", got[1])
	}
	if MedicationList(map[string]any{"request_type": "none"}) != nil {
		t.Fatal("none result should yield no medications")
	}
}
