package pipeline

import (
	"fmt"
	"time"

	"medflow/pkg/document"
)

// Requisition field sourcing is a fixed lookup from patient-data sections
// into requisition sections. Missing source fields are omitted, never
// fabricated.

func requisitionID(prefix string, now time.Time, suffix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102-150405"), suffix)
}

func buildLabRequisition(now time.Time, suffix string, testDetails, patientData map[string]any) map[string]any {
	req := map[string]any{
		"requisition_type": "laboratory_test_request",
		"requisition_id":   requisitionID("LAB-REQ", now, suffix),
		"created_at":       now.Format(time.RFC3339),
		"status":           "pending",
		"test_details":     testDetails,
	}

	patient := patientInformation(patientData)
	if contact := document.Map(patientData, "contact_info"); contact != nil {
		patient["contact"] = map[string]any{
			"phone": contact["phone"],
			"email": contact["email"],
		}
	}
	req["patient_information"] = patient

	if mc := document.Map(patientData, "medical_context"); mc != nil {
		req["ordering_provider"] = map[string]any{
			"name":       physicianName(mc),
			"order_date": mc["visit_date"],
			"order_time": mc["visit_time"],
		}
		req["specimen_collection"] = map[string]any{
			"collection_date": mc["visit_date"],
			"collection_time": mc["visit_time"],
		}
	}

	billing := billingInformation(patientData)
	if history := document.Map(patientData, "medical_history_summary"); history != nil {
		if conditions := history["chronic_conditions"]; conditions != nil {
			billing["diagnosis_codes"] = map[string]any{"conditions": conditions}
		}
	}
	req["billing_information"] = billing

	return document.NormalizeMap(req)
}

func buildPharmacyRequisition(now time.Time, suffix string, prescriptionDetails, patientData map[string]any) map[string]any {
	req := map[string]any{
		"requisition_type":     "pharmacy_prescription_request",
		"requisition_id":       requisitionID("RX", now, suffix),
		"created_at":           now.Format(time.RFC3339),
		"status":               "pending",
		"valid_until":          now.AddDate(1, 0, 0).Format(time.RFC3339),
		"prescription_details": prescriptionDetails,
	}

	patient := patientInformation(patientData)
	if contact := document.Map(patientData, "contact_info"); contact != nil {
		patient["contact"] = map[string]any{
			"phone":   contact["phone"],
			"address": contact["address"],
		}
	}
	req["patient_information"] = patient

	if mc := document.Map(patientData, "medical_context"); mc != nil {
		req["prescriber_information"] = map[string]any{
			"name":              physicianName(mc),
			"prescription_date": mc["visit_date"],
		}
	}

	if insurance := document.Map(patientData, "insurance"); insurance != nil {
		req["billing_information"] = map[string]any{
			"insurance_provider": insurance["provider"],
			"policy_number":      insurance["policy_number"],
			"group_number":       insurance["group_number"],
			"cardholder_id":      insurance["insurance_id"],
		}
	}

	if history := document.Map(patientData, "medical_history_summary"); history != nil {
		req["patient_safety"] = map[string]any{
			"known_allergies":           history["known_allergies"],
			"current_medications":       history["current_medications"],
			"contraindications_checked": true,
		}
	}

	return document.NormalizeMap(req)
}

func patientInformation(patientData map[string]any) map[string]any {
	info := map[string]any{}
	if pi := document.Map(patientData, "personal_info"); pi != nil {
		info["full_name"] = pi["full_name"]
		info["first_name"] = pi["first_name"]
		info["last_name"] = pi["last_name"]
		info["date_of_birth"] = pi["date_of_birth"]
		info["age"] = pi["age"]
		info["gender"] = pi["gender"]
	}
	if identifiers := document.Map(patientData, "identifiers"); identifiers != nil {
		info["identifiers"] = identifiers
	}
	return info
}

func billingInformation(patientData map[string]any) map[string]any {
	insurance := document.Map(patientData, "insurance")
	if insurance == nil {
		return map[string]any{}
	}
	return map[string]any{
		"insurance_provider":      insurance["provider"],
		"policy_number":           insurance["policy_number"],
		"group_number":            insurance["group_number"],
		"subscriber_name":         insurance["subscriber_name"],
		"subscriber_relationship": insurance["subscriber_relationship"],
	}
}

// physicianName prefers the referring physician and falls back to primary
// care, matching the governing prompt schema's sourcing table.
func physicianName(medicalContext map[string]any) any {
	if name := document.String(medicalContext, "referring_physician"); name != "" {
		return name
	}
	return medicalContext["primary_care_physician"]
}
