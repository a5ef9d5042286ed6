package render

import (
	"strings"

	"medflow/internal/pipeline"
	"medflow/pkg/document"
)

// LabRequisition renders a lab requisition document for review. A "none"
// result renders as its message alone.
func LabRequisition(req map[string]any) string {
	if document.String(req, "request_type") == pipeline.RequestTypeNone {
		if msg := document.String(req, "message"); msg != "" {
			return msg
		}
		return "No lab tests requested"
	}

	out := lines{"LABORATORY TEST REQUISITION", strings.Repeat("=", 80), ""}
	out.add("Requisition ID: %s", document.String(req, "requisition_id"))
	out.add("Status: %s", strings.ToUpper(statusOrPending(req)))
	out.add("Created: %s", document.String(req, "created_at"))
	out.blank()

	renderRequisitionPatient(&out, document.Map(req, "patient_information"), true)

	if op := document.Map(req, "ordering_provider"); op != nil {
		out.add("ORDERING PROVIDER:")
		if name := document.String(op, "name"); name != "" {
			out.add("  Physician: %s", name)
		}
		if date := document.String(op, "order_date"); date != "" {
			out.add("  Order Date: %s", date)
		}
		out.blank()
	}

	if td := document.Map(req, "test_details"); td != nil {
		if meta := document.Map(td, "request_metadata"); meta != nil {
			out.add("REQUEST DETAILS:")
			if ind := document.String(meta, "clinical_indication"); ind != "" {
				out.add("  Clinical Indication: %s", ind)
			}
			if urgency := document.String(meta, "urgency"); urgency != "" {
				out.add("  Urgency: %s", strings.ToUpper(urgency))
			}
			if inst := document.Strings(meta, "special_instructions"); len(inst) > 0 {
				out.add("  Special Instructions:")
				for _, line := range inst {
					out.add("    - %s", line)
				}
			}
			out.blank()
		}

		if tests, _ := td["tests_requested"].([]any); len(tests) > 0 {
			out.add("TESTS REQUESTED:")
			for i, item := range tests {
				test, _ := item.(map[string]any)
				name := document.String(test, "test_name")
				if name == "" {
					name = "Unknown Test"
				}
				out.add("  %d. %s", i+1, name)
				if tt := document.String(test, "test_type"); tt != "" {
					out.add("     Type: %s", displayKey(tt))
				}
				if ind := document.String(test, "clinical_indication"); ind != "" {
					out.add("     Indication: %s", ind)
				}
				if spec := document.String(test, "specimen_type"); spec != "" {
					out.add("     Specimen: %s", displayKey(spec))
				}
				if fasting, _ := test["fasting_required"].(bool); fasting {
					out.add("     FASTING REQUIRED")
				}
				if pr := document.String(test, "priority"); pr != "" && pr != "routine" {
					out.add("     Priority: %s", strings.ToUpper(pr))
				}
				out.blank()
			}
		}

		if fu := document.Map(td, "follow_up"); fu != nil {
			out.add("FOLLOW-UP:")
			if v := document.String(fu, "review_date"); v != "" {
				out.add("  Review Results: %s", v)
			}
			if v := document.String(fu, "next_appointment"); v != "" {
				out.add("  Next Appointment: %s", v)
			}
			if cb, _ := fu["callback_required"].(bool); cb {
				out.add("  Callback Required: Yes")
			}
			out.blank()
		}
	}

	if bi := document.Map(req, "billing_information"); bi != nil {
		out.add("BILLING INFORMATION:")
		if v := document.String(bi, "insurance_provider"); v != "" {
			out.add("  Insurance: %s", v)
		}
		if v := document.String(bi, "policy_number"); v != "" {
			out.add("  Policy #: %s", v)
		}
		if v := document.String(bi, "group_number"); v != "" {
			out.add("  Group #: %s", v)
		}
		out.blank()
	}

	out.add("%s", strings.Repeat("=", 80))
	return out.String()
}

func statusOrPending(req map[string]any) string {
	if status := document.String(req, "status"); status != "" {
		return status
	}
	return "pending"
}

// renderRequisitionPatient prints the shared patient block of both
// requisition renderers. withGender matches the lab layout.
func renderRequisitionPatient(out *lines, pi map[string]any, withGender bool) {
	if pi == nil {
		return
	}
	out.add("PATIENT INFORMATION:")
	if name := document.String(pi, "full_name"); name != "" {
		out.add("  Name: %s", name)
	}
	if dob := document.String(pi, "date_of_birth"); dob != "" {
		if age, ok := pi["age"]; ok {
			out.add("  DOB: %s (Age: %s)", dob, scalar(age))
		} else {
			out.add("  DOB: %s", dob)
		}
	}
	if withGender {
		if gender := document.String(pi, "gender"); gender != "" {
			out.add("  Gender: %s", gender)
		}
	}
	if ids := document.Map(pi, "identifiers"); ids != nil {
		for _, key := range sortedKeys(ids) {
			out.add("  %s: %s", displayKey(key), scalar(ids[key]))
		}
	}
	out.blank()
}
