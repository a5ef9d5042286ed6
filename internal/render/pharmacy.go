package render

import (
	"strings"

	"medflow/internal/pipeline"
	"medflow/pkg/document"
)

// PharmacyRequisition renders a pharmacy requisition document for review.
// A "none" result renders as its message alone.
func PharmacyRequisition(req map[string]any) string {
	if document.String(req, "request_type") == pipeline.RequestTypeNone {
		if msg := document.String(req, "message"); msg != "" {
			return msg
		}
		return "No prescriptions requested"
	}

	out := lines{"PHARMACY PRESCRIPTION REQUISITION", strings.Repeat("=", 80), ""}
	out.add("Requisition ID: %s", document.String(req, "requisition_id"))
	out.add("Status: %s", strings.ToUpper(statusOrPending(req)))
	out.add("Created: %s", document.String(req, "created_at"))
	out.add("Valid Until: %s", document.String(req, "valid_until"))
	out.blank()

	renderRequisitionPatient(&out, document.Map(req, "patient_information"), false)

	if pi := document.Map(req, "prescriber_information"); pi != nil {
		out.add("PRESCRIBER INFORMATION:")
		if name := document.String(pi, "name"); name != "" {
			out.add("  Physician: %s", name)
		}
		if date := document.String(pi, "prescription_date"); date != "" {
			out.add("  Date: %s", date)
		}
		out.blank()
	}

	if pd := document.Map(req, "prescription_details"); pd != nil {
		if meta := document.Map(pd, "request_metadata"); meta != nil {
			out.add("PRESCRIPTION SUMMARY:")
			if v := document.String(meta, "clinical_context"); v != "" {
				out.add("  Clinical Context: %s", v)
			}
			if v, ok := meta["total_prescriptions"]; ok {
				out.add("  Total Prescriptions: %s", scalar(v))
			}
			if v := document.String(meta, "urgency"); v != "" {
				out.add("  Urgency: %s", strings.ToUpper(v))
			}
			out.blank()
		}

		if prescriptions, _ := pd["prescriptions"].([]any); len(prescriptions) > 0 {
			out.add("PRESCRIPTIONS:")
			out.add("%s", strings.Repeat("=", 80))
			for _, item := range prescriptions {
				rx, _ := item.(map[string]any)
				renderPrescription(&out, rx)
			}
		}

		if disc, _ := pd["discontinued_medications"].([]any); len(disc) > 0 {
			out.blank()
			out.add("DISCONTINUED MEDICATIONS:")
			for _, item := range disc {
				d, _ := item.(map[string]any)
				out.add("  - %s (%s)", document.String(d, "medication_name"), document.String(d, "reason"))
			}
			out.blank()
		}

		if inst := document.Strings(pd, "patient_instructions"); len(inst) > 0 {
			out.blank()
			out.add("PATIENT INSTRUCTIONS:")
			for _, line := range inst {
				out.add("  - %s", line)
			}
			out.blank()
		}
	}

	if ps := document.Map(req, "patient_safety"); ps != nil {
		if allergies := document.Strings(ps, "known_allergies"); len(allergies) > 0 {
			out.add("PATIENT ALLERGIES:")
			for _, a := range allergies {
				out.add("  ! %s", a)
			}
			out.blank()
		}
	}

	out.add("%s", strings.Repeat("=", 80))
	return out.String()
}

func renderPrescription(out *lines, rx map[string]any) {
	out.blank()
	num := "?"
	if v, ok := rx["prescription_number"]; ok {
		num = scalar(v)
	}
	out.add("Rx #%s", num)
	out.add("%s", strings.Repeat("-", 80))

	if med := document.Map(rx, "medication"); med != nil {
		name := document.String(med, "generic_name")
		if name == "" {
			name = "Unknown"
		}
		if brand := document.String(med, "brand_name"); brand != "" {
			name += " (" + brand + ")"
		}
		out.add("Medication: %s", name)
		if v := document.String(med, "strength"); v != "" {
			out.add("Strength: %s", v)
		}
		if v := document.String(med, "dosage_form"); v != "" {
			out.add("Form: %s", displayKey(v))
		}
	}

	if dir := document.Map(rx, "directions"); dir != nil {
		out.blank()
		out.add("Directions:")
		sig := make([]string, 0, 4)
		if v := document.String(dir, "dose"); v != "" {
			sig = append(sig, v)
		}
		if v := document.String(dir, "route"); v != "" {
			sig = append(sig, "by "+v)
		}
		if v := document.String(dir, "frequency"); v != "" {
			sig = append(sig, v)
		}
		if v := document.String(dir, "timing"); v != "" {
			sig = append(sig, v)
		}
		out.add("  SIG: %s", strings.Join(sig, " "))
		if inst := document.Strings(dir, "special_instructions"); len(inst) > 0 {
			out.add("  Special Instructions:")
			for _, line := range inst {
				out.add("    - %s", line)
			}
		}
	}

	if sup := document.Map(rx, "supply"); sup != nil {
		out.blank()
		out.add("Supply:")
		if v, ok := sup["quantity"]; ok {
			unit := document.String(sup, "unit")
			out.add("  Quantity: %s", strings.TrimSpace(scalar(v)+" "+unit))
		}
		if v, ok := sup["days_supply"]; ok {
			out.add("  Days Supply: %s", scalar(v))
		}
		if v, ok := sup["refills"]; ok {
			out.add("  Refills: %s", scalar(v))
		}
	}

	if ci := document.Map(rx, "clinical_info"); ci != nil {
		if v := document.String(ci, "indication"); v != "" {
			out.blank()
			out.add("Indication: %s", v)
		}
		if isNew, _ := ci["is_new_prescription"].(bool); isNew {
			out.add("Status: NEW PRESCRIPTION")
		}
		if changed, _ := ci["is_dose_change"].(bool); changed {
			if prev := document.String(ci, "previous_dose"); prev != "" {
				out.add("Status: DOSE CHANGE (from %s)", prev)
			}
		}
		if controlled, _ := ci["controlled_substance"].(bool); controlled {
			schedule := document.String(ci, "dea_schedule")
			if schedule == "" {
				schedule = "Unknown"
			}
			out.add("CONTROLLED SUBSTANCE - Schedule %s", schedule)
		}
	}

	if safety := document.Map(rx, "safety"); safety != nil {
		if warnings := document.Strings(safety, "warnings"); len(warnings) > 0 {
			out.blank()
			out.add("WARNINGS:")
			for _, w := range warnings {
				out.add("  ! %s", w)
			}
		}
	}

	out.blank()
}
