package render

import (
	"strings"

	"medflow/pkg/document"
)

// PatientData renders the patient-data document as the banner-framed summary
// shown after extraction. Absent sections and fields are skipped outright.
func PatientData(data map[string]any) string {
	out := lines{"PATIENT INFORMATION", strings.Repeat("=", 70), ""}

	if info := document.Map(data, "personal_info"); info != nil {
		out.add("PERSONAL INFORMATION:")
		if name := document.String(info, "full_name"); name != "" {
			out.add("  Name: %s", name)
		}
		if dob := document.String(info, "date_of_birth"); dob != "" {
			out.add("  Date of Birth: %s", dob)
		}
		if age, ok := info["age"]; ok {
			out.add("  Age: %s years", scalar(age))
		}
		if gender := document.String(info, "gender"); gender != "" {
			out.add("  Gender: %s", gender)
		}
		out.blank()
	}

	if contact := document.Map(data, "contact_info"); contact != nil {
		out.add("CONTACT INFORMATION:")
		if phone := document.String(contact, "phone"); phone != "" {
			out.add("  Phone: %s", phone)
		}
		if email := document.String(contact, "email"); email != "" {
			out.add("  Email: %s", email)
		}
		if addr := document.Map(contact, "address"); addr != nil {
			parts := make([]string, 0, 4)
			for _, key := range []string{"street", "city", "state", "zip_code"} {
				if v := document.String(addr, key); v != "" {
					parts = append(parts, v)
				}
			}
			if len(parts) > 0 {
				out.add("  Address: %s", strings.Join(parts, ", "))
			}
		}
		out.blank()
	}

	keyValueSection(&out, "IDENTIFIERS:", document.Map(data, "identifiers"))
	keyValueSection(&out, "INSURANCE INFORMATION:", document.Map(data, "insurance"))

	if ec := document.Map(data, "emergency_contact"); ec != nil {
		out.add("EMERGENCY CONTACT:")
		if name := document.String(ec, "name"); name != "" {
			out.add("  Name: %s", name)
		}
		if rel := document.String(ec, "relationship"); rel != "" {
			out.add("  Relationship: %s", rel)
		}
		if phone := document.String(ec, "phone"); phone != "" {
			out.add("  Phone: %s", phone)
		}
		out.blank()
	}

	keyValueSection(&out, "VISIT INFORMATION:", document.Map(data, "medical_context"))

	if history := document.Map(data, "medical_history_summary"); history != nil {
		out.add("MEDICAL HISTORY SUMMARY:")
		if v, ok := history["known_allergies"]; ok {
			out.add("  Allergies: %s", joinList(v))
		}
		if v, ok := history["chronic_conditions"]; ok {
			out.add("  Chronic Conditions: %s", joinList(v))
		}
		if v, ok := history["current_medications"]; ok {
			out.add("  Current Medications: %s", joinList(v))
		}
		out.blank()
	}

	keyValueSection(&out, "SOCIAL HISTORY:", document.Map(data, "social_history"))

	out.add("%s", strings.Repeat("=", 70))
	return out.String()
}

// keyValueSection renders every field of a flat mapping in sorted order so
// output is deterministic across runs.
func keyValueSection(out *lines, header string, section map[string]any) {
	if section == nil {
		return
	}
	out.add("%s", header)
	for _, key := range sortedKeys(section) {
		out.add("  %s: %s", displayKey(key), scalar(section[key]))
	}
	out.blank()
}
