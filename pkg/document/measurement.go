package document

import "strings"

// IsMeasurement reports whether m is a measurement object: a mapping whose
// keys are exactly value and unit with a non-nil value.
func IsMeasurement(m map[string]any) bool {
	if len(m) != 2 {
		return false
	}
	v, hasValue := m["value"]
	_, hasUnit := m["unit"]
	return hasValue && hasUnit && v != nil
}

// Measurements flattens every measurement object in the tree into a map
// keyed by dotted path, e.g. "vitals.blood_pressure".
func Measurements(doc map[string]any) map[string]map[string]any {
	out := map[string]map[string]any{}
	collectMeasurements(doc, "", out)
	return out
}

func collectMeasurements(v any, prefix string, out map[string]map[string]any) {
	switch t := v.(type) {
	case map[string]any:
		if IsMeasurement(t) {
			out[strings.TrimSuffix(prefix, ".")] = t
			return
		}
		for k, val := range t {
			collectMeasurements(val, prefix+k+".", out)
		}
	case []any:
		for _, item := range t {
			collectMeasurements(item, prefix, out)
		}
	}
}
