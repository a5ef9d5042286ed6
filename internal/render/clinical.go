package render

import (
	"strings"

	"medflow/pkg/document"
)

// Document renders any extracted document as an indented outline. Measurement
// objects collapse to "value unit" leaves; nested mappings become upper-cased
// sub-headers. Keys print in sorted order.
func Document(data map[string]any) string {
	var out lines
	renderDocument(&out, data, 0)
	return out.String()
}

func renderDocument(out *lines, data map[string]any, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, key := range sortedKeys(data) {
		label := displayKey(key)
		switch v := data[key].(type) {
		case map[string]any:
			if document.IsMeasurement(v) {
				out.add("%s- %s: %s %s", indent, label, scalar(v["value"]), scalar(v["unit"]))
				continue
			}
			out.add("%s%s:", indent, strings.ToUpper(label))
			renderDocument(out, v, depth+1)
		case []any:
			if len(v) == 0 {
				continue
			}
			out.add("%s%s:", indent, strings.ToUpper(label))
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					out.add("%s  - %s", indent, inlineFields(m))
				} else {
					out.add("%s  - %s", indent, scalar(item))
				}
			}
		case nil:
			// normalized documents carry no nils; tolerate them anyway
		default:
			out.add("%s- %s: %s", indent, label, scalar(v))
		}
	}
}

// inlineFields renders a small mapping on one line, skipping empty values.
func inlineFields(m map[string]any) string {
	parts := make([]string, 0, len(m))
	for _, key := range sortedKeys(m) {
		v := m[key]
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		parts = append(parts, key+": "+scalar(v))
	}
	return strings.Join(parts, ", ")
}
