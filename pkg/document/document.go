// Package document operates on the nested JSON-shaped trees produced by the
// extraction stages: mappings, sequences, scalars, and measurement objects.
package document

// Normalize returns a copy of v with empty branches pruned, recursively.
// A mapping key never survives with a nil value, an empty mapping, or an
// empty sequence; sequences drop elements that are empty after pruning as
// well as blank scalars. Normalizing an already-normalized tree yields an
// identical tree.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			cleaned := Normalize(val)
			if isEmpty(cleaned) {
				continue
			}
			out[k] = cleaned
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			cleaned := Normalize(item)
			if isEmpty(cleaned) || isBlankScalar(cleaned) {
				continue
			}
			out = append(out, cleaned)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return v
	}
}

// NormalizeMap normalizes a mapping and always returns a non-nil map so
// callers holding a document root never see the root itself pruned away.
func NormalizeMap(m map[string]any) map[string]any {
	cleaned := Normalize(m)
	if cleaned == nil {
		return map[string]any{}
	}
	return cleaned.(map[string]any)
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// isBlankScalar reports whether a sequence element carries no content.
// Mapping values keep blank scalars; sequence elements do not.
func isBlankScalar(v any) bool {
	s, ok := v.(string)
	return ok && s == ""
}

// Clone deep-copies a document tree. Scalars are shared, containers are not.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Map returns the mapping stored under key, or nil when absent or of a
// different kind.
func Map(doc map[string]any, key string) map[string]any {
	if doc == nil {
		return nil
	}
	m, _ := doc[key].(map[string]any)
	return m
}

// String returns the string stored under key, or "" when absent.
func String(doc map[string]any, key string) string {
	if doc == nil {
		return ""
	}
	s, _ := doc[key].(string)
	return s
}

// Strings returns the sequence under key coerced to strings, skipping
// non-string elements.
func Strings(doc map[string]any, key string) []string {
	if doc == nil {
		return nil
	}
	seq, _ := doc[key].([]any)
	if len(seq) == 0 {
		return nil
	}
	out := make([]string, 0, len(seq))
	for _, item := range seq {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
