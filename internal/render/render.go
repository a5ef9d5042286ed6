// Package render produces the plain-text projections of pipeline documents
// that clinicians review: patient summaries, SOAP notes, and requisitions.
// Rendering is lossy and display-only; the stored documents stay canonical.
package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

type lines []string

func (l *lines) add(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

func (l *lines) blank() { *l = append(*l, "") }

func (l lines) String() string { return strings.Join(l, "\n") }

// displayKey turns a snake_case field name into a title-cased label.
func displayKey(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// sortedKeys gives deterministic iteration order over document maps.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scalar renders a leaf value. Integral floats drop the decimal point so
// JSON-decoded numbers read naturally.
func scalar(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// joinList renders a sequence of scalars as a comma-separated run.
func joinList(v any) string {
	seq, _ := v.([]any)
	parts := make([]string, 0, len(seq))
	for _, item := range seq {
		parts = append(parts, scalar(item))
	}
	return strings.Join(parts, ", ")
}
