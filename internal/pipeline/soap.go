package pipeline

import "strings"

// SOAPNote holds the four recognized note sections. Sections whose header
// never appears in the source text are absent from the map, not defaulted.
type SOAPNote map[string]string

// The four recognized section keys.
const (
	SectionSubjective = "subjective"
	SectionObjective  = "objective"
	SectionAssessment = "assessment"
	SectionPlan       = "plan"
)

var soapSections = map[string]bool{
	"SUBJECTIVE": true,
	"OBJECTIVE":  true,
	"ASSESSMENT": true,
	"PLAN":       true,
}

// ParseSOAPNote splits header-delimited free text into sections. A line
// opens a section when, after trimming, it is exactly a recognized header
// followed by a colon (case-insensitive). Body lines accumulate until the
// next header; text before the first header is discarded.
func ParseSOAPNote(text string) SOAPNote {
	sections := SOAPNote{}
	var current string
	var content []string

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(content, "\n"))
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if header, ok := sectionHeader(line); ok {
			flush()
			current = header
			content = nil
			continue
		}
		if current != "" {
			content = append(content, line)
		}
	}
	flush()
	return sections
}

func sectionHeader(line string) (string, bool) {
	if !strings.HasSuffix(line, ":") {
		return "", false
	}
	name := strings.ToUpper(line[:len(line)-1])
	if !soapSections[name] {
		return "", false
	}
	return strings.ToLower(name), true
}

// Plan returns the plan section, empty when absent.
func (n SOAPNote) Plan() string { return n[SectionPlan] }

// Text serializes the note back into the four labeled sections. Used to
// feed the clinical-data stage, which extracts from the note, not the raw
// transcript.
func (n SOAPNote) Text() string {
	var b strings.Builder
	for _, key := range []string{SectionSubjective, SectionObjective, SectionAssessment, SectionPlan} {
		b.WriteString(strings.ToUpper(key))
		b.WriteString(":\n")
		b.WriteString(n[key])
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
