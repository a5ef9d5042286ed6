package render

import (
	"strings"

	"medflow/internal/pipeline"
	"medflow/internal/prompts"
)

// NotDocumented stands in for SOAP sections the model did not produce.
const NotDocumented = "Not documented"

// SOAPNote fills the registry's soap_note_output template with the note's
// sections. Absent sections render as "Not documented". Parsing the rendered
// text recovers the sections that were present.
func SOAPNote(note pipeline.SOAPNote, template string) string {
	return prompts.Interpolate(template, map[string]string{
		"separator":  strings.Repeat("=", 50),
		"subjective": sectionOrDefault(note, pipeline.SectionSubjective),
		"objective":  sectionOrDefault(note, pipeline.SectionObjective),
		"assessment": sectionOrDefault(note, pipeline.SectionAssessment),
		"plan":       sectionOrDefault(note, pipeline.SectionPlan),
	})
}

func sectionOrDefault(note pipeline.SOAPNote, section string) string {
	if body, ok := note[section]; ok && strings.TrimSpace(body) != "" {
		return body
	}
	return NotDocumented
}
