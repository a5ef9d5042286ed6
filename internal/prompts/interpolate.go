package prompts

import "strings"

// Interpolate substitutes {name} placeholders in a template. Unknown
// placeholders are left in place so a template typo is visible in output
// rather than silently dropped.
func Interpolate(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
