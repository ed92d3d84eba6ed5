package article

import (
	"strings"
)

// RenderPrompt substitutes {{key}} placeholders in a prompt template with the
// given values. Placeholders without a matching key are left literal, and
// values containing placeholder syntax are not re-expanded.
func RenderPrompt(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}

	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}

	return strings.NewReplacer(pairs...).Replace(template)
}
