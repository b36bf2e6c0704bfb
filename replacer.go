package phishingrod

import (
	"regexp"
	"strings"

	"github.com/projectdiscovery/fasttemplate"
	errorutil "github.com/projectdiscovery/utils/errors"
)

const (
	// ParenthesisOpen marker - begin of a placeholder
	ParenthesisOpen = "{{"
	// ParenthesisClose marker - end of a placeholder
	ParenthesisClose = "}}"
	// Placeholder is the only variable templates may use
	Placeholder = "phrase"
)

var varRegex = regexp.MustCompile(`\{\{([a-zA-Z0-9]+)\}\}`)

// Render replaces {{phrase}} in template with phrase
func Render(template, phrase string) string {
	return fasttemplate.ExecuteStringStd(template, ParenthesisOpen, ParenthesisClose, map[string]interface{}{
		Placeholder: phrase,
	})
}

// returns names of all variables
func getAllVars(data string) []string {
	var values []string
	for _, v := range varRegex.FindAllStringSubmatch(data, -1) {
		if len(v) >= 2 {
			values = append(values, v[1])
		}
	}
	return values
}

// validateTemplates compiles every template and rejects unknown or missing variables
func validateTemplates(templates []string) error {
	for _, v := range templates {
		if _, err := fasttemplate.NewTemplate(v, ParenthesisOpen, ParenthesisClose); err != nil {
			return errorutil.NewWithErr(err).Msgf("invalid template %q", v)
		}
		vars := getAllVars(v)
		if len(vars) == 0 {
			return errorutil.NewWithTag("variants", "template %q does not use {{%v}}", v, Placeholder)
		}
		for _, name := range vars {
			if name != Placeholder {
				return errorutil.NewWithTag("variants", "template %q uses unknown variable {{%v}}", v, name)
			}
		}
		if strings.Count(v, ParenthesisOpen) != len(vars) {
			return errorutil.NewWithTag("variants", "template %q has malformed placeholders", v)
		}
	}
	return nil
}
