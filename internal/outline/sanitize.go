package outline

import (
	"regexp"
	"strings"
)

// Models wrap JSON answers in markdown fences even when told not to. These
// run before parsing; plan.Parse handles any prose that survives.
var (
	reOpeningFence = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")
	reClosingFence = regexp.MustCompile("(?m)^```\\s*$")
)

// Sanitize strips markdown code fences and surrounding whitespace from a
// model response.
func Sanitize(text string) string {
	text = reOpeningFence.ReplaceAllString(text, "")
	text = reClosingFence.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}
