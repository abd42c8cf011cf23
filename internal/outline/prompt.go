package outline

import (
	"fmt"
	"strings"
)

// buildPrompt renders the outline request as a single user prompt. The layout
// guide grounds the model on indices the template actually has; the schema
// block keeps the response parseable by plan.Parse.
func buildPrompt(request Request) string {
	var sb strings.Builder

	sb.WriteString("You are a presentation planner. ")
	sb.WriteString("Produce the content plan for a slide deck as a JSON array and nothing else.\n\n")

	fmt.Fprintf(&sb, "Topic: %s\n", strings.TrimSpace(request.Topic))

	if request.SlideCount > 0 {
		fmt.Fprintf(&sb, "Number of slides: %d\n", request.SlideCount)
	}

	if instructions := strings.TrimSpace(request.Instructions); instructions != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n", instructions)
	}

	if guide := strings.TrimSpace(request.LayoutGuide); guide != "" {
		sb.WriteString("\nThe template offers these layouts; pick layout_index values from this list only:\n")
		sb.WriteString(guide)
		sb.WriteString("\n")
	}

	sb.WriteString("\nEach array element must have this shape:\n")
	sb.WriteString(`{"layout_index": <int>, "title": "<slide title>", ` +
		`"content": "<paragraph>" or ["<bullet>", ...], "notes": "<speaker notes>"}` + "\n")
	sb.WriteString("\nRules:\n")
	sb.WriteString("- Use a string content for narrative slides and a list of short bullets for enumerations.\n")
	sb.WriteString("- Keep bullets under 12 words.\n")
	sb.WriteString("- Write speaker notes as full sentences; they are read aloud.\n")
	sb.WriteString("- Respond with the JSON array only, no surrounding prose or markdown.\n")

	return sb.String()
}
