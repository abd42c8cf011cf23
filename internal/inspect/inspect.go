// Package inspect reduces an opened template to a serializable description of
// its layouts and placeholders. The description is what operators read to
// write content plans by hand, and what the outline generator is shown so the
// model picks layout indices that actually exist.
package inspect

import (
	"fmt"
	"strings"

	"github.com/book-expert/deck-builder-service/internal/pptx"
)

// LayoutDescription describes one layout of a template.
type LayoutDescription struct {
	Index        int                      `json:"index"`
	Name         string                   `json:"name"`
	Placeholders []PlaceholderDescription `json:"placeholders"`
}

// PlaceholderDescription describes one placeholder on a layout.
type PlaceholderDescription struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
}

// Inspect returns the template's layouts in native order. Inspection is
// read-only; calling it any number of times yields the same result.
func Inspect(template *pptx.Template) []LayoutDescription {
	layouts := template.Layouts()
	descriptions := make([]LayoutDescription, 0, len(layouts))

	for _, layout := range layouts {
		description := LayoutDescription{
			Index:        layout.Index,
			Name:         layout.Name,
			Placeholders: make([]PlaceholderDescription, 0, len(layout.Placeholders)),
		}

		for _, placeholder := range layout.Placeholders {
			name := placeholder.Name
			if name == "" {
				name = fmt.Sprintf("Placeholder %d", placeholder.Index)
			}

			description.Placeholders = append(description.Placeholders, PlaceholderDescription{
				Index: placeholder.Index,
				Kind:  placeholder.Kind,
				Name:  name,
			})
		}

		descriptions = append(descriptions, description)
	}

	return descriptions
}

// Describe renders the layout catalog as compact text, one layout per line,
// suitable for embedding in a model prompt or printing to a terminal.
func Describe(descriptions []LayoutDescription) string {
	var sb strings.Builder

	for _, layout := range descriptions {
		fmt.Fprintf(&sb, "layout %d: %s", layout.Index, layout.Name)

		if len(layout.Placeholders) == 0 {
			sb.WriteString(" (no placeholders)\n")

			continue
		}

		parts := make([]string, 0, len(layout.Placeholders))
		for _, placeholder := range layout.Placeholders {
			parts = append(parts, fmt.Sprintf("%s %q", placeholder.Kind, placeholder.Name))
		}

		fmt.Fprintf(&sb, " [%s]\n", strings.Join(parts, ", "))
	}

	return sb.String()
}
