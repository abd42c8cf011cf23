package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptCarriesRequestFields(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt(Request{
		Topic:        "Container networking",
		SlideCount:   6,
		Instructions: "Keep it introductory",
		LayoutGuide:  "layout 0: Title Slide\nlayout 1: Title and Content",
	})

	assert.Contains(t, prompt, "Topic: Container networking")
	assert.Contains(t, prompt, "Number of slides: 6")
	assert.Contains(t, prompt, "Keep it introductory")
	assert.Contains(t, prompt, "layout 1: Title and Content")
	assert.Contains(t, prompt, `"layout_index"`)
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt(Request{Topic: "Bare"})

	assert.NotContains(t, prompt, "Number of slides")
	assert.NotContains(t, prompt, "Additional instructions")
	assert.NotContains(t, prompt, "these layouts")
}
