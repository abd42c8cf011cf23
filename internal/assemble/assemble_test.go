package assemble_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/deck-builder-service/internal/assemble"
	"github.com/book-expert/deck-builder-service/internal/plan"
	"github.com/book-expert/deck-builder-service/internal/pptx"
	"github.com/book-expert/deck-builder-service/internal/pptx/pptxtest"
)

func loadTemplate(t *testing.T, options ...pptxtest.Option) *pptx.Template {
	t.Helper()

	template, err := pptx.Load(pptxtest.TemplateBytes(t, options...))
	require.NoError(t, err)

	return template
}

func TestAssembleEmptyPlan(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t)
	report := assemble.New(assemble.Standard).Assemble(template, &plan.Plan{})

	assert.Equal(t, 0, report.SlideCount)
	assert.Empty(t, template.Slides())
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.Warnings)
}

func TestAssembleAddsCoverPlusOneSlidePerEntry(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t)
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 1, Title: "First", Content: plan.NewText("intro")},
		{LayoutIndex: 1, Title: "Second", Content: plan.NewList("a", "b")},
		{LayoutIndex: 2, Title: "Third", Content: plan.NewText("outro")},
	}}

	report := assemble.New(assemble.Standard).Assemble(template, content)

	assert.Equal(t, 4, report.SlideCount)
	require.Len(t, template.Slides(), 4)
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.Warnings)

	cover := template.Slides()[0]
	assert.Equal(t, 2, cover.Layout().Index)
	assert.Equal(t, "First", cover.TextShapes()[0].Text())
}

func TestAssembleBulletListBinding(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t)
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 1, Title: "Bullets", Content: plan.NewList("one", "two", "three", "four", "five")},
	}}

	report := assemble.New(assemble.Standard).Assemble(template, content)
	require.Empty(t, report.Skipped)

	slide := template.Slides()[1]
	shapes := slide.TextShapes()
	require.Len(t, shapes, 2)
	assert.Equal(t, "Bullets", shapes[0].Text())

	paragraphs := shapes[1].Paragraphs()
	require.Len(t, paragraphs, 5)

	expected := []string{"one", "two", "three", "four", "five"}
	for i, paragraph := range paragraphs {
		assert.Equal(t, expected[i], paragraph.Text)
		assert.Equal(t, 0, paragraph.Level)
		assert.Equal(t, 18, paragraph.SizePoints)
	}
}

func TestAssembleSingleStringBoundVerbatim(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t)
	text := "A single paragraph.\nWith an embedded newline."
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 1, Title: "Prose", Content: plan.NewText(text)},
	}}

	assemble.New(assemble.Standard).Assemble(template, content)

	body := template.Slides()[1].TextShapes()[1]
	assert.Equal(t, text, body.Text())

	for _, paragraph := range body.Paragraphs() {
		assert.Equal(t, 0, paragraph.SizePoints, "verbatim text inherits layout sizing")
	}
}

func TestAssembleOutOfRangeLayoutFallsBack(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t)
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 99, Title: "Lost", Content: plan.NewText("still here")},
	}}

	report := assemble.New(assemble.Standard).Assemble(template, content)

	assert.Equal(t, 2, report.SlideCount)
	assert.Empty(t, report.Skipped)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, 0, report.Warnings[0].EntryIndex)
	assert.Equal(t, "Lost", report.Warnings[0].Title)
	assert.Contains(t, report.Warnings[0].Message, "out of range")

	contentSlide := template.Slides()[1]
	assert.Equal(t, 1, contentSlide.Layout().Index)
	assert.Equal(t, "Lost", contentSlide.TextShapes()[0].Text())
}

func TestAssembleNegativeLayoutFallsBack(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t)
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: -3, Title: "Below", Content: plan.NewText("x")},
	}}

	report := assemble.New(assemble.Standard).Assemble(template, content)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, 1, template.Slides()[1].Layout().Index)
}

func TestAssembleZeroValueDefaultsAreLiteral(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t)
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 42, Title: "Clamped", Content: plan.NewList("a", "b")},
	}}

	report := assemble.New(assemble.Defaults{
		FallbackLayoutIndex: 0,
		CoverLayoutIndex:    0,
		BodyFontSizePoints:  0,
	}).Assemble(template, content)

	// Index 0 is a real layout choice, not a request for the stock values.
	require.Len(t, template.Slides(), 2)
	assert.Equal(t, 0, template.Slides()[0].Layout().Index)
	assert.Equal(t, 0, template.Slides()[1].Layout().Index)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0].Message, "using layout 0")

	for _, paragraph := range template.Slides()[1].TextShapes()[1].Paragraphs() {
		assert.Equal(t, 0, paragraph.SizePoints, "zero point size inherits layout sizing")
	}
}

func TestAssembleLayoutWithoutTextShapes(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t, pptxtest.WithLayouts(
		pptxtest.LayoutSpec{Name: "Title Slide", Placeholders: []pptxtest.PlaceholderSpec{
			{Type: "ctrTitle", Name: "Title 1"},
		}},
		pptxtest.LayoutSpec{Name: "Blank"},
		pptxtest.LayoutSpec{Name: "Section Header", Placeholders: []pptxtest.PlaceholderSpec{
			{Type: "title", Name: "Title 1"},
		}},
	))
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 1, Title: "Invisible", Content: plan.NewText("dropped")},
	}}

	report := assemble.New(assemble.Standard).Assemble(template, content)

	// The slide is still created; only the binding is reported.
	assert.Equal(t, 2, report.SlideCount)
	assert.Empty(t, report.Skipped)
	require.NotEmpty(t, report.Warnings)

	found := false

	for _, warning := range report.Warnings {
		if warning.EntryIndex == 0 {
			assert.Contains(t, warning.Message, "no text shapes")

			found = true
		}
	}

	assert.True(t, found, "expected a binding warning for entry 0")
}

func TestAssembleTitleOnlyLayoutDropsContent(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t, pptxtest.WithLayouts(
		pptxtest.LayoutSpec{Name: "Title Only", Placeholders: []pptxtest.PlaceholderSpec{
			{Type: "title", Name: "Title 1"},
		}},
	))
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 0, Title: "Kept", Content: plan.NewList("gone")},
	}}

	report := assemble.New(assemble.Standard).Assemble(template, content)

	// Cover resolution falls back to the only layout; the entry binds its
	// title and reports the dropped content.
	assert.Equal(t, 2, report.SlideCount)
	assert.Equal(t, "Kept", template.Slides()[1].TextShapes()[0].Text())

	found := false

	for _, warning := range report.Warnings {
		if warning.EntryIndex == 0 {
			assert.Contains(t, warning.Message, "content dropped")

			found = true
		}
	}

	assert.True(t, found)
}

func TestAssembleTemplateWithoutLayoutsSkipsEntries(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t, pptxtest.WithLayouts())
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 0, Title: "Nowhere", Content: plan.NewText("x")},
		{LayoutIndex: 1, Title: "Also nowhere", Content: plan.NewText("y")},
	}}

	report := assemble.New(assemble.Standard).Assemble(template, content)

	assert.Equal(t, 0, report.SlideCount)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, 0, report.Skipped[0].EntryIndex)
	assert.Equal(t, "Nowhere", report.Skipped[0].Title)
	assert.Equal(t, 1, report.Skipped[1].EntryIndex)
	assert.Equal(t, "Also nowhere", report.Skipped[1].Title)
}

func TestAssembleNotesWithoutNotesMaster(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t, pptxtest.WithoutNotesMaster())
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 1, Title: "Quiet", Content: plan.NewText("x"), Notes: "unsayable"},
	}}

	report := assemble.New(assemble.Standard).Assemble(template, content)

	assert.Equal(t, 2, report.SlideCount)
	require.NotEmpty(t, report.Warnings)

	found := false

	for _, warning := range report.Warnings {
		if warning.EntryIndex == 0 {
			assert.Contains(t, warning.Message, "no notes master")
			assert.Equal(t, "Quiet", warning.Title)

			found = true
		}
	}

	assert.True(t, found)
}

func TestAssembleNotesAttachedCleanly(t *testing.T) {
	t.Parallel()

	template := loadTemplate(t)
	content := &plan.Plan{Entries: []plan.Entry{
		{LayoutIndex: 1, Title: "Spoken", Content: plan.NewText("x"), Notes: "remember to pause"},
	}}

	report := assemble.New(assemble.Standard).Assemble(template, content)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.Skipped)
}
