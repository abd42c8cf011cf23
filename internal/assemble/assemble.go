// Package assemble turns a content plan and an opened template into populated
// slides. Failures are isolated per slide: a bad layout index falls back, an
// uninstantiable layout skips that entry, and everything that deviated from
// the plan is reported rather than aborting the deck.
package assemble

import (
	"errors"
	"fmt"

	"github.com/book-expert/deck-builder-service/internal/plan"
	"github.com/book-expert/deck-builder-service/internal/pptx"
)

// Defaults configure the assembler. All values are taken literally, so layout
// index 0 is a valid choice for either slot; Standard holds the stock values.
type Defaults struct {
	// FallbackLayoutIndex is used when a plan entry names a layout the
	// template does not have.
	FallbackLayoutIndex int
	// CoverLayoutIndex is the layout the opening slide is built from.
	CoverLayoutIndex int
	// BodyFontSizePoints pins the font size of generated bullet paragraphs.
	BodyFontSizePoints int
}

// Standard are the stock assembler defaults.
var Standard = Defaults{
	FallbackLayoutIndex: 1,
	CoverLayoutIndex:    2,
	BodyFontSizePoints:  18,
}

// SkipReason records one plan entry that produced no slide.
type SkipReason struct {
	EntryIndex int    `json:"entry_index"`
	Title      string `json:"title,omitempty"`
	Reason     string `json:"reason"`
}

// Warning records a recovered deviation: the slide exists, but not exactly as
// planned. CoverEntryIndex marks warnings about the cover slide.
type Warning struct {
	EntryIndex int    `json:"entry_index"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message"`
}

// CoverEntryIndex is the EntryIndex warnings about the cover slide carry.
const CoverEntryIndex = -1

// Report summarizes an assembly run.
type Report struct {
	SlideCount int          `json:"slide_count"`
	Skipped    []SkipReason `json:"skipped,omitempty"`
	Warnings   []Warning    `json:"warnings,omitempty"`
}

// Assembler builds decks from plans.
type Assembler struct {
	defaults Defaults
}

// New creates an assembler using the given defaults as-is. Callers wanting
// the stock behaviour pass Standard.
func New(defaults Defaults) *Assembler {
	return &Assembler{defaults: defaults}
}

// Assemble appends one cover slide plus one slide per plan entry to the
// template. An empty plan appends nothing. The returned report is never nil.
func (a *Assembler) Assemble(template *pptx.Template, content *plan.Plan) *Report {
	report := &Report{}

	if content == nil || len(content.Entries) == 0 {
		return report
	}

	a.assembleCover(template, content.Entries[0], report)

	for i, entry := range content.Entries {
		a.assembleEntry(template, i, entry, report)
	}

	return report
}

// assembleCover opens the deck with a title slide carrying the first entry's
// title. Cover failures never abort the run; the content slides still carry
// everything the plan asked for.
func (a *Assembler) assembleCover(template *pptx.Template, first plan.Entry, report *Report) {
	layout, warning := a.resolveLayout(template, a.defaults.CoverLayoutIndex)
	if layout == nil {
		report.Warnings = append(report.Warnings, Warning{
			EntryIndex: CoverEntryIndex,
			Title:      first.Title,
			Message:    "template has no usable cover layout",
		})

		return
	}

	if warning != "" {
		report.Warnings = append(report.Warnings, Warning{
			EntryIndex: CoverEntryIndex,
			Title:      first.Title,
			Message:    warning,
		})
	}

	slide, err := template.AddSlide(layout)
	if err != nil {
		report.Warnings = append(report.Warnings, Warning{
			EntryIndex: CoverEntryIndex,
			Title:      first.Title,
			Message:    fmt.Sprintf("cover slide not created: %v", err),
		})

		return
	}

	report.SlideCount++

	shapes := slide.TextShapes()
	if len(shapes) == 0 {
		report.Warnings = append(report.Warnings, Warning{
			EntryIndex: CoverEntryIndex,
			Title:      first.Title,
			Message:    fmt.Sprintf("cover layout %q has no text shapes", layout.Name),
		})

		return
	}

	shapes[0].SetText(first.Title)

	if first.Notes != "" {
		a.attachNotes(slide, CoverEntryIndex, first.Title, first.Notes, report)
	}
}

// assembleEntry builds one content slide. Layout resolution falls back, slide
// creation failures skip the entry, and binding shortfalls are warnings.
func (a *Assembler) assembleEntry(template *pptx.Template, index int, entry plan.Entry, report *Report) {
	layout, warning := a.resolveLayout(template, entry.LayoutIndex)
	if layout == nil {
		report.Skipped = append(report.Skipped, SkipReason{
			EntryIndex: index,
			Title:      entry.Title,
			Reason:     "template has no usable layouts",
		})

		return
	}

	if warning != "" {
		report.Warnings = append(report.Warnings, Warning{
			EntryIndex: index,
			Title:      entry.Title,
			Message:    warning,
		})
	}

	slide, err := template.AddSlide(layout)
	if err != nil {
		report.Skipped = append(report.Skipped, SkipReason{
			EntryIndex: index,
			Title:      entry.Title,
			Reason:     fmt.Sprintf("layout %d: %v", layout.Index, err),
		})

		return
	}

	report.SlideCount++

	a.bindFields(slide, index, entry, report)

	if entry.Notes != "" {
		a.attachNotes(slide, index, entry.Title, entry.Notes, report)
	}
}

// bindFields applies positional binding: the first text shape takes the title,
// the second takes the content. Anything the layout cannot hold is reported.
func (a *Assembler) bindFields(slide *pptx.Slide, index int, entry plan.Entry, report *Report) {
	shapes := slide.TextShapes()

	if len(shapes) == 0 {
		report.Warnings = append(report.Warnings, Warning{
			EntryIndex: index,
			Title:      entry.Title,
			Message:    fmt.Sprintf("layout %q has no text shapes; slide left as designed", slide.Layout().Name),
		})

		return
	}

	shapes[0].SetText(entry.Title)

	if entry.Content.IsEmpty() {
		return
	}

	if len(shapes) < 2 {
		report.Warnings = append(report.Warnings, Warning{
			EntryIndex: index,
			Title:      entry.Title,
			Message:    fmt.Sprintf("layout %q has no body shape; content dropped", slide.Layout().Name),
		})

		return
	}

	body := shapes[1]
	body.Clear()

	if entry.Content.IsList() {
		for _, item := range entry.Content.Items() {
			body.AddParagraph(item, 0, a.defaults.BodyFontSizePoints)
		}

		return
	}

	body.SetText(entry.Content.Items()[0])
}

func (a *Assembler) attachNotes(slide *pptx.Slide, index int, title, notes string, report *Report) {
	err := slide.SetNotes(notes)
	if err == nil {
		return
	}

	message := fmt.Sprintf("notes dropped: %v", err)
	if errors.Is(err, pptx.ErrNoNotesMaster) {
		message = "notes dropped: template has no notes master"
	}

	report.Warnings = append(report.Warnings, Warning{EntryIndex: index, Title: title, Message: message})
}

// resolveLayout maps a requested index onto an existing layout. Out-of-range
// indices take the fallback layout; when even that does not exist, the first
// layout serves. A nil result means the template has no layouts at all.
func (a *Assembler) resolveLayout(template *pptx.Template, requested int) (*pptx.Layout, string) {
	layouts := template.Layouts()
	if len(layouts) == 0 {
		return nil, ""
	}

	if requested >= 0 && requested < len(layouts) {
		return layouts[requested], ""
	}

	fallback := a.defaults.FallbackLayoutIndex
	if fallback < 0 || fallback >= len(layouts) {
		fallback = 0
	}

	warning := fmt.Sprintf("layout index %d out of range; using layout %d (%s)",
		requested, fallback, layouts[fallback].Name)

	return layouts[fallback], warning
}
