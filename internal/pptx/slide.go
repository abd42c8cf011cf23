package pptx

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrLayoutUnusable indicates a layout that cannot be instantiated (its part
// vanished or carries no usable markup). Callers are expected to skip the
// offending slide and continue.
var ErrLayoutUnusable = errors.New("layout cannot be instantiated")

// Slide is a slide instantiated from a layout. Its placeholder shapes inherit
// position, size and styling from the layout by placeholder type/idx matching;
// the slide part itself only carries the text this package writes into it.
type Slide struct {
	template    *Template
	layout      *Layout
	partNumber  int
	notesNumber int
	slideID     int
	relationID  string
	shapes      []*TextShape
	notesText   string
	hasNotes    bool
}

// TextShape is a text-bearing shape on a generated slide: the only capability
// surface the assembler programs against.
type TextShape struct {
	placeholder Placeholder
	paragraphs  []textParagraph
}

type textParagraph struct {
	text           string
	level          int
	sizeHundredths int
}

// AddSlide instantiates a new slide from the given layout and appends it to
// the presentation's slide sequence.
func (t *Template) AddSlide(layout *Layout) (*Slide, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: no layout", ErrLayoutUnusable)
	}

	if _, ok := t.parts[layout.partName]; !ok {
		return nil, fmt.Errorf("%w: missing part %s", ErrLayoutUnusable, layout.partName)
	}

	slide := &Slide{
		template:   t,
		layout:     layout,
		partNumber: t.nextSlideNumber,
		slideID:    t.nextSlideID,
		relationID: fmt.Sprintf("rId%d", t.nextRelationID),
	}

	t.nextSlideNumber++
	t.nextSlideID++
	t.nextRelationID++

	for _, placeholder := range layout.Placeholders {
		if chromeKinds[placeholder.rawType] || !placeholder.textCapable() {
			continue
		}

		slide.shapes = append(slide.shapes, &TextShape{placeholder: placeholder})
	}

	t.slides = append(t.slides, slide)

	return slide, nil
}

// Layout returns the layout this slide was instantiated from.
func (s *Slide) Layout() *Layout {
	return s.layout
}

// TextShapes returns the slide's text-bearing shapes in native display order.
func (s *Slide) TextShapes() []*TextShape {
	return s.shapes
}

// SetNotes attaches speaker notes to the slide. It fails if the template has
// no notes master; inventing one would override the template's notes theme.
func (s *Slide) SetNotes(text string) error {
	if !s.template.HasNotesMaster() {
		return ErrNoNotesMaster
	}

	if !s.hasNotes {
		s.notesNumber = s.template.nextNotesNumber
		s.template.nextNotesNumber++
		s.hasNotes = true
	}

	s.notesText = text

	return nil
}

// Name returns the display name of the placeholder backing this shape.
func (ts *TextShape) Name() string {
	return ts.placeholder.Name
}

// Kind returns the placeholder kind backing this shape.
func (ts *TextShape) Kind() string {
	return ts.placeholder.Kind
}

// Text returns the shape's current text, paragraphs joined by newlines.
func (ts *TextShape) Text() string {
	texts := make([]string, len(ts.paragraphs))
	for i, paragraph := range ts.paragraphs {
		texts[i] = paragraph.text
	}

	return strings.Join(texts, "\n")
}

// SetText replaces the shape's content. Newlines split into paragraphs, the
// same way presentation libraries treat assigned text.
func (ts *TextShape) SetText(text string) {
	ts.paragraphs = nil

	for _, line := range strings.Split(text, "\n") {
		ts.paragraphs = append(ts.paragraphs, textParagraph{text: line})
	}
}

// Clear removes all content from the shape's text container.
func (ts *TextShape) Clear() {
	ts.paragraphs = nil
}

// AddParagraph appends a paragraph at the given indentation level. A positive
// sizePoints pins the font size; zero or negative inherits from the layout.
func (ts *TextShape) AddParagraph(text string, level int, sizePoints int) {
	paragraph := textParagraph{text: text, level: level}
	if sizePoints > 0 {
		paragraph.sizeHundredths = sizePoints * 100
	}

	ts.paragraphs = append(ts.paragraphs, paragraph)
}

// ParagraphInfo is a read-only view of one paragraph in a text shape.
type ParagraphInfo struct {
	Text       string
	Level      int
	SizePoints int
}

// Paragraphs returns the shape's paragraphs in order.
func (ts *TextShape) Paragraphs() []ParagraphInfo {
	infos := make([]ParagraphInfo, len(ts.paragraphs))
	for i, paragraph := range ts.paragraphs {
		infos[i] = ParagraphInfo{
			Text:       paragraph.text,
			Level:      paragraph.level,
			SizePoints: paragraph.sizeHundredths / 100,
		}
	}

	return infos
}

// compose renders the slide (and its notes slide, when present) into package
// parts, together with the presentation relationship and content-type
// overrides that register them.
func (s *Slide) compose() ([]appendedPart, relationship, []contentOverride, error) {
	slidePart := fmt.Sprintf("ppt/slides/slide%d.xml", s.partNumber)
	slideRelsPart := relsPartNameFor(slidePart)

	parts := []appendedPart{
		{name: slidePart, content: marshalPart(s.slideMarkup())},
	}
	overrides := []contentOverride{
		{PartName: "/" + slidePart, ContentType: contentTypeSlide},
	}

	slideRels := relationships{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/relationships",
		Items: []relationship{
			{
				ID:     "rId1",
				Type:   relationshipTypeSlideLayout,
				Target: relativeTarget(path.Dir(slidePart), s.layout.partName),
			},
		},
	}

	if s.hasNotes {
		notesPart := fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", s.notesNumber)

		slideRels.Items = append(slideRels.Items, relationship{
			ID:     "rId2",
			Type:   relationshipTypeNotesSlide,
			Target: relativeTarget(path.Dir(slidePart), notesPart),
		})

		notesRels := relationships{
			Xmlns: "http://schemas.openxmlformats.org/package/2006/relationships",
			Items: []relationship{
				{
					ID:     "rId1",
					Type:   relationshipTypeNotesMaster,
					Target: relativeTarget(path.Dir(notesPart), s.template.notesMasterPart),
				},
				{
					ID:     "rId2",
					Type:   relationshipTypeSlide,
					Target: relativeTarget(path.Dir(notesPart), slidePart),
				},
			},
		}

		parts = append(parts,
			appendedPart{name: notesPart, content: marshalPart(s.notesMarkup())},
			appendedPart{name: relsPartNameFor(notesPart), content: marshalPart(&notesRels)},
		)
		overrides = append(overrides, contentOverride{
			PartName: "/" + notesPart, ContentType: contentTypeNotesSlide,
		})
	}

	parts = append(parts, appendedPart{name: slideRelsPart, content: marshalPart(&slideRels)})

	relation := relationship{
		ID:     s.relationID,
		Type:   relationshipTypeSlide,
		Target: relativeTarget(path.Dir(s.template.presPartName), slidePart),
	}

	return parts, relation, overrides, nil
}

func (s *Slide) slideMarkup() *slideMarkup {
	markup := &slideMarkup{
		XmlnsA: namespaceDrawingML,
		XmlnsR: namespaceRelationships,
		XmlnsP: namespacePresentationML,
	}
	markup.CommonSlideData.ShapeTree = s.shapeTree()

	return markup
}

func (s *Slide) shapeTree() shapeTreeMarkup {
	tree := shapeTreeMarkup{}
	tree.NonVisualGroup.Properties = idNameMarkup{ID: 1, Name: ""}

	for i, shape := range s.shapes {
		tree.Shapes = append(tree.Shapes, shape.markup(i+2))
	}

	return tree
}

func (ts *TextShape) markup(shapeID int) shapeMarkup {
	name := ts.placeholder.Name
	if name == "" {
		name = fmt.Sprintf("Placeholder %d", ts.placeholder.Index)
	}

	shape := shapeMarkup{}
	shape.NonVisual.Properties = idNameMarkup{ID: shapeID, Name: name}
	shape.NonVisual.ShapeProperties.Locks.NoGroup = "1"
	shape.NonVisual.AppProperties.Placeholder = placeholderMarkup{
		Type: ts.placeholder.rawType,
		Idx:  ts.placeholder.rawIdx,
	}
	shape.TextBody = ts.textBody()

	return shape
}

func (ts *TextShape) textBody() textBodyMarkup {
	body := textBodyMarkup{}

	if len(ts.paragraphs) == 0 {
		body.Paragraphs = []paragraphMarkup{{}}

		return body
	}

	for _, paragraph := range ts.paragraphs {
		rendered := paragraphMarkup{}

		if paragraph.level > 0 {
			rendered.Properties = &paragraphPropsMarkup{Level: paragraph.level}
		}

		run := runMarkup{Text: paragraph.text}
		if paragraph.sizeHundredths > 0 {
			run.Properties = &runPropsMarkup{
				Language:       "en-US",
				SizeHundredths: paragraph.sizeHundredths,
				Dirty:          "0",
			}
		}

		rendered.Runs = []runMarkup{run}
		body.Paragraphs = append(body.Paragraphs, rendered)
	}

	return body
}

func (s *Slide) notesMarkup() *notesMarkup {
	markup := &notesMarkup{
		XmlnsA: namespaceDrawingML,
		XmlnsR: namespaceRelationships,
		XmlnsP: namespacePresentationML,
	}

	notesShape := shapeMarkup{}
	notesShape.NonVisual.Properties = idNameMarkup{ID: 2, Name: "Notes Placeholder 1"}
	notesShape.NonVisual.ShapeProperties.Locks.NoGroup = "1"
	notesShape.NonVisual.AppProperties.Placeholder = placeholderMarkup{Type: "body", Idx: "1"}

	for _, line := range strings.Split(s.notesText, "\n") {
		notesShape.TextBody.Paragraphs = append(notesShape.TextBody.Paragraphs, paragraphMarkup{
			Runs: []runMarkup{{Text: line}},
		})
	}

	tree := shapeTreeMarkup{}
	tree.NonVisualGroup.Properties = idNameMarkup{ID: 1, Name: ""}
	tree.Shapes = []shapeMarkup{notesShape}
	markup.CommonSlideData.ShapeTree = tree

	return markup
}
