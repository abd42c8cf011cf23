package pptx_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/deck-builder-service/internal/pptx"
	"github.com/book-expert/deck-builder-service/internal/pptx/pptxtest"
)

func TestLoadParsesLayoutSequence(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	layouts := template.Layouts()
	require.Len(t, layouts, 4)

	assert.Equal(t, "Title Slide", layouts[0].Name)
	assert.Equal(t, "Title and Content", layouts[1].Name)
	assert.Equal(t, "Section Header", layouts[2].Name)
	assert.Equal(t, "Picture with Caption", layouts[3].Name)

	for i, layout := range layouts {
		assert.Equal(t, i, layout.Index)
	}

	require.Len(t, layouts[0].Placeholders, 2)
	assert.Equal(t, "ctrTitle", layouts[0].Placeholders[0].Kind)
	assert.Equal(t, "subTitle", layouts[0].Placeholders[1].Kind)
	assert.Equal(t, "Title 1", layouts[0].Placeholders[0].Name)

	// A typed-less placeholder reads as body.
	require.Len(t, layouts[1].Placeholders, 2)
	assert.Equal(t, "body", layouts[1].Placeholders[1].Kind)
	assert.Equal(t, 1, layouts[1].Placeholders[1].Index)
}

func TestLoadRejectsCorruptData(t *testing.T) {
	t.Parallel()

	_, err := pptx.Load([]byte("this is not a zip archive"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pptx.ErrTemplateLoad)
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := pptx.Open(filepath.Join(t.TempDir(), "absent.pptx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pptx.ErrTemplateLoad)
}

func TestAddSlideClonesOnlyTextPlaceholders(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	// Picture with Caption: title + picture + caption body. The picture
	// placeholder must not become a text shape.
	slide, err := template.AddSlide(template.Layouts()[3])
	require.NoError(t, err)

	shapes := slide.TextShapes()
	require.Len(t, shapes, 2)
	assert.Equal(t, "title", shapes[0].Kind())
	assert.Equal(t, "body", shapes[1].Kind())
}

func TestAddSlideNilLayout(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	_, err = template.AddSlide(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, pptx.ErrLayoutUnusable)
}

func TestTextShapeParagraphs(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	slide, err := template.AddSlide(template.Layouts()[1])
	require.NoError(t, err)

	body := slide.TextShapes()[1]
	body.SetText("first\nsecond")
	assert.Equal(t, "first\nsecond", body.Text())

	body.Clear()
	body.AddParagraph("bullet one", 0, 18)
	body.AddParagraph("bullet two", 0, 18)

	paragraphs := body.Paragraphs()
	require.Len(t, paragraphs, 2)
	assert.Equal(t, "bullet one", paragraphs[0].Text)
	assert.Equal(t, 0, paragraphs[0].Level)
	assert.Equal(t, 18, paragraphs[0].SizePoints)
}

func TestWriteToAppendsSlideParts(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	slide, err := template.AddSlide(template.Layouts()[1])
	require.NoError(t, err)

	slide.TextShapes()[0].SetText("Deck Title")
	slide.TextShapes()[1].AddParagraph("One bullet", 0, 18)
	require.NoError(t, slide.SetNotes("speaker cue"))

	var buffer bytes.Buffer

	require.NoError(t, template.WriteTo(&buffer))

	parts := readPackage(t, buffer.Bytes())

	slideXML, ok := parts["ppt/slides/slide1.xml"]
	require.True(t, ok, "slide part missing")
	assert.Contains(t, slideXML, "<a:t>Deck Title</a:t>")
	assert.Contains(t, slideXML, "<a:t>One bullet</a:t>")
	assert.Contains(t, slideXML, `sz="1800"`)
	assert.Contains(t, slideXML, `<p:ph type="title"`)

	presentationXML := parts["ppt/presentation.xml"]
	assert.Contains(t, presentationXML, `<p:sldIdLst><p:sldId id="256" r:id=`)

	relsXML := parts["ppt/_rels/presentation.xml.rels"]
	assert.Contains(t, relsXML, "slides/slide1.xml")

	typesXML := parts["[Content_Types].xml"]
	assert.Contains(t, typesXML, `PartName="/ppt/slides/slide1.xml"`)
	assert.Contains(t, typesXML, `PartName="/ppt/notesSlides/notesSlide1.xml"`)

	notesXML, ok := parts["ppt/notesSlides/notesSlide1.xml"]
	require.True(t, ok, "notes part missing")
	assert.Contains(t, notesXML, "<a:t>speaker cue</a:t>")

	slideRels := parts["ppt/slides/_rels/slide1.xml.rels"]
	assert.Contains(t, slideRels, "../slideLayouts/slideLayout2.xml")
	assert.Contains(t, slideRels, "../notesSlides/notesSlide1.xml")
}

func TestWriteToIsRepeatable(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	slide, err := template.AddSlide(template.Layouts()[0])
	require.NoError(t, err)
	slide.TextShapes()[0].SetText("Once")

	var first, second bytes.Buffer

	require.NoError(t, template.WriteTo(&first))
	require.NoError(t, template.WriteTo(&second))

	firstParts := readPackage(t, first.Bytes())
	secondParts := readPackage(t, second.Bytes())
	assert.Equal(t, firstParts, secondParts)
}

func TestReloadedDocumentContinuesNumbering(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	_, err = template.AddSlide(template.Layouts()[1])
	require.NoError(t, err)

	var buffer bytes.Buffer

	require.NoError(t, template.WriteTo(&buffer))

	reloaded, err := pptx.Load(buffer.Bytes())
	require.NoError(t, err)
	assert.Empty(t, reloaded.Slides())

	_, err = reloaded.AddSlide(reloaded.Layouts()[1])
	require.NoError(t, err)

	var again bytes.Buffer

	require.NoError(t, reloaded.WriteTo(&again))

	parts := readPackage(t, again.Bytes())
	_, ok := parts["ppt/slides/slide2.xml"]
	assert.True(t, ok, "second generation should not collide with slide1")

	presentation := parts["ppt/presentation.xml"]
	assert.Equal(t, 1, strings.Count(presentation, `<p:sldId id="256"`),
		"slide ids must stay unique across save/reload cycles")
	assert.Contains(t, presentation, `<p:sldId id="257"`)
}

func TestSetNotesWithoutNotesMaster(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t, pptxtest.WithoutNotesMaster()))
	require.NoError(t, err)
	assert.False(t, template.HasNotesMaster())

	slide, err := template.AddSlide(template.Layouts()[0])
	require.NoError(t, err)

	err = slide.SetNotes("nobody will hear this")
	require.Error(t, err)
	assert.ErrorIs(t, err, pptx.ErrNoNotesMaster)
}

func TestSaveWritesAtomically(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	slide, err := template.AddSlide(template.Layouts()[0])
	require.NoError(t, err)
	slide.TextShapes()[0].SetText("Saved Deck")

	outputPath := filepath.Join(t.TempDir(), "deck.pptx")
	require.NoError(t, template.Save(outputPath))

	reopened, err := pptx.Open(outputPath)
	require.NoError(t, err)
	assert.Len(t, reopened.Layouts(), 4)
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "missing-dir", "deck.pptx")

	err = template.Save(outputPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, pptx.ErrPersist)

	_, statErr := os.Stat(outputPath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func readPackage(t *testing.T, data []byte) map[string]string {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	parts := make(map[string]string, len(reader.File))

	for _, file := range reader.File {
		entry, openErr := file.Open()
		require.NoError(t, openErr)

		content, readErr := io.ReadAll(entry)
		require.NoError(t, readErr)
		require.NoError(t, entry.Close())

		parts[file.Name] = string(content)
	}

	return parts
}

func TestRelationshipTargetsStayRelative(t *testing.T) {
	t.Parallel()

	template, err := pptx.Load(pptxtest.TemplateBytes(t))
	require.NoError(t, err)

	_, err = template.AddSlide(template.Layouts()[2])
	require.NoError(t, err)

	var buffer bytes.Buffer

	require.NoError(t, template.WriteTo(&buffer))

	rels := readPackage(t, buffer.Bytes())["ppt/_rels/presentation.xml.rels"]
	assert.Contains(t, rels, `Target="slides/slide1.xml"`)
	assert.False(t, strings.Contains(rels, `Target="/ppt/slides`), "targets must not be absolute")
}
