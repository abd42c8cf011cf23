// Package pptx opens PowerPoint templates, exposes their layouts and
// placeholders, instantiates slides bound to those layouts, and saves the
// mutated document without disturbing the template's theme, masters or fonts.
//
// A .pptx file is an OPC package: a zip of XML parts wired together by
// relationship files. Every part this package does not understand is copied
// through byte-for-byte; only the slide-id list of presentation.xml, the
// presentation relationships and [Content_Types].xml are rewritten, and new
// slide parts are appended.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrTemplateLoad indicates the template file is missing, corrupt, or not a
	// presentation this package can work with. Load failures are fatal; there
	// is no partial result.
	ErrTemplateLoad = errors.New("template load failed")
	// ErrPersist indicates the final save failed. No file is left behind at the
	// intended output path.
	ErrPersist = errors.New("persist presentation failed")
	// ErrNoNotesMaster indicates the template carries no notes master, so
	// speaker notes cannot be attached without inventing one.
	ErrNoNotesMaster = errors.New("template has no notes master")
)

const firstSlideID = 256

// Template is an opened presentation document. It is not safe for concurrent
// use; the expected lifecycle is open once, add slides sequentially, save once.
type Template struct {
	parts        map[string][]byte
	partOrder    []string
	presPartName string
	presRels     *relationships
	types        *contentTypes
	layouts      []*Layout
	slides       []*Slide

	notesMasterPart string
	nextSlideNumber int
	nextNotesNumber int
	nextSlideID     int
	nextRelationID  int
}

// Open reads and parses a presentation template from disk.
func Open(templatePath string) (*Template, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrTemplateLoad, templatePath, err)
	}

	return Load(data)
}

// Load parses a presentation template from memory.
func Load(data []byte) (*Template, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open package: %w", ErrTemplateLoad, err)
	}

	template := &Template{
		parts:       make(map[string][]byte, len(reader.File)),
		nextSlideID: firstSlideID,
	}

	for _, file := range reader.File {
		content, readErr := readZipEntry(file)
		if readErr != nil {
			return nil, fmt.Errorf("%w: read part %s: %w", ErrTemplateLoad, file.Name, readErr)
		}

		template.parts[file.Name] = content
		template.partOrder = append(template.partOrder, file.Name)
	}

	err = template.parseStructure()
	if err != nil {
		return nil, err
	}

	return template, nil
}

func readZipEntry(file *zip.File) ([]byte, error) {
	entry, err := file.Open()
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = entry.Close()
	}()

	content, err := io.ReadAll(entry)
	if err != nil {
		return nil, err
	}

	return content, nil
}

// parseStructure resolves the package skeleton: the presentation part, its
// relationships, the content types, the layout sequence, and the counters used
// when new parts are appended.
func (t *Template) parseStructure() error {
	err := t.locatePresentationPart()
	if err != nil {
		return err
	}

	err = t.parseContentTypes()
	if err != nil {
		return err
	}

	err = t.parsePresentationRels()
	if err != nil {
		return err
	}

	presentation, err := t.parsePresentation()
	if err != nil {
		return err
	}

	err = t.parseLayouts(presentation)
	if err != nil {
		return err
	}

	t.initCounters(presentation)

	return nil
}

func (t *Template) locatePresentationPart() error {
	packageRels, err := t.parseRelationshipsPart(packageRelsPartName)
	if err != nil {
		return fmt.Errorf("%w: package relationships: %w", ErrTemplateLoad, err)
	}

	for _, rel := range packageRels.Items {
		if rel.Type == relationshipTypeOfficeDocument {
			t.presPartName = strings.TrimPrefix(rel.Target, "/")

			break
		}
	}

	if t.presPartName == "" {
		return fmt.Errorf("%w: no office document relationship", ErrTemplateLoad)
	}

	if _, ok := t.parts[t.presPartName]; !ok {
		return fmt.Errorf("%w: missing part %s", ErrTemplateLoad, t.presPartName)
	}

	return nil
}

func (t *Template) parseContentTypes() error {
	data, ok := t.parts[contentTypesPartName]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrTemplateLoad, contentTypesPartName)
	}

	var types contentTypes

	err := xml.Unmarshal(data, &types)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrTemplateLoad, contentTypesPartName, err)
	}

	t.types = &types

	return nil
}

func (t *Template) parsePresentationRels() error {
	relsName := relsPartNameFor(t.presPartName)

	rels, err := t.parseRelationshipsPart(relsName)
	if err != nil {
		return fmt.Errorf("%w: presentation relationships: %w", ErrTemplateLoad, err)
	}

	t.presRels = rels

	for _, rel := range rels.Items {
		if rel.Type == relationshipTypeNotesMaster {
			t.notesMasterPart = resolvePartName(path.Dir(t.presPartName), rel.Target)
		}
	}

	return nil
}

func (t *Template) parsePresentation() (*presentationDocument, error) {
	var presentation presentationDocument

	err := xml.Unmarshal(t.parts[t.presPartName], &presentation)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrTemplateLoad, t.presPartName, err)
	}

	if len(presentation.MasterIDs) == 0 {
		return nil, fmt.Errorf("%w: presentation has no slide master", ErrTemplateLoad)
	}

	return &presentation, nil
}

func (t *Template) parseRelationshipsPart(partName string) (*relationships, error) {
	data, ok := t.parts[partName]
	if !ok {
		return nil, fmt.Errorf("missing part %s", partName)
	}

	var rels relationships

	err := xml.Unmarshal(data, &rels)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", partName, err)
	}

	return &rels, nil
}

var (
	reSlidePartNumber = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	reNotesPartNumber = regexp.MustCompile(`^ppt/notesSlides/notesSlide(\d+)\.xml$`)
	reRelationNumber  = regexp.MustCompile(`^rId(\d+)$`)
)

func (t *Template) initCounters(presentation *presentationDocument) {
	t.nextSlideNumber = 1
	t.nextNotesNumber = 1

	for name := range t.parts {
		if match := reSlidePartNumber.FindStringSubmatch(name); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n >= t.nextSlideNumber {
				t.nextSlideNumber = n + 1
			}
		}

		if match := reNotesPartNumber.FindStringSubmatch(name); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n >= t.nextNotesNumber {
				t.nextNotesNumber = n + 1
			}
		}
	}

	for _, slideID := range presentation.SlideIDs {
		if n, err := strconv.Atoi(slideID.ID); err == nil && n >= t.nextSlideID {
			t.nextSlideID = n + 1
		}
	}

	t.nextRelationID = 1

	for _, rel := range t.presRels.Items {
		if match := reRelationNumber.FindStringSubmatch(rel.ID); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n >= t.nextRelationID {
				t.nextRelationID = n + 1
			}
		}
	}
}

// Layouts returns the template's layout sequence in its native order. The
// slice index of each layout is the stable handle plan entries refer to.
func (t *Template) Layouts() []*Layout {
	return t.layouts
}

// Slides returns the slides added to this template, in creation order.
func (t *Template) Slides() []*Slide {
	return t.slides
}

// HasNotesMaster reports whether the template can carry speaker notes.
func (t *Template) HasNotesMaster() bool {
	return t.notesMasterPart != ""
}

// Save writes the presentation to outputPath all-or-nothing: the document is
// serialized to a temporary file in the destination directory and renamed into
// place, so a failed save never leaves a partial file at the intended path.
func (t *Template) Save(outputPath string) error {
	outputDir := filepath.Dir(outputPath)

	temporary, err := os.CreateTemp(outputDir, ".deck-*.pptx")
	if err != nil {
		return fmt.Errorf("%w: create temporary file: %w", ErrPersist, err)
	}

	temporaryName := temporary.Name()

	writeErr := t.WriteTo(temporary)
	closeErr := temporary.Close()

	if writeErr != nil || closeErr != nil {
		_ = os.Remove(temporaryName)

		if writeErr != nil {
			return writeErr
		}

		return fmt.Errorf("%w: close temporary file: %w", ErrPersist, closeErr)
	}

	err = os.Rename(temporaryName, outputPath)
	if err != nil {
		_ = os.Remove(temporaryName)

		return fmt.Errorf("%w: rename into place: %w", ErrPersist, err)
	}

	return nil
}

// WriteTo serializes the presentation package. The template object itself is
// not mutated, so WriteTo can be called more than once.
func (t *Template) WriteTo(w io.Writer) error {
	updated, appended, err := t.composeParts()
	if err != nil {
		return err
	}

	archive := zip.NewWriter(w)

	for _, name := range t.partOrder {
		content := t.parts[name]
		if replacement, ok := updated[name]; ok {
			content = replacement
		}

		writeErr := writeZipEntry(archive, name, content)
		if writeErr != nil {
			return writeErr
		}
	}

	for _, part := range appended {
		writeErr := writeZipEntry(archive, part.name, part.content)
		if writeErr != nil {
			return writeErr
		}
	}

	err = archive.Close()
	if err != nil {
		return fmt.Errorf("%w: finalize package: %w", ErrPersist, err)
	}

	return nil
}

func writeZipEntry(archive *zip.Writer, name string, content []byte) error {
	entry, err := archive.Create(name)
	if err != nil {
		return fmt.Errorf("%w: create entry %s: %w", ErrPersist, name, err)
	}

	_, err = entry.Write(content)
	if err != nil {
		return fmt.Errorf("%w: write entry %s: %w", ErrPersist, name, err)
	}

	return nil
}

type appendedPart struct {
	name    string
	content []byte
}

// composeParts derives the rewritten and newly appended parts from the current
// slide set without touching the originals.
func (t *Template) composeParts() (map[string][]byte, []appendedPart, error) {
	updated := make(map[string][]byte)

	var appended []appendedPart

	rels := relationships{
		XMLName: t.presRels.XMLName,
		Xmlns:   t.presRels.Xmlns,
		Items:   append([]relationship(nil), t.presRels.Items...),
	}
	types := contentTypes{
		XMLName:   t.types.XMLName,
		Xmlns:     t.types.Xmlns,
		Defaults:  append([]contentDefault(nil), t.types.Defaults...),
		Overrides: append([]contentOverride(nil), t.types.Overrides...),
	}

	var slideIDRefs []slideIDRef

	for _, slide := range t.slides {
		slideParts, relationEntry, slideOverrides, composeErr := slide.compose()
		if composeErr != nil {
			return nil, nil, composeErr
		}

		appended = append(appended, slideParts...)
		rels.Items = append(rels.Items, relationEntry)
		types.Overrides = append(types.Overrides, slideOverrides...)
		slideIDRefs = append(slideIDRefs, slideIDRef{id: slide.slideID, relationID: relationEntry.ID})
	}

	presentation, err := t.splicePresentation(slideIDRefs)
	if err != nil {
		return nil, nil, err
	}

	updated[t.presPartName] = presentation
	updated[relsPartNameFor(t.presPartName)] = marshalPart(&rels)
	updated[contentTypesPartName] = marshalPart(&types)

	return updated, appended, nil
}

var (
	rePresentationPrefix = regexp.MustCompile(`<([A-Za-z0-9]+):presentation[\s>]`)
	reRelationshipPrefix = regexp.MustCompile(`xmlns:([A-Za-z0-9]+)="http://schemas\.openxmlformats\.org/officeDocument/2006/relationships"`)
)

// splicePresentation inserts the new slide ids into presentation.xml at the
// byte level. Re-marshalling the whole part would drop every attribute and
// extension this package does not model, which is exactly what corrupts
// third-party templates.
type slideIDRef struct {
	id         int
	relationID string
}

func (t *Template) splicePresentation(refs []slideIDRef) ([]byte, error) {
	source := t.parts[t.presPartName]

	presentationPrefix := "p"
	if match := rePresentationPrefix.FindSubmatch(source); match != nil {
		presentationPrefix = string(match[1])
	}

	relationPrefix := "r"
	if match := reRelationshipPrefix.FindSubmatch(source); match != nil {
		relationPrefix = string(match[1])
	}

	var inserted strings.Builder

	for _, ref := range refs {
		fmt.Fprintf(&inserted, `<%s:sldId id="%d" %s:id=%q/>`,
			presentationPrefix, ref.id, relationPrefix, ref.relationID)
	}

	closeTag := []byte("</" + presentationPrefix + ":sldIdLst>")
	if index := bytes.Index(source, closeTag); index >= 0 {
		return spliceAt(source, index, []byte(inserted.String())), nil
	}

	// No slide list yet: create one right after the master list.
	masterClose := []byte("</" + presentationPrefix + ":sldMasterIdLst>")

	index := bytes.Index(source, masterClose)
	if index < 0 {
		return nil, fmt.Errorf("%w: presentation has no slide master list", ErrPersist)
	}

	insertAt := index + len(masterClose)
	list := "<" + presentationPrefix + ":sldIdLst>" + inserted.String() + "</" + presentationPrefix + ":sldIdLst>"

	return spliceAt(source, insertAt, []byte(list)), nil
}

func spliceAt(source []byte, index int, insertion []byte) []byte {
	result := make([]byte, 0, len(source)+len(insertion))
	result = append(result, source[:index]...)
	result = append(result, insertion...)
	result = append(result, source[index:]...)

	return result
}

func marshalPart(value any) []byte {
	data, err := xml.Marshal(value)
	if err != nil {
		// The marshal structs contain nothing that can fail to encode.
		panic(err)
	}

	return append([]byte(xmlHeader), data...)
}

// relsPartNameFor maps a part name to its relationships part name, e.g.
// ppt/presentation.xml -> ppt/_rels/presentation.xml.rels.
func relsPartNameFor(partName string) string {
	dir := path.Dir(partName)
	base := path.Base(partName)

	if dir == "." {
		return "_rels/" + base + ".rels"
	}

	return dir + "/_rels/" + base + ".rels"
}

// resolvePartName resolves a relationship target against the directory of the
// part that declared it. Absolute targets are package-rooted.
func resolvePartName(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}

	return path.Clean(path.Join(baseDir, target))
}

// relativeTarget renders toPart as a relationship target relative to fromDir.
func relativeTarget(fromDir, toPart string) string {
	fromSegments := strings.Split(path.Clean(fromDir), "/")
	toSegments := strings.Split(path.Clean(toPart), "/")

	common := 0
	for common < len(fromSegments) && common < len(toSegments)-1 {
		if fromSegments[common] != toSegments[common] {
			break
		}

		common++
	}

	var segments []string
	for range fromSegments[common:] {
		segments = append(segments, "..")
	}

	segments = append(segments, toSegments[common:]...)

	return strings.Join(segments, "/")
}
