// Package pptxtest builds minimal in-memory .pptx templates for tests. The
// generated packages carry the same skeleton real templates do: content types,
// package relationships, one slide master with an ordered layout list, a theme
// and (by default) a notes master.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// PlaceholderSpec declares one placeholder on a fixture layout. Type and Idx
// are written verbatim as the p:ph attributes; empty values omit the attribute.
type PlaceholderSpec struct {
	Type string
	Idx  string
	Name string
}

// LayoutSpec declares one fixture layout.
type LayoutSpec struct {
	Name         string
	Placeholders []PlaceholderSpec
}

// Option customizes the generated template.
type Option func(*fixture)

type fixture struct {
	layouts     []LayoutSpec
	notesMaster bool
}

// WithLayouts replaces the default layout set.
func WithLayouts(layouts ...LayoutSpec) Option {
	return func(f *fixture) {
		f.layouts = layouts
	}
}

// WithoutNotesMaster produces a template that cannot carry speaker notes.
func WithoutNotesMaster() Option {
	return func(f *fixture) {
		f.notesMaster = false
	}
}

// DefaultLayouts returns the layout set templates get unless overridden:
// enough variety to exercise cover, content and sparse binding paths.
func DefaultLayouts() []LayoutSpec {
	return []LayoutSpec{
		{Name: "Title Slide", Placeholders: []PlaceholderSpec{
			{Type: "ctrTitle", Name: "Title 1"},
			{Type: "subTitle", Idx: "1", Name: "Subtitle 2"},
		}},
		{Name: "Title and Content", Placeholders: []PlaceholderSpec{
			{Type: "title", Name: "Title 1"},
			{Idx: "1", Name: "Content Placeholder 2"},
		}},
		{Name: "Section Header", Placeholders: []PlaceholderSpec{
			{Type: "title", Name: "Title 1"},
			{Idx: "1", Name: "Text Placeholder 2"},
		}},
		{Name: "Picture with Caption", Placeholders: []PlaceholderSpec{
			{Type: "title", Name: "Title 1"},
			{Type: "pic", Idx: "1", Name: "Picture Placeholder 2"},
			{Idx: "2", Name: "Text Placeholder 3"},
		}},
	}
}

// TemplateBytes renders a template package and returns its bytes.
func TemplateBytes(t *testing.T, options ...Option) []byte {
	t.Helper()

	f := &fixture{
		layouts:     DefaultLayouts(),
		notesMaster: true,
	}
	for _, option := range options {
		option(f)
	}

	var buffer bytes.Buffer

	archive := zip.NewWriter(&buffer)

	write := func(name, content string) {
		t.Helper()

		entry, err := archive.Create(name)
		if err != nil {
			t.Fatalf("create fixture entry %s: %v", name, err)
		}

		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write fixture entry %s: %v", name, err)
		}
	}

	write("[Content_Types].xml", f.contentTypes())
	write("_rels/.rels", packageRels)
	write("ppt/presentation.xml", f.presentation())
	write("ppt/_rels/presentation.xml.rels", f.presentationRels())
	write("ppt/slideMasters/slideMaster1.xml", f.slideMaster())
	write("ppt/slideMasters/_rels/slideMaster1.xml.rels", f.slideMasterRels())
	write("ppt/theme/theme1.xml", themeXML)

	for i, layout := range f.layouts {
		write(fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1), layoutXML(layout))
		write(fmt.Sprintf("ppt/slideLayouts/_rels/slideLayout%d.xml.rels", i+1), layoutRels)
	}

	if f.notesMaster {
		write("ppt/notesMasters/notesMaster1.xml", notesMasterXML)
		write("ppt/notesMasters/_rels/notesMaster1.xml.rels", notesMasterRels)
	}

	if err := archive.Close(); err != nil {
		t.Fatalf("finalize fixture package: %v", err)
	}

	return buffer.Bytes()
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const packageRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
	`</Relationships>`

const themeXML = xmlHeader +
	`<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office Theme"/>`

const layoutRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

const notesMasterXML = xmlHeader +
	`<p:notesMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
	` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
	`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`</p:notesMaster>`

const notesMasterRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

func (f *fixture) contentTypes() string {
	var sb strings.Builder

	sb.WriteString(xmlHeader)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)

	for i := range f.layouts {
		fmt.Fprintf(&sb, `<Override PartName="/ppt/slideLayouts/slideLayout%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`, i+1)
	}

	if f.notesMaster {
		sb.WriteString(`<Override PartName="/ppt/notesMasters/notesMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesMaster+xml"/>`)
	}

	sb.WriteString(`</Types>`)

	return sb.String()
}

func (f *fixture) presentation() string {
	var sb strings.Builder

	sb.WriteString(xmlHeader)
	sb.WriteString(`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`)
	sb.WriteString(` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`)
	sb.WriteString(` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	sb.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)

	if f.notesMaster {
		sb.WriteString(`<p:notesMasterIdLst><p:notesMasterId r:id="rId3"/></p:notesMasterIdLst>`)
	}

	sb.WriteString(`<p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/>`)
	sb.WriteString(`</p:presentation>`)

	return sb.String()
}

func (f *fixture) presentationRels() string {
	var sb strings.Builder

	sb.WriteString(xmlHeader)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	sb.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/>`)

	if f.notesMaster {
		sb.WriteString(`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesMaster" Target="notesMasters/notesMaster1.xml"/>`)
	}

	sb.WriteString(`</Relationships>`)

	return sb.String()
}

func (f *fixture) slideMaster() string {
	var sb strings.Builder

	sb.WriteString(xmlHeader)
	sb.WriteString(`<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`)
	sb.WriteString(` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`)
	sb.WriteString(` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	sb.WriteString(`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld>`)
	sb.WriteString(`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`)
	sb.WriteString(`<p:sldLayoutIdLst>`)

	for i := range f.layouts {
		fmt.Fprintf(&sb, `<p:sldLayoutId id="%d" r:id="rId%d"/>`, 2147483649+i, i+1)
	}

	sb.WriteString(`</p:sldLayoutIdLst>`)
	sb.WriteString(`</p:sldMaster>`)

	return sb.String()
}

func (f *fixture) slideMasterRels() string {
	var sb strings.Builder

	sb.WriteString(xmlHeader)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)

	for i := range f.layouts {
		fmt.Fprintf(&sb,
			`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout%d.xml"/>`,
			i+1, i+1)
	}

	fmt.Fprintf(&sb,
		`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>`,
		len(f.layouts)+1)
	sb.WriteString(`</Relationships>`)

	return sb.String()
}

func layoutXML(layout LayoutSpec) string {
	var sb strings.Builder

	sb.WriteString(xmlHeader)
	sb.WriteString(`<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`)
	sb.WriteString(` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`)
	sb.WriteString(` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	fmt.Fprintf(&sb, `<p:cSld name=%q><p:spTree>`, layout.Name)
	sb.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)

	for i, placeholder := range layout.Placeholders {
		fmt.Fprintf(&sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name=%q/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph`,
			i+2, placeholder.Name)

		if placeholder.Type != "" {
			fmt.Fprintf(&sb, ` type=%q`, placeholder.Type)
		}

		if placeholder.Idx != "" {
			fmt.Fprintf(&sb, ` idx=%q`, placeholder.Idx)
		}

		sb.WriteString(`/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/><a:p/></p:txBody></p:sp>`)
	}

	sb.WriteString(`</p:spTree></p:cSld></p:sldLayout>`)

	return sb.String()
}
