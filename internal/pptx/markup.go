package pptx

import (
	"encoding/xml"
	"fmt"
)

// OOXML namespace URIs and relationship types used by the presentation package
// structure. Only the parts this service reads or writes are listed.
const (
	namespaceDrawingML      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	namespacePresentationML = "http://schemas.openxmlformats.org/presentationml/2006/main"
	namespaceRelationships  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relationshipTypeOfficeDocument = namespaceRelationships + "/officeDocument"
	relationshipTypeSlide          = namespaceRelationships + "/slide"
	relationshipTypeSlideLayout    = namespaceRelationships + "/slideLayout"
	relationshipTypeSlideMaster    = namespaceRelationships + "/slideMaster"
	relationshipTypeNotesMaster    = namespaceRelationships + "/notesMaster"
	relationshipTypeNotesSlide     = namespaceRelationships + "/notesSlide"

	contentTypeSlide      = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	contentTypeNotesSlide = "application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"

	contentTypesPartName = "[Content_Types].xml"
	packageRelsPartName  = "_rels/.rels"

	xmlHeader = "<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"yes\"?>\n"
)

// relationships models a .rels part. The schema is small enough to round-trip
// through a full parse and re-marshal without losing anything.
type relationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	Xmlns   string         `xml:"xmlns,attr"`
	Items   []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// contentTypes models [Content_Types].xml. Like .rels it is fully round-tripped.
type contentTypes struct {
	XMLName   xml.Name          `xml:"Types"`
	Xmlns     string            `xml:"xmlns,attr"`
	Defaults  []contentDefault  `xml:"Default"`
	Overrides []contentOverride `xml:"Override"`
}

type contentDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// presentationDocument is a read-only projection of ppt/presentation.xml.
// It is never marshalled back; the slide-id list is spliced at the byte level
// so attributes and extensions the template carries are preserved verbatim.
type presentationDocument struct {
	MasterIDs []presentationIDEntry `xml:"sldMasterIdLst>sldMasterId"`
	SlideIDs  []presentationIDEntry `xml:"sldIdLst>sldId"`
}

// presentationIDEntry carries both the unqualified id attribute and the
// r:id relationship reference.
type presentationIDEntry struct {
	RelationshipID string
	ID             string
}

// UnmarshalXML matches the two attributes by namespace explicitly. The struct
// tags cannot express this: a tag without a namespace matches attributes in
// any namespace, so r:id would clobber the unqualified id.
func (e *presentationIDEntry) UnmarshalXML(decoder *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch {
		case attr.Name.Space == "" && attr.Name.Local == "id":
			e.ID = attr.Value
		case attr.Name.Space == namespaceRelationships && attr.Name.Local == "id":
			e.RelationshipID = attr.Value
		}
	}

	err := decoder.Skip()
	if err != nil {
		return fmt.Errorf("skip element %s: %w", start.Name.Local, err)
	}

	return nil
}

// masterDocument is a read-only projection of a slide master part. The
// sldLayoutIdLst order defines the template's layout sequence.
type masterDocument struct {
	LayoutIDs []presentationIDEntry `xml:"sldLayoutIdLst>sldLayoutId"`
}

// layoutDocument is a read-only projection of a slide layout part.
type layoutDocument struct {
	CommonSlideData struct {
		Name   string `xml:"name,attr"`
		Shapes []struct {
			NonVisual struct {
				Properties struct {
					Name string `xml:"name,attr"`
				} `xml:"cNvPr"`
				Placeholder *struct {
					Type string `xml:"type,attr"`
					Idx  string `xml:"idx,attr"`
				} `xml:"nvPr>ph"`
			} `xml:"nvSpPr"`
		} `xml:"spTree>sp"`
	} `xml:"cSld"`
}

// The structs below are marshal-only. encoding/xml has no native prefix
// support, so element names carry their prefixes literally and the root
// declares the namespaces as plain attributes. PowerPoint accepts this form.

type slideMarkup struct {
	XMLName          xml.Name               `xml:"p:sld"`
	XmlnsA           string                 `xml:"xmlns:a,attr"`
	XmlnsR           string                 `xml:"xmlns:r,attr"`
	XmlnsP           string                 `xml:"xmlns:p,attr"`
	CommonSlideData  commonSlideMarkup      `xml:"p:cSld"`
	ColorMapOverride colorMapOverrideMarkup `xml:"p:clrMapOvr"`
}

type notesMarkup struct {
	XMLName          xml.Name               `xml:"p:notes"`
	XmlnsA           string                 `xml:"xmlns:a,attr"`
	XmlnsR           string                 `xml:"xmlns:r,attr"`
	XmlnsP           string                 `xml:"xmlns:p,attr"`
	CommonSlideData  commonSlideMarkup      `xml:"p:cSld"`
	ColorMapOverride colorMapOverrideMarkup `xml:"p:clrMapOvr"`
}

type colorMapOverrideMarkup struct {
	MasterColorMapping struct{} `xml:"a:masterClrMapping"`
}

type commonSlideMarkup struct {
	ShapeTree shapeTreeMarkup `xml:"p:spTree"`
}

type shapeTreeMarkup struct {
	NonVisualGroup nonVisualGroupMarkup `xml:"p:nvGrpSpPr"`
	GroupProps     struct{}             `xml:"p:grpSpPr"`
	Shapes         []shapeMarkup        `xml:"p:sp"`
}

type nonVisualGroupMarkup struct {
	Properties      idNameMarkup `xml:"p:cNvPr"`
	GroupProperties struct{}     `xml:"p:cNvGrpSpPr"`
	AppProperties   struct{}     `xml:"p:nvPr"`
}

type idNameMarkup struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type shapeMarkup struct {
	NonVisual  nonVisualShapeMarkup `xml:"p:nvSpPr"`
	Properties struct{}             `xml:"p:spPr"`
	TextBody   textBodyMarkup       `xml:"p:txBody"`
}

type nonVisualShapeMarkup struct {
	Properties      idNameMarkup         `xml:"p:cNvPr"`
	ShapeProperties shapeLockMarkup      `xml:"p:cNvSpPr"`
	AppProperties   placeholderRefMarkup `xml:"p:nvPr"`
}

type shapeLockMarkup struct {
	Locks groupLockMarkup `xml:"a:spLocks"`
}

type groupLockMarkup struct {
	NoGroup string `xml:"noGrp,attr"`
}

type placeholderRefMarkup struct {
	Placeholder placeholderMarkup `xml:"p:ph"`
}

type placeholderMarkup struct {
	Type string `xml:"type,attr,omitempty"`
	Idx  string `xml:"idx,attr,omitempty"`
}

type textBodyMarkup struct {
	BodyProperties struct{}          `xml:"a:bodyPr"`
	ListStyle      struct{}          `xml:"a:lstStyle"`
	Paragraphs     []paragraphMarkup `xml:"a:p"`
}

type paragraphMarkup struct {
	Properties *paragraphPropsMarkup `xml:"a:pPr"`
	Runs       []runMarkup           `xml:"a:r"`
}

type paragraphPropsMarkup struct {
	Level int `xml:"lvl,attr"`
}

type runMarkup struct {
	Properties *runPropsMarkup `xml:"a:rPr"`
	Text       string          `xml:"a:t"`
}

type runPropsMarkup struct {
	Language       string `xml:"lang,attr,omitempty"`
	SizeHundredths int    `xml:"sz,attr,omitempty"`
	Dirty          string `xml:"dirty,attr,omitempty"`
}
