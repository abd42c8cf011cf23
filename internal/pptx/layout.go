package pptx

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
)

// Placeholder describes one placeholder declared on a layout: where content
// may go, not content itself. Kind is template-defined (title, body, pic, ...).
type Placeholder struct {
	Index int
	Kind  string
	Name  string

	// Raw attribute values as they appeared in the layout, preserved so slide
	// placeholders can repeat them exactly and inherit geometry and styling.
	rawType string
	rawIdx  string
}

// Layout is a read-only slide blueprint. Index is the stable 0-based position
// in the template's layout sequence.
type Layout struct {
	Index        int
	Name         string
	Placeholders []Placeholder

	partName string
}

// textCapableKinds are the placeholder kinds whose slide instances carry an
// editable text container. Everything else (pictures, tables, charts, media)
// stays untouched on generated slides.
var textCapableKinds = map[string]bool{
	"":         true, // absent type means body per the OOXML default
	"body":     true,
	"title":    true,
	"ctrTitle": true,
	"subTitle": true,
	"obj":      true,
}

// chromeKinds are date/footer/slide-number/header placeholders. Following
// python-pptx, these are never cloned onto generated slides.
var chromeKinds = map[string]bool{
	"dt":     true,
	"ftr":    true,
	"sldNum": true,
	"hdr":    true,
}

// parseLayouts resolves the layout sequence from the first slide master's
// layout-id list, which is the native ordering presentation tools expose.
func (t *Template) parseLayouts(presentation *presentationDocument) error {
	masterPart, err := t.resolveRelationTarget(t.presRels, path.Dir(t.presPartName), presentation.MasterIDs[0].RelationshipID)
	if err != nil {
		return fmt.Errorf("%w: resolve slide master: %w", ErrTemplateLoad, err)
	}

	masterData, ok := t.parts[masterPart]
	if !ok {
		return fmt.Errorf("%w: missing part %s", ErrTemplateLoad, masterPart)
	}

	var master masterDocument

	err = xml.Unmarshal(masterData, &master)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrTemplateLoad, masterPart, err)
	}

	masterRels, err := t.parseRelationshipsPart(relsPartNameFor(masterPart))
	if err != nil {
		return fmt.Errorf("%w: slide master relationships: %w", ErrTemplateLoad, err)
	}

	for _, layoutID := range master.LayoutIDs {
		layoutPart, resolveErr := t.resolveRelationTarget(masterRels, path.Dir(masterPart), layoutID.RelationshipID)
		if resolveErr != nil {
			return fmt.Errorf("%w: resolve layout: %w", ErrTemplateLoad, resolveErr)
		}

		layout, parseErr := t.parseLayout(len(t.layouts), layoutPart)
		if parseErr != nil {
			return parseErr
		}

		t.layouts = append(t.layouts, layout)
	}

	return nil
}

func (t *Template) resolveRelationTarget(rels *relationships, baseDir, relationID string) (string, error) {
	for _, rel := range rels.Items {
		if rel.ID == relationID {
			return resolvePartName(baseDir, rel.Target), nil
		}
	}

	return "", fmt.Errorf("relationship %s not found", relationID)
}

func (t *Template) parseLayout(index int, partName string) (*Layout, error) {
	data, ok := t.parts[partName]
	if !ok {
		return nil, fmt.Errorf("%w: missing part %s", ErrTemplateLoad, partName)
	}

	var document layoutDocument

	err := xml.Unmarshal(data, &document)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrTemplateLoad, partName, err)
	}

	layout := &Layout{
		Index:    index,
		Name:     document.CommonSlideData.Name,
		partName: partName,
	}

	if layout.Name == "" {
		layout.Name = layoutDisplayNameFromPart(partName)
	}

	for _, shape := range document.CommonSlideData.Shapes {
		ph := shape.NonVisual.Placeholder
		if ph == nil {
			continue // plain shape, not a placeholder declaration
		}

		placeholder := Placeholder{
			Kind:    ph.Type,
			Name:    shape.NonVisual.Properties.Name,
			rawType: ph.Type,
			rawIdx:  ph.Idx,
		}

		if placeholder.Kind == "" {
			placeholder.Kind = "body"
		}

		if ph.Idx != "" {
			if n, convErr := strconv.Atoi(ph.Idx); convErr == nil {
				placeholder.Index = n
			}
		}

		layout.Placeholders = append(layout.Placeholders, placeholder)
	}

	return layout, nil
}

func layoutDisplayNameFromPart(partName string) string {
	base := path.Base(partName)

	return base[:len(base)-len(path.Ext(base))]
}

// textCapable reports whether a slide instantiated from this layout would give
// the placeholder an editable text container.
func (p Placeholder) textCapable() bool {
	return textCapableKinds[p.rawType] && !chromeKinds[p.rawType]
}
