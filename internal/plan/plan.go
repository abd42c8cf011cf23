// Package plan defines the content plan: the JSON document that maps slide
// content onto template layouts. Plans come from the outline generator or are
// written by hand; either way Parse is the single entry point.
package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrPlanParse indicates the plan document is not valid JSON or does not have
// the expected shape.
var ErrPlanParse = errors.New("content plan parse failed")

// Plan is an ordered list of slide entries.
type Plan struct {
	Entries []Entry
}

// Entry describes one slide: which layout to use and what to put on it.
type Entry struct {
	LayoutIndex int     `json:"layout_index"`
	Title       string  `json:"title"`
	Content     Content `json:"content"`
	Notes       string  `json:"notes,omitempty"`
}

// Content is either a single string or a list of bullet strings. Both shapes
// appear in generated plans, so the distinction is preserved through JSON.
type Content struct {
	items  []string
	isList bool
}

// NewText makes a single-string content value.
func NewText(text string) Content {
	return Content{items: []string{text}, isList: false}
}

// NewList makes a bullet-list content value.
func NewList(items ...string) Content {
	return Content{items: items, isList: true}
}

// Items returns the content as a slice: one element for a single string, one
// element per bullet for a list.
func (c Content) Items() []string {
	return c.items
}

// IsList reports whether the content was a JSON array.
func (c Content) IsList() bool {
	return c.isList
}

// IsEmpty reports whether there is nothing to render.
func (c Content) IsEmpty() bool {
	if len(c.items) == 0 {
		return true
	}

	return !c.isList && c.items[0] == ""
}

// UnmarshalJSON accepts either a string or an array of strings.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []string

		err := json.Unmarshal(trimmed, &items)
		if err != nil {
			return fmt.Errorf("content list: %w", err)
		}

		c.items = items
		c.isList = true

		return nil
	}

	var text string

	err := json.Unmarshal(trimmed, &text)
	if err != nil {
		return fmt.Errorf("content text: %w", err)
	}

	c.items = []string{text}
	c.isList = false

	return nil
}

// MarshalJSON reproduces the original shape: string stays string, list stays
// list.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.isList {
		items := c.items
		if items == nil {
			items = []string{}
		}

		data, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("marshal content list: %w", err)
		}

		return data, nil
	}

	text := ""
	if len(c.items) > 0 {
		text = c.items[0]
	}

	data, err := json.Marshal(text)
	if err != nil {
		return nil, fmt.Errorf("marshal content text: %w", err)
	}

	return data, nil
}

// Parse decodes a plan document. The expected shape is a bare JSON array of
// entries; a surrounding object with a "slides" key is also accepted. When the
// document carries prose around the array (models do this), the region between
// the first '[' and the last ']' is retried before giving up.
func Parse(data []byte) (*Plan, error) {
	entries, err := decodeEntries(data)
	if err == nil {
		return &Plan{Entries: entries}, nil
	}

	recovered, ok := sliceToArray(data)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrPlanParse, err)
	}

	entries, retryErr := decodeEntries(recovered)
	if retryErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlanParse, retryErr)
	}

	return &Plan{Entries: entries}, nil
}

func decodeEntries(data []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Slides []Entry `json:"slides"`
		}

		err := json.Unmarshal(trimmed, &wrapped)
		if err != nil {
			return nil, fmt.Errorf("decode wrapped plan: %w", err)
		}

		return wrapped.Slides, nil
	}

	var entries []Entry

	err := json.Unmarshal(trimmed, &entries)
	if err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	return entries, nil
}

// sliceToArray carves out the outermost JSON array from a noisy document.
func sliceToArray(data []byte) ([]byte, bool) {
	start := bytes.IndexByte(data, '[')
	end := bytes.LastIndexByte(data, ']')

	if start < 0 || end <= start {
		return nil, false
	}

	return data[start : end+1], true
}
