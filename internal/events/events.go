package events

import (
	"encoding/json"
	"time"

	"github.com/book-expert/deck-builder-service/internal/assemble"
)

// EventHeader contains metadata common to all events.
type EventHeader struct {
	Timestamp  time.Time `json:"Timestamp"`
	WorkflowID string    `json:"WorkflowID"`
	UserID     string    `json:"UserID"`
	TenantID   string    `json:"TenantID"`
	EventID    string    `json:"EventID"`
}

// DeckRequestedEvent asks the service to build a deck. TemplateKey names the
// template object in the template bucket. When Plan is present it is used as
// the content plan verbatim and no outline is generated.
type DeckRequestedEvent struct {
	Header       EventHeader     `json:"Header"`
	TemplateKey  string          `json:"TemplateKey"`
	Topic        string          `json:"Topic,omitempty"`
	SlideCount   int             `json:"SlideCount,omitempty"`
	Instructions string          `json:"Instructions,omitempty"`
	Plan         json.RawMessage `json:"Plan,omitempty"`
}

// DeckCreatedEvent is published after a deck has been stored. Skipped and
// Warnings carry the assembly report so downstream consumers can surface
// partial results.
type DeckCreatedEvent struct {
	Header      EventHeader           `json:"Header"`
	TemplateKey string                `json:"TemplateKey"`
	DeckKey     string                `json:"DeckKey"`
	SlideCount  int                   `json:"SlideCount"`
	Skipped     []assemble.SkipReason `json:"Skipped,omitempty"`
	Warnings    []assemble.Warning    `json:"Warnings,omitempty"`
}
