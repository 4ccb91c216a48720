package machine

import (
	"time"

	"github.com/google/uuid"
)

// EventKind separates operator-entered notes from engine-generated entries.
type EventKind string

const (
	EventManual EventKind = "manual"
	EventSystem EventKind = "system"
)

// Event is one entry of a machine's history. Events are immutable once
// appended; the history is unbounded here and paginated by the store.
type Event struct {
	ID          uuid.UUID
	Kind        EventKind
	Description string
	CreatedAt   time.Time
}

func newSystemEvent(description string, now time.Time) Event {
	return Event{
		ID:          uuid.New(),
		Kind:        EventSystem,
		Description: description,
		CreatedAt:   now.UTC(),
	}
}
