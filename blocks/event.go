package blocks

import "fmt"

// EventKind classifies a workspace change notification.
type EventKind int

const (
	// Structural edits. These change what the program compiles to (or may).
	EventCreate EventKind = iota
	EventDelete
	EventChange
	EventMove
	EventLoad

	// UI-only notifications. These never change the compiled program.
	EventSelected
	EventViewport
	EventClick
)

var eventKindNames = map[EventKind]string{
	EventCreate:   "create",
	EventDelete:   "delete",
	EventChange:   "change",
	EventMove:     "move",
	EventLoad:     "load",
	EventSelected: "selected",
	EventViewport: "viewport",
	EventClick:    "click",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", k)
}

// Event is a change notification emitted by a Workspace.
type Event struct {
	Kind    EventKind
	BlockID string
}

// Structural reports whether the event describes an edit to program
// structure, as opposed to a cosmetic UI notification.
func (e Event) Structural() bool {
	return e.Kind < EventSelected
}

func (e Event) String() string {
	if e.BlockID == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.BlockID)
}

// Listener receives workspace change notifications.
type Listener func(Event)
