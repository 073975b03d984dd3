package model

import "time"

// EventKind names a journaled action outcome.
type EventKind string

const (
	EventHatch         EventKind = "hatch"
	EventFeed          EventKind = "feed"
	EventFavorite      EventKind = "favorite"
	EventStarved       EventKind = "starved"
	EventStarvation    EventKind = "starvation"
	EventSave          EventKind = "save"
	EventLoad          EventKind = "load"
	EventEmergencyExit EventKind = "emergency_exit"
	EventShutdown      EventKind = "shutdown"
)

// ValidEventKinds are the kinds accepted by the journal.
var ValidEventKinds = map[EventKind]bool{
	EventHatch:         true,
	EventFeed:          true,
	EventFavorite:      true,
	EventStarved:       true,
	EventStarvation:    true,
	EventSave:          true,
	EventLoad:          true,
	EventEmergencyExit: true,
	EventShutdown:      true,
}

// Event is one journal entry. For starvation events GrantedBytes holds the
// bytes the pet lost.
type Event struct {
	ID             string    `json:"id"`
	Kind           EventKind `json:"kind"`
	Personality    string    `json:"personality"`
	RequestedBytes uint64    `json:"requested_bytes,omitempty"`
	GrantedBytes   uint64    `json:"granted_bytes,omitempty"`
	Hunger         float64   `json:"hunger"`
	CommittedBytes uint64    `json:"committed_bytes"`
	Note           string    `json:"note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
