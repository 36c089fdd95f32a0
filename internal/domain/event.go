package domain

import (
	"context"
	"strings"
	"time"
)

// Event is a scheduled live stream identified by a public code.
type Event struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	RoomLink  string    `json:"room_link"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent returns a new Event with the given fields. ID and CreatedAt are set by the repository on create.
func NewEvent(code, title, roomLink string) *Event {
	return &Event{
		Code:     strings.TrimSpace(code),
		Title:    strings.TrimSpace(title),
		RoomLink: strings.TrimSpace(roomLink),
	}
}

// EventSummary bundles an event with its current registrant count.
type EventSummary struct {
	Event         *Event `json:"event"`
	Registrations int    `json:"registrations"`
}

// EventRepository defines the interface for event storage.
// Events are append-only: there is no update or delete.
type EventRepository interface {
	// Create inserts the event and sets ID and CreatedAt. Returns ErrEventCodeTaken if the code exists.
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	GetByCode(ctx context.Context, code string) (*Event, error)
	// List returns all events, newest first.
	List(ctx context.Context) ([]*Event, error)
}

// EventService defines administrator operations on events.
type EventService interface {
	CreateEvent(ctx context.Context, code, title, roomLink string) (*Event, error)
	GetEventByCode(ctx context.Context, code string) (*Event, error)
	ListEvents(ctx context.Context) ([]*EventSummary, error)
}
