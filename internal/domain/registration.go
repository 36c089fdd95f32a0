package domain

import (
	"context"
	"time"
)

// Registration binds one user to one event with the profile captured by the dialogue.
type Registration struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	EventID      int64     `json:"event_id"`
	Username     string    `json:"username,omitempty"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Profession   string    `json:"profession"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewRegistration creates a new Registration. ID and RegisteredAt are set by the repository on create.
func NewRegistration(userID, eventID int64, username, fullName, phone, profession string) *Registration {
	return &Registration{
		UserID:     userID,
		EventID:    eventID,
		Username:   username,
		FullName:   fullName,
		Phone:      phone,
		Profession: profession,
	}
}

// RegistrationWithTitle is a registration joined with the title of its event.
type RegistrationWithTitle struct {
	Registration *Registration `json:"registration"`
	EventTitle   string        `json:"event_title"`
}

// RegistrationRepository defines storage operations for registrations.
type RegistrationRepository interface {
	IsRegistered(ctx context.Context, userID, eventID int64) (bool, error)
	// Create inserts the registration and sets ID and RegisteredAt.
	// The (user_id, event_id) uniqueness constraint is the only arbiter: a
	// duplicate returns ErrAlreadyRegistered and writes nothing.
	Create(ctx context.Context, reg *Registration) error
	CountByEventID(ctx context.Context, eventID int64) (int, error)
	// ListByEventCode returns the registrations of the event ordered by
	// registration time ascending. An unknown code yields an empty slice.
	ListByEventCode(ctx context.Context, code string) ([]*RegistrationWithTitle, error)
}
