package domain

import "errors"

// Sentinel errors shared by repositories and services.
var (
	// ErrNotFound is returned when the requested event or registration does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEventCodeTaken is returned when an event with the same code already exists.
	ErrEventCodeTaken = errors.New("event code already exists")

	// ErrAlreadyRegistered is returned when the user already holds a registration for the event.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrInvalidInput is returned when the request is malformed (bad code, title or room link).
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when a non-administrator invokes an administrator command.
	ErrForbidden = errors.New("forbidden")

	// ErrNoRegistrants is returned by reports for events without registrations.
	ErrNoRegistrants = errors.New("no registrants")
)
