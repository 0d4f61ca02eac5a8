package booking

import "errors"

// Store-level failures shared by the pgx and in-memory appointment stores.
// Everything else in the booking flow is a recoverable dialog branch.
var (
	// ErrSlotUnavailable is returned when the requested slot already has an
	// active appointment, including the case of losing a commit race.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrNotFound is returned for lookups of unknown appointments, students
	// or advisors.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a student operates on an appointment
	// that belongs to someone else.
	ErrForbidden = errors.New("forbidden")
)
