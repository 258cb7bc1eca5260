package uuidx

import "github.com/google/uuid"

// New returns a fresh version 7 UUID. It panics if generation fails,
// which only happens when the system entropy source is broken.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a fresh version 7 UUID in its canonical string form.
// Session and runtime identifiers throughout this module use it so that
// identifiers sort roughly by creation time.
func NewString() string {
	return New().String()
}
