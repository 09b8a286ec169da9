package core

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Handlers take a Clock so tests can pin time.
type Clock func() time.Time

// SystemClock returns the wall clock, normalized with ToTimestamp.
func SystemClock() Clock {
	return func() time.Time {
		return ToTimestamp(time.Now())
	}
}

// FixedClock always returns t, normalized with ToTimestamp.
func FixedClock(t time.Time) Clock {
	return func() time.Time {
		return ToTimestamp(t)
	}
}

// ToTimestamp converts a time to UTC with microsecond precision, the resolution PostgreSQL keeps.
// The MongoDB engine truncates further to milliseconds when it writes.
func ToTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NewID returns a time-ordered UUIDv7, falling back to a random UUIDv4 should the clock source fail.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}

	return id
}
