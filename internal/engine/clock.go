package engine

import "time"

// Clock supplies the wall time that callers pass to engine operations.
//
// The engine never reads the time itself; every mutating operation takes
// "now" as an argument so tests can place it exactly on a boundary.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system wall clock in UTC.
//
// Thread-safety: SystemClock is stateless and safe for concurrent use.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
