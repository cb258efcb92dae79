// Package clock provides the wall-clock implementation of ports.Clock.
// Pure engine components never read it directly; "now" is always passed in.
package clock

import "time"

// System reads the wall clock.
type System struct{}

// New returns the system clock.
func New() System { return System{} }

// Now returns the current instant in UTC.
func (System) Now() time.Time { return time.Now().UTC() }
