package keyx

import "time"

// Clock supplies the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the host clock in UTC so that every replica agrees on
// ISO week boundaries regardless of the host time zone.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
