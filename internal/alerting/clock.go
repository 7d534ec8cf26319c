package alerting

import "time"

// Clock is the time source for elapsed-minute computation and resolution stamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the current UTC time.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
