package timing

import (
	"math"
	"time"
)

// ElapsedMinutes returns the elapsed time between start and end in minutes,
// computed from whole seconds so sub-minute precision survives but sub-second
// noise does not. The result is deliberately unrounded; callers pick the
// rounding policy. A negative value means end precedes start and must be
// clamped by the caller.
func ElapsedMinutes(start, end time.Time) float64 {
	return float64(end.Sub(start)/time.Second) / 60.0
}

// Round2 rounds a minute value to two decimal places, the storage precision
// for session and activity durations.
func Round2(minutes float64) float64 {
	return math.Round(minutes*100) / 100
}

// System is the wall clock used outside of tests.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}
