package clock

import (
	"time"
)

// Clock is the single time source for a component; one logical operation
// must call it once and reuse the value
type Clock func() time.Time

// System returns the current UTC time
func System() time.Time {
	return time.Now().UTC()
}

// Fixed returns a clock that always reports t
func Fixed(t time.Time) Clock {
	return func() time.Time {
		return t
	}
}

// Days converts a number of whole days to a duration
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
