package http

import (
	"net/http"
	"time"
)

// Clock provides the time used for the Date header.
type Clock interface {
	Now() time.Time
}

// SystemClock uses the system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time {
	return time.Time(c)
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return fixedClock(t)
}

// setDate sets the Date header from clock unless one is present.
func setDate(hdr http.Header, clock Clock) {
	if hdr.Get("Date") != "" {
		return
	}
	hdr.Set("Date", clock.Now().UTC().Format(http.TimeFormat))
}
