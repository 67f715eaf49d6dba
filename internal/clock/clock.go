package clock

import "time"

// Clock abstracts time for services that need deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real wall-clock time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FakeClock returns a fixed instant and can be advanced manually.
type FakeClock struct {
	Current time.Time
}

func (c *FakeClock) Now() time.Time { return c.Current }

// Advance moves the fake clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
