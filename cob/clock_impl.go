package cob

// SystemClock and MockClock implement the Clock capability on top of
// github.com/benbjohnson/clock, the injectable-clock library the teacher's
// go.mod carries only as a transitive libp2p dependency — promoted here to a
// direct one so production code and deterministic tests share one clock
// abstraction.

import (
	"time"

	"github.com/benbjohnson/clock"
)

func secondsDuration(secs uint64) time.Duration {
	return time.Duration(secs) * time.Second
}

// SystemClock reads real wall-clock time.
type SystemClock struct {
	inner clock.Clock
}

// NewSystemClock constructs a Clock backed by the real system clock.
func NewSystemClock() *SystemClock {
	return &SystemClock{inner: clock.New()}
}

// Now returns the current time as a Physical timestamp.
func (c *SystemClock) Now() Physical {
	return NewPhysical(uint64(c.inner.Now().Unix()))
}

// MockClock is a deterministic, manually-advanced Clock for tests —
// replacing the real clock with github.com/benbjohnson/clock's Mock so
// timestamp-dependent behavior can be replayed identically without sleeping.
type MockClock struct {
	inner *clock.Mock
}

// NewMockClock constructs a MockClock starting at the Unix epoch.
func NewMockClock() *MockClock {
	return &MockClock{inner: clock.NewMock()}
}

// Now returns the mock's current time as a Physical timestamp.
func (c *MockClock) Now() Physical {
	return NewPhysical(uint64(c.inner.Now().Unix()))
}

// Advance moves the mock clock forward by secs seconds.
func (c *MockClock) Advance(secs uint64) {
	c.inner.Add(secondsDuration(secs))
}
