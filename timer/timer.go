// timer/timer.go
package timer

import (
	"time"
)

// Countdown is the per-turn clock. Arming it replaces any previous deadline, so at most
// one countdown is ever live. It holds no goroutine: the owner polls Expired on its own
// cadence, which keeps expiry on the same serialized path as every other mutation.
type Countdown struct {
	duration time.Duration
	deadline time.Time
	active   bool
}

func NewCountdown(duration time.Duration) *Countdown {
	return &Countdown{duration: duration}
}

// Arm starts a fresh countdown ending one duration after now.
func (c *Countdown) Arm(now time.Time) {
	c.deadline = now.Add(c.duration)
	c.active = true
}

// Stop disarms the countdown.
func (c *Countdown) Stop() {
	c.active = false
	c.deadline = time.Time{}
}

func (c *Countdown) Active() bool {
	return c.active
}

func (c *Countdown) Duration() time.Duration {
	return c.duration
}

// Deadline returns the current deadline and whether one is armed.
func (c *Countdown) Deadline() (time.Time, bool) {
	return c.deadline, c.active
}

// Expired reports whether an armed countdown has reached its deadline.
func (c *Countdown) Expired(now time.Time) bool {
	return c.active && !now.Before(c.deadline)
}

// Remaining is the whole seconds left, rounded up and clamped at zero.
// A disarmed countdown reports its full duration.
func (c *Countdown) Remaining(now time.Time) int {
	if !c.active {
		return ceilSeconds(c.duration)
	}
	left := c.deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return ceilSeconds(left)
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
