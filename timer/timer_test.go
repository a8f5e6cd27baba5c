package timer

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestCountdown_ArmAndExpire(t *testing.T) {
	c := NewCountdown(10 * time.Second)

	if c.Active() {
		t.Fatal("New countdown should not be active")
	}
	if c.Expired(t0.Add(time.Hour)) {
		t.Fatal("Disarmed countdown must never expire")
	}

	c.Arm(t0)
	deadline, ok := c.Deadline()
	if !ok || !deadline.Equal(t0.Add(10*time.Second)) {
		t.Fatalf("Expected deadline t0+10s, got %v (armed=%v)", deadline, ok)
	}
	if c.Expired(t0.Add(9999 * time.Millisecond)) {
		t.Error("Countdown expired before its deadline")
	}
	if !c.Expired(t0.Add(10 * time.Second)) {
		t.Error("Countdown should expire exactly at its deadline")
	}
}

func TestCountdown_RearmReplaces(t *testing.T) {
	c := NewCountdown(10 * time.Second)
	c.Arm(t0)
	c.Arm(t0.Add(8 * time.Second))

	if c.Expired(t0.Add(10 * time.Second)) {
		t.Error("The first deadline should have been replaced")
	}
	deadline, _ := c.Deadline()
	if !deadline.Equal(t0.Add(18 * time.Second)) {
		t.Errorf("Expected deadline t0+18s, got %v", deadline)
	}
}

func TestCountdown_Remaining(t *testing.T) {
	c := NewCountdown(10 * time.Second)
	if got := c.Remaining(t0); got != 10 {
		t.Errorf("Disarmed countdown should report the full duration, got %d", got)
	}

	c.Arm(t0)
	cases := []struct {
		at   time.Duration
		want int
	}{
		{0, 10},
		{100 * time.Millisecond, 10},
		{time.Second, 9},
		{9500 * time.Millisecond, 1},
		{10 * time.Second, 0},
		{time.Minute, 0},
	}
	for _, tc := range cases {
		if got := c.Remaining(t0.Add(tc.at)); got != tc.want {
			t.Errorf("Remaining at +%v: expected %d, got %d", tc.at, tc.want, got)
		}
	}

	c.Stop()
	if c.Active() {
		t.Error("Stop should disarm the countdown")
	}
}
