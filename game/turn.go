// game/turn.go
package game

import (
	"time"

	"github.com/wfunc/escapeplan/timer"
)

// TurnController owns the per-turn countdown and hands the turn over on a move or on expiry.
type TurnController struct {
	state     *State
	countdown *timer.Countdown
}

func NewTurnController(state *State, duration time.Duration) *TurnController {
	return &TurnController{
		state:     state,
		countdown: timer.NewCountdown(duration),
	}
}

// Start arms a fresh countdown for the current owner, replacing any running one.
func (t *TurnController) Start(now time.Time) {
	t.countdown.Arm(now)
}

// Pass hands the turn to the other role and re-arms the countdown.
func (t *TurnController) Pass(now time.Time) {
	t.state.setTurn(t.state.Turn().Other())
	t.countdown.Arm(now)
}

// Expire passes the turn if the deadline has been reached. It reports whether it did.
func (t *TurnController) Expire(now time.Time) bool {
	if !t.countdown.Expired(now) {
		return false
	}
	t.Pass(now)
	return true
}

// Halt disarms the countdown; no turn is active afterwards.
func (t *TurnController) Halt() {
	t.countdown.Stop()
}

func (t *TurnController) Active() bool {
	return t.countdown.Active()
}

func (t *TurnController) Remaining(now time.Time) int {
	return t.countdown.Remaining(now)
}

func (t *TurnController) Deadline() (time.Time, bool) {
	return t.countdown.Deadline()
}
