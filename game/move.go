// game/move.go
package game

import (
	"errors"
	"time"

	"github.com/wfunc/escapeplan/board"
)

// Reasons a move is refused. A refused move leaves the state untouched.
var (
	ErrNoActiveTurn    = errors.New("no active turn")
	ErrNotYourTurn     = errors.New("not this role's turn")
	ErrNotAdjacent     = errors.New("target is not adjacent")
	ErrBlocked         = errors.New("target is an obstacle")
	ErrTunnelForbidden = errors.New("only the prisoner may enter the tunnel")
)

// Win causes.
const (
	CauseCapture = "capture"
	CauseEscape  = "escape"
)

// WinEvent describes a finished round.
type WinEvent struct {
	Winner    Role
	Cause     string
	Scores    Scores
	Round     int
	Moves     int
	Timeouts  int
	StartedAt time.Time
	EndedAt   time.Time
	// Board and final positions of the round that just ended.
	Board    *board.Board
	Warden   board.Cell
	Prisoner board.Cell
}

// ApplyMove validates and applies role's step to target. A nil error with a nil event is an
// ordinary move: the turn passes to the other role. A non-nil event means the round was won,
// the ledger updated and a fresh board installed with a new turn running.
func (e *Engine) ApplyMove(role Role, target board.Cell, now time.Time) (*WinEvent, error) {
	s := e.state
	if !e.turns.Active() {
		return nil, ErrNoActiveTurn
	}
	if role != s.Turn() {
		return nil, ErrNotYourTurn
	}
	if !board.Adjacent(s.Position(role), target) || !s.board.InBounds(target) {
		return nil, ErrNotAdjacent
	}
	terrain := s.board.At(target)
	if terrain == board.Obstacle {
		return nil, ErrBlocked
	}
	if terrain == board.Tunnel && role != Prisoner {
		return nil, ErrTunnelForbidden
	}

	s.setPosition(role, target)
	e.moves++

	switch {
	case s.warden == s.prisoner:
		return e.win(Warden, CauseCapture, now), nil
	case s.prisoner == s.board.Tunnel():
		return e.win(Prisoner, CauseEscape, now), nil
	}

	e.turns.Pass(now)
	return nil, nil
}

func (e *Engine) win(winner Role, cause string, now time.Time) *WinEvent {
	s := e.state
	s.scores.add(winner)

	ev := &WinEvent{
		Winner:    winner,
		Cause:     cause,
		Scores:    s.scores,
		Round:     e.round,
		Moves:     e.moves,
		Timeouts:  e.timeouts,
		StartedAt: e.roundStarted,
		EndedAt:   now,
		Board:     s.board,
		Warden:    s.warden,
		Prisoner:  s.prisoner,
	}

	e.NewRound(now)
	return ev
}
