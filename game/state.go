// game/state.go
package game

import (
	"github.com/wfunc/escapeplan/board"
)

// Role is one of the two playable sides.
type Role string

const (
	Warden   Role = "warden"
	Prisoner Role = "prisoner"
)

// Roles lists both roles in a fixed order.
var Roles = [2]Role{Warden, Prisoner}

func (r Role) Valid() bool {
	return r == Warden || r == Prisoner
}

// Other returns the opposing role.
func (r Role) Other() Role {
	if r == Warden {
		return Prisoner
	}
	return Warden
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Scores is the win ledger. It survives board regeneration and is cleared only by a full reset.
type Scores struct {
	Warden   int `json:"warden"`
	Prisoner int `json:"prisoner"`
}

func (s Scores) Of(r Role) int {
	if r == Warden {
		return s.Warden
	}
	return s.Prisoner
}

func (s *Scores) add(r Role) {
	if r == Warden {
		s.Warden++
	} else {
		s.Prisoner++
	}
}

// State is the single source of truth for a running game. Readers use the exported
// accessors; only the engine and turn controller mutate it.
type State struct {
	board    *board.Board
	warden   board.Cell
	prisoner board.Cell
	turn     Role
	scores   Scores
}

func (s *State) Board() *board.Board {
	return s.board
}

func (s *State) Position(r Role) board.Cell {
	if r == Warden {
		return s.warden
	}
	return s.prisoner
}

// Positions returns a copy of the role-to-cell map.
func (s *State) Positions() map[Role]board.Cell {
	return map[Role]board.Cell{
		Warden:   s.warden,
		Prisoner: s.prisoner,
	}
}

// Turn is the role whose move is awaited.
func (s *State) Turn() Role {
	return s.turn
}

func (s *State) Scores() Scores {
	return s.scores
}

func (s *State) setLayout(l board.Layout) {
	s.board = l.Board
	s.warden = l.Warden
	s.prisoner = l.Prisoner
	if l.WardenFirst {
		s.turn = Warden
	} else {
		s.turn = Prisoner
	}
}

func (s *State) setPosition(r Role, c board.Cell) {
	if r == Warden {
		s.warden = c
	} else {
		s.prisoner = c
	}
}

func (s *State) setTurn(r Role) {
	s.turn = r
}
