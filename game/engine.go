// game/engine.go
package game

import (
	"fmt"
	"time"

	"github.com/wfunc/escapeplan/board"
	"github.com/wfunc/escapeplan/logger"
)

// LayoutSource produces boards with pieces placed. *board.Generator implements it.
type LayoutSource interface {
	Generate() (board.Layout, error)
	Place(b *board.Board) board.Layout
}

// Engine bundles the game state, its turn controller and the board source.
// It is not safe for concurrent use; the room loop is its only caller.
type Engine struct {
	state  *State
	turns  *TurnController
	source LayoutSource

	round        int
	roundStarted time.Time
	moves        int
	timeouts     int
	lastAttempts int
}

// NewEngine generates the first board. A generation failure here is a configuration
// error and should stop the process.
func NewEngine(source LayoutSource, turnDuration time.Duration, now time.Time) (*Engine, error) {
	layout, err := source.Generate()
	if err != nil {
		return nil, fmt.Errorf("initial board: %w", err)
	}

	state := &State{}
	e := &Engine{
		state:  state,
		turns:  NewTurnController(state, turnDuration),
		source: source,
	}
	e.install(layout, now)
	return e, nil
}

func (e *Engine) State() *State {
	return e.state
}

// Round is the 1-based number of the board currently in play.
func (e *Engine) Round() int {
	return e.round
}

// LastAttempts is the number of candidates sampled for the current board.
func (e *Engine) LastAttempts() int {
	return e.lastAttempts
}

// StartTurn arms the countdown for the current turn owner.
func (e *Engine) StartTurn(now time.Time) {
	e.turns.Start(now)
}

// Halt stops the countdown; moves are refused until the next StartTurn.
func (e *Engine) Halt() {
	e.turns.Halt()
}

func (e *Engine) TurnActive() bool {
	return e.turns.Active()
}

func (e *Engine) Remaining(now time.Time) int {
	return e.turns.Remaining(now)
}

func (e *Engine) Deadline() (time.Time, bool) {
	return e.turns.Deadline()
}

// ExpireTurn passes the turn when its deadline has been reached, with no move applied.
func (e *Engine) ExpireTurn(now time.Time) bool {
	if !e.turns.Expire(now) {
		return false
	}
	e.timeouts++
	return true
}

// NewRound regenerates the board and positions, keeping the score ledger. If a turn was
// running, a new one starts with the freshly drawn first mover.
func (e *Engine) NewRound(now time.Time) {
	wasActive := e.turns.Active()
	e.turns.Halt()

	layout, err := e.source.Generate()
	if err != nil {
		logger.Log.Errorw("board regeneration failed, reusing current board",
			"round", e.round, "error", err)
		layout = e.source.Place(e.state.board)
		layout.Attempts = 0
	}
	e.install(layout, now)

	if wasActive {
		e.turns.Start(now)
	}
}

// ResetScores clears the ledger and starts a new round: a full restart of the game.
func (e *Engine) ResetScores(now time.Time) {
	e.state.scores = Scores{}
	e.round = 0
	e.NewRound(now)
}

func (e *Engine) install(layout board.Layout, now time.Time) {
	e.state.setLayout(layout)
	e.round++
	e.roundStarted = now
	e.moves = 0
	e.timeouts = 0
	e.lastAttempts = layout.Attempts
}
