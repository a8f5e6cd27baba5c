package game

import (
	"errors"
	"testing"
	"time"

	"github.com/wfunc/escapeplan/board"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

const turnDuration = 10 * time.Second

// stubSource is a test double for LayoutSource returning queued layouts in order.
type stubSource struct {
	layouts []board.Layout
	calls   int
	failAt  int // Generate fails on this call number (1-based); 0 never fails
	placed  int
}

func (s *stubSource) Generate() (board.Layout, error) {
	s.calls++
	if s.failAt != 0 && s.calls >= s.failAt {
		return board.Layout{}, board.ErrUnreachable
	}
	i := s.calls - 1
	if i >= len(s.layouts) {
		i = len(s.layouts) - 1
	}
	return s.layouts[i], nil
}

func (s *stubSource) Place(b *board.Board) board.Layout {
	s.placed++
	return board.Layout{Board: b, Warden: board.Cell{R: 0, C: 0}, Prisoner: board.Cell{R: 4, C: 4}, WardenFirst: true}
}

func mustBoard(t *testing.T, rows ...string) *board.Board {
	t.Helper()
	b, err := board.FromRows(rows...)
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	return b
}

func arena(t *testing.T) *board.Board {
	return mustBoard(t,
		"00000",
		"00000",
		"00T00",
		"0X000",
		"00000",
	)
}

// newTestEngine builds an engine on the arena with the given pieces and an armed turn.
func newTestEngine(t *testing.T, warden, prisoner board.Cell, turn Role) (*Engine, *stubSource) {
	t.Helper()
	first := board.Layout{Board: arena(t), Warden: warden, Prisoner: prisoner, WardenFirst: turn == Warden}
	next := board.Layout{
		Board:       mustBoard(t, "T0000", "00000", "00000", "00000", "0000X"),
		Warden:      board.Cell{R: 1, C: 1},
		Prisoner:    board.Cell{R: 3, C: 3},
		WardenFirst: false,
		Attempts:    3,
	}
	src := &stubSource{layouts: []board.Layout{first, next}}

	e, err := NewEngine(src, turnDuration, t0)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	e.StartTurn(t0)
	return e, src
}

func assertUnchanged(t *testing.T, e *Engine, warden, prisoner board.Cell, turn Role) {
	t.Helper()
	s := e.State()
	if s.Position(Warden) != warden || s.Position(Prisoner) != prisoner {
		t.Errorf("Positions changed: warden %v prisoner %v", s.Position(Warden), s.Position(Prisoner))
	}
	if s.Turn() != turn {
		t.Errorf("Expected turn owner %s, got %s", turn, s.Turn())
	}
	if s.Scores() != (Scores{}) {
		t.Errorf("Scores changed: %+v", s.Scores())
	}
	if e.Round() != 1 {
		t.Errorf("Board was regenerated, round %d", e.Round())
	}
}

func TestApplyMove_PrisonerStepsAside(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Prisoner)

	ev, err := e.ApplyMove(Prisoner, board.Cell{R: 4, C: 3}, t0.Add(2*time.Second))
	if err != nil {
		t.Fatalf("Expected move to be accepted, got %v", err)
	}
	if ev != nil {
		t.Fatalf("Expected no win, got %+v", ev)
	}

	s := e.State()
	if s.Position(Prisoner) != (board.Cell{R: 4, C: 3}) {
		t.Errorf("Expected prisoner at (4,3), got %v", s.Position(Prisoner))
	}
	if s.Turn() != Warden {
		t.Errorf("Expected turn to pass to warden, got %s", s.Turn())
	}
	deadline, ok := e.Deadline()
	if !ok || !deadline.Equal(t0.Add(12*time.Second)) {
		t.Errorf("Expected countdown re-armed to t0+12s, got %v", deadline)
	}
}

func TestApplyMove_NotAdjacent(t *testing.T) {
	w, p := board.Cell{R: 1, C: 1}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Warden)

	for _, target := range []board.Cell{{R: 1, C: 3}, {R: 2, C: 2}, {R: 1, C: 1}, {R: 0, C: 0}} {
		if _, err := e.ApplyMove(Warden, target, t0); !errors.Is(err, ErrNotAdjacent) {
			t.Errorf("Move to %v: expected ErrNotAdjacent, got %v", target, err)
		}
	}
	assertUnchanged(t, e, w, p, Warden)
}

func TestApplyMove_OffBoard(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Warden)

	if _, err := e.ApplyMove(Warden, board.Cell{R: -1, C: 0}, t0); !errors.Is(err, ErrNotAdjacent) {
		t.Errorf("Expected off-board move to be refused, got %v", err)
	}
	assertUnchanged(t, e, w, p, Warden)
}

func TestApplyMove_Obstacle(t *testing.T) {
	w, p := board.Cell{R: 3, C: 0}, board.Cell{R: 0, C: 4}
	e, _ := newTestEngine(t, w, p, Warden)

	if _, err := e.ApplyMove(Warden, board.Cell{R: 3, C: 1}, t0); !errors.Is(err, ErrBlocked) {
		t.Errorf("Expected ErrBlocked, got %v", err)
	}
	assertUnchanged(t, e, w, p, Warden)
}

func TestApplyMove_WardenCannotEnterTunnel(t *testing.T) {
	w, p := board.Cell{R: 2, C: 1}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Warden)

	if _, err := e.ApplyMove(Warden, board.Cell{R: 2, C: 2}, t0); !errors.Is(err, ErrTunnelForbidden) {
		t.Errorf("Expected ErrTunnelForbidden, got %v", err)
	}
	assertUnchanged(t, e, w, p, Warden)
}

func TestApplyMove_WrongTurn(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Warden)

	if _, err := e.ApplyMove(Prisoner, board.Cell{R: 4, C: 3}, t0); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("Expected ErrNotYourTurn, got %v", err)
	}
	assertUnchanged(t, e, w, p, Warden)
}

func TestApplyMove_NoActiveTurn(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Warden)
	e.Halt()

	if _, err := e.ApplyMove(Warden, board.Cell{R: 0, C: 1}, t0); !errors.Is(err, ErrNoActiveTurn) {
		t.Errorf("Expected ErrNoActiveTurn, got %v", err)
	}
	assertUnchanged(t, e, w, p, Warden)
}

func TestApplyMove_WardenCaptures(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 0, C: 1}
	e, src := newTestEngine(t, w, p, Warden)
	now := t0.Add(4 * time.Second)

	ev, err := e.ApplyMove(Warden, p, now)
	if err != nil {
		t.Fatalf("Expected capture to be accepted, got %v", err)
	}
	if ev == nil || ev.Winner != Warden || ev.Cause != CauseCapture {
		t.Fatalf("Expected warden capture, got %+v", ev)
	}
	if ev.Scores != (Scores{Warden: 1}) {
		t.Errorf("Expected warden score 1, got %+v", ev.Scores)
	}
	if ev.Moves != 1 || ev.Round != 1 {
		t.Errorf("Expected round 1 with 1 move, got round %d moves %d", ev.Round, ev.Moves)
	}

	s := e.State()
	if src.calls != 2 || e.Round() != 2 {
		t.Fatalf("Expected a new board after the win, generate calls %d round %d", src.calls, e.Round())
	}
	if s.Board().Tunnel() != (board.Cell{R: 0, C: 0}) {
		t.Errorf("New board not installed, tunnel at %v", s.Board().Tunnel())
	}
	if s.Position(Warden) != (board.Cell{R: 1, C: 1}) || s.Position(Prisoner) != (board.Cell{R: 3, C: 3}) {
		t.Errorf("New positions not installed: %v", s.Positions())
	}
	if s.Turn() != Prisoner {
		t.Errorf("Expected the new layout's first mover, got %s", s.Turn())
	}
	deadline, ok := e.Deadline()
	if !ok || !deadline.Equal(now.Add(turnDuration)) {
		t.Errorf("Expected a fresh turn ending at %v, got %v (armed=%v)", now.Add(turnDuration), deadline, ok)
	}
	if e.LastAttempts() != 3 {
		t.Errorf("Expected attempts from the new layout, got %d", e.LastAttempts())
	}
}

func TestApplyMove_PrisonerMayWalkIntoWarden(t *testing.T) {
	w, p := board.Cell{R: 4, C: 3}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Prisoner)

	ev, err := e.ApplyMove(Prisoner, w, t0)
	if err != nil {
		t.Fatalf("Expected move to be accepted, got %v", err)
	}
	if ev == nil || ev.Winner != Warden {
		t.Fatalf("Expected the warden to win when cells coincide, got %+v", ev)
	}
}

func TestApplyMove_PrisonerEscapes(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 2, C: 3}
	e, _ := newTestEngine(t, w, p, Prisoner)

	ev, err := e.ApplyMove(Prisoner, board.Cell{R: 2, C: 2}, t0)
	if err != nil {
		t.Fatalf("Expected escape to be accepted, got %v", err)
	}
	if ev == nil || ev.Winner != Prisoner || ev.Cause != CauseEscape {
		t.Fatalf("Expected prisoner escape, got %+v", ev)
	}
	if got := e.State().Scores(); got != (Scores{Prisoner: 1}) {
		t.Errorf("Expected prisoner score 1, got %+v", got)
	}
	if e.Round() != 2 || !e.TurnActive() {
		t.Errorf("Expected a new running round, round %d active %v", e.Round(), e.TurnActive())
	}
}

func TestScoresSurviveRounds(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 0, C: 1}
	e, _ := newTestEngine(t, w, p, Warden)

	if _, err := e.ApplyMove(Warden, p, t0); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	e.NewRound(t0)
	if got := e.State().Scores(); got.Warden != 1 {
		t.Errorf("Soft reset must keep the ledger, got %+v", got)
	}

	e.ResetScores(t0)
	if got := e.State().Scores(); got != (Scores{}) {
		t.Errorf("Full reset must clear the ledger, got %+v", got)
	}
	if e.Round() != 1 {
		t.Errorf("Full reset should restart round numbering, got %d", e.Round())
	}
}

func TestExpireTurn_ExactlyOnce(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Warden)

	if e.ExpireTurn(t0.Add(9 * time.Second)) {
		t.Fatal("Turn expired before its deadline")
	}

	expiry := t0.Add(10 * time.Second)
	if !e.ExpireTurn(expiry) {
		t.Fatal("Turn should expire at its deadline")
	}
	if e.State().Turn() != Prisoner {
		t.Errorf("Expected involuntary pass to prisoner, got %s", e.State().Turn())
	}
	deadline, _ := e.Deadline()
	if !deadline.Equal(expiry.Add(turnDuration)) {
		t.Errorf("Expected new deadline one duration later, got %v", deadline)
	}
	if e.ExpireTurn(expiry) {
		t.Error("A second check at the same instant must not pass the turn again")
	}
	if e.State().Position(Warden) != w {
		t.Error("Expiry must not move any piece")
	}
}

func TestMoveAtDeadline_SingleTransition(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Warden)
	expiry := t0.Add(turnDuration)

	// The move is consumed before the tick that would have expired the turn.
	if _, err := e.ApplyMove(Warden, board.Cell{R: 0, C: 1}, expiry); err != nil {
		t.Fatalf("Move at the deadline should still be accepted, got %v", err)
	}
	if e.ExpireTurn(expiry) {
		t.Fatal("Tick after the move must find a fresh deadline")
	}
	if e.State().Turn() != Prisoner {
		t.Errorf("Expected exactly one pass to prisoner, got %s", e.State().Turn())
	}
}

func TestNewRound_WhileHalted(t *testing.T) {
	w, p := board.Cell{R: 0, C: 0}, board.Cell{R: 4, C: 4}
	e, _ := newTestEngine(t, w, p, Warden)
	e.Halt()

	e.NewRound(t0)
	if e.TurnActive() {
		t.Error("NewRound must not start a turn while halted")
	}
	if e.Round() != 2 {
		t.Errorf("Expected round 2, got %d", e.Round())
	}
}

func TestNewRound_GenerationFailureKeepsBoard(t *testing.T) {
	first := board.Layout{Board: arena(t), Warden: board.Cell{R: 1, C: 0}, Prisoner: board.Cell{R: 1, C: 4}}
	src := &stubSource{layouts: []board.Layout{first}, failAt: 2}
	e, err := NewEngine(src, turnDuration, t0)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	old := e.State().Board()

	e.NewRound(t0)
	if e.State().Board() != old {
		t.Error("Expected the previous board to be reused")
	}
	if src.placed != 1 {
		t.Errorf("Expected pieces to be re-placed once, got %d", src.placed)
	}
}

func TestNewEngine_GenerationFailure(t *testing.T) {
	src := &stubSource{failAt: 1}
	if _, err := NewEngine(src, turnDuration, t0); !errors.Is(err, board.ErrUnreachable) {
		t.Fatalf("Expected ErrUnreachable, got %v", err)
	}
}

func TestRoleHelpers(t *testing.T) {
	if Warden.Other() != Prisoner || Prisoner.Other() != Warden {
		t.Error("Other should swap roles")
	}
	if r, ok := ParseRole("prisoner"); !ok || r != Prisoner {
		t.Error("ParseRole should accept prisoner")
	}
	if _, ok := ParseRole("guard"); ok {
		t.Error("ParseRole should reject unknown roles")
	}
}
