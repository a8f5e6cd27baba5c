package state

import (
	"errors"
	"sync"

	"github.com/wfunc/escapeplan/board"
	"github.com/wfunc/escapeplan/game"
	"github.com/wfunc/escapeplan/logger"
)

// Phase identifiers.
const (
	WaitingID = "waiting"
	PlayingID = "playing"
)

// StateMachine drives the room through its phases.
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// State is one room phase.
type State interface {
	OnEnter()
	OnExit()
	OnUpdate()
	GetID() string
	HandleMove(player Player, role game.Role, target board.Cell) error
}

var (
	// ErrTransitionNotAllowed is returned when a state transition is not allowed.
	ErrTransitionNotAllowed = errors.New("state transition not allowed")
	// ErrNotPlaying is returned for moves submitted while no turn is running.
	ErrNotPlaying = errors.New("game is not in progress")
)

// BaseStateMachine is a transition-table state machine.
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	if conditions, exists := sm.transitions[currentID]; exists {
		if condition, exists := conditions[newID]; exists {
			if condition != nil && !condition() {
				return ErrTransitionNotAllowed
			}
		}
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// RoomStateBase carries the room a phase belongs to.
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {}

func (s *RoomStateBase) OnExit() {}

func (s *RoomStateBase) OnUpdate() {}

func (s *RoomStateBase) HandleMove(player Player, role game.Role, target board.Cell) error {
	return ErrNotPlaying
}

// WaitingState holds the room until both roles are bound. No countdown runs; the
// heartbeat still publishes snapshots so spectators see the board.
type WaitingState struct {
	RoomStateBase
}

func NewWaitingState(room RoomContext) *WaitingState {
	return &WaitingState{
		RoomStateBase: RoomStateBase{
			ID:   WaitingID,
			Room: room,
		},
	}
}

func (s *WaitingState) OnEnter() {
	s.Room.Engine().Halt()
	logger.Log.Infof("Room %s waiting for players", s.Room.GetID())
}

func (s *WaitingState) OnUpdate() {
	s.Room.BroadcastState()
}

// PlayingState runs turns: it arms the countdown on entry, passes stalled turns on each
// heartbeat and routes moves to the engine.
type PlayingState struct {
	RoomStateBase
}

func NewPlayingState(room RoomContext) *PlayingState {
	return &PlayingState{
		RoomStateBase: RoomStateBase{
			ID:   PlayingID,
			Room: room,
		},
	}
}

func (s *PlayingState) OnEnter() {
	engine := s.Room.Engine()
	engine.StartTurn(s.Room.Now())
	logger.Log.Infof("Room %s playing round %d, %s moves first",
		s.Room.GetID(), engine.Round(), engine.State().Turn())
}

func (s *PlayingState) OnExit() {
	s.Room.Engine().Halt()
}

func (s *PlayingState) OnUpdate() {
	engine := s.Room.Engine()
	if engine.ExpireTurn(s.Room.Now()) {
		s.Room.TurnExpired(engine.State().Turn())
	}
	s.Room.BroadcastState()
}

func (s *PlayingState) HandleMove(player Player, role game.Role, target board.Cell) error {
	ev, err := s.Room.Engine().ApplyMove(role, target, s.Room.Now())
	if err != nil {
		return err
	}
	if ev != nil {
		logger.Log.Infof("Room %s round %d won by %s (%s) after %d moves",
			s.Room.GetID(), ev.Round, ev.Winner, ev.Cause, ev.Moves)
		s.Room.AnnounceWin(ev)
	}
	s.Room.BroadcastState()
	return nil
}
