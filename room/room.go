// room/room.go
package room

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/escapeplan/board"
	"github.com/wfunc/escapeplan/game"
	"github.com/wfunc/escapeplan/logger"
	"github.com/wfunc/escapeplan/models"
	"github.com/wfunc/escapeplan/monitor"
	"github.com/wfunc/escapeplan/network"
	"github.com/wfunc/escapeplan/session"
	"github.com/wfunc/escapeplan/state"
)

const (
	seatCount      = 2
	archiveTimeout = 5 * time.Second
)

var (
	ErrRoomClosed     = errors.New("room closed")
	ErrUnknownSession = errors.New("unknown session")
	ErrRoleMismatch   = errors.New("session is not bound to the claimed role")
)

type Option func(*Room)

func WithClock(now func() time.Time) Option {
	return func(r *Room) { r.clock = now }
}

func WithHeartbeat(interval time.Duration) Option {
	return func(r *Room) { r.heartbeat = interval }
}

func WithMonitor(m *monitor.Monitor) Option {
	return func(r *Room) { r.monitor = m }
}

func WithArchive(a RoundArchive) Option {
	return func(r *Room) { r.archive = a }
}

func WithNicknameMax(n int) Option {
	return func(r *Room) { r.nickMax = n }
}

// WithRand sets the source used to draw roles.
func WithRand(rng *rand.Rand) Option {
	return func(r *Room) { r.rng = rng }
}

// Room is the single game instance. One goroutine owns the engine, the seat table
// and the phase machine; every other goroutine reaches them through submit.
type Room struct {
	ID           string
	StateMachine state.StateMachine
	CreatedAt    time.Time

	engine      *game.Engine
	sessions    *session.Manager
	broadcaster Broadcaster
	monitor     *monitor.Monitor
	archive     RoundArchive
	clock       func() time.Time
	rng         *rand.Rand
	heartbeat   time.Duration
	nickMax     int

	waiting state.State
	playing state.State

	seats      []string // session IDs in seating order
	roles      map[string]game.Role
	spectators []string // queue for the next free seat

	commands  chan func()
	closeChan chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	saves     sync.WaitGroup
}

// NewRoom builds the room and starts its loop.
func NewRoom(id string, engine *game.Engine, sessions *session.Manager, broadcaster Broadcaster, opts ...Option) *Room {
	r := &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		engine:      engine,
		sessions:    sessions,
		broadcaster: broadcaster,
		clock:       time.Now,
		heartbeat:   time.Second,
		nickMax:     20,
		roles:       make(map[string]game.Role),
		commands:    make(chan func()),
		closeChan:   make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	r.waiting = state.NewWaitingState(r)
	r.playing = state.NewPlayingState(r)
	machine := state.NewBaseStateMachine(r.waiting)
	_ = machine.AddTransition(r.waiting, r.playing, func() bool { return len(r.roles) == seatCount })
	_ = machine.AddTransition(r.playing, r.waiting, nil)
	r.StateMachine = machine

	go r.loop()
	return r
}

// --- state.RoomContext ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) Now() time.Time {
	return r.clock()
}

func (r *Room) Engine() *game.Engine {
	return r.engine
}

func (r *Room) ChangeState(newState state.State) error {
	return r.StateMachine.ChangeState(newState)
}

func (r *Room) BroadcastState() {
	snapshot := r.snapshot()
	r.broadcast(snapshot)
}

func (r *Room) AnnounceWin(ev *game.WinEvent) {
	r.broadcast(network.End{
		Type:   network.MsgTypeEnd,
		Winner: ev.Winner,
		Cause:  ev.Cause,
		Scores: ev.Scores,
	})
	r.monitor.RecordRound(string(ev.Winner), ev.Cause)
	r.monitor.ObserveBoardAttempts(r.engine.LastAttempts())
	r.archiveRound(ev)
}

func (r *Room) TurnExpired(next game.Role) {
	r.monitor.IncTurnTimeouts()
	logger.Log.Debugw("turn expired", "room", r.ID, "next", next)
}

// --- public commands, safe from any goroutine ---

// Join registers s, greets it and seats it if a seat is free.
func (r *Room) Join(s *session.Session) bool {
	return r.submit(func() { r.join(s) })
}

// Leave removes the session and frees its seat.
func (r *Room) Leave(sessionID string) {
	r.submit(func() { r.leave(sessionID) })
}

func (r *Room) SetNickname(sessionID, name string) {
	r.submit(func() {
		s, ok := r.sessions.Get(sessionID)
		if !ok {
			return
		}
		s.SetNickname(name, r.nickMax)
		r.BroadcastState()
	})
}

// Move forwards a move intent if the session holds the claimed role. Rejections
// change nothing and are never reported to the client.
func (r *Room) Move(sessionID string, role game.Role, target board.Cell) error {
	var err error
	if !r.submit(func() { err = r.move(sessionID, role, target) }) {
		return ErrRoomClosed
	}
	return err
}

// Reset regenerates the board and restarts the running turn. Scores are kept.
func (r *Room) Reset() {
	r.submit(func() {
		r.engine.NewRound(r.Now())
		r.monitor.ObserveBoardAttempts(r.engine.LastAttempts())
		logger.Log.Infow("board reset", "room", r.ID, "round", r.engine.Round())
		r.BroadcastState()
	})
}

// FullReset clears the score ledger and starts over. It returns the cleared scores.
func (r *Room) FullReset() game.Scores {
	var cleared game.Scores
	r.submit(func() {
		cleared = r.engine.State().Scores()
		r.engine.ResetScores(r.Now())
		r.monitor.ObserveBoardAttempts(r.engine.LastAttempts())
		logger.Log.Infow("scores cleared", "room", r.ID, "warden", cleared.Warden, "prisoner", cleared.Prisoner)
		r.BroadcastState()
	})
	return cleared
}

// Snapshot returns the current state message.
func (r *Room) Snapshot() network.StateMessage {
	var snapshot network.StateMessage
	r.submit(func() { snapshot = r.snapshot() })
	return snapshot
}

// Close stops the loop and waits for pending archive writes.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.closeChan)
	})
	<-r.done
	r.saves.Wait()
}

// --- loop ---

func (r *Room) loop() {
	ticker := time.NewTicker(r.heartbeat)
	defer func() {
		ticker.Stop()
		close(r.done)
	}()

	for {
		select {
		case <-ticker.C:
			r.safely(r.Update)
		case cmd := <-r.commands:
			r.safely(cmd)
		case <-r.closeChan:
			return
		}
	}
}

// Update runs one heartbeat of the current phase.
func (r *Room) Update() {
	if current := r.StateMachine.GetCurrentState(); current != nil {
		current.OnUpdate()
	}
}

func (r *Room) safely(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Errorw("room command panicked", "room", r.ID, "panic", rec)
		}
	}()
	fn()
}

// submit runs fn on the loop goroutine and waits for it. It reports false once the
// room is closed.
func (r *Room) submit(fn func()) bool {
	start := time.Now()
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		fn()
	}

	select {
	case r.commands <- cmd:
	case <-r.closeChan:
		return false
	}
	<-finished
	r.monitor.ObserveCommandLatency(time.Since(start))
	return true
}

// --- loop-only helpers ---

func (r *Room) join(s *session.Session) {
	r.sessions.Add(s)
	r.monitor.SetOnline(r.sessions.Count())

	if err := r.broadcaster.SendTo(s.ID, network.Encode(network.Welcome{Type: network.MsgTypeWelcome, ID: s.ID})); err != nil {
		logger.Log.Warnw("welcome not delivered", "session", s.ID, "error", err)
	}
	r.broadcastOnline()

	if len(r.seats) < seatCount {
		r.seats = append(r.seats, s.ID)
		logger.Log.Infow("session seated", "room", r.ID, "session", s.ID, "seat", len(r.seats))
		r.fillRoles()
	} else {
		r.spectators = append(r.spectators, s.ID)
		logger.Log.Infow("session spectating", "room", r.ID, "session", s.ID, "queue", len(r.spectators))
	}
	r.BroadcastState()
}

func (r *Room) leave(sessionID string) {
	if _, ok := r.sessions.Get(sessionID); !ok {
		return
	}
	r.sessions.Remove(sessionID)
	r.monitor.SetOnline(r.sessions.Count())
	r.spectators = slices.DeleteFunc(r.spectators, func(id string) bool { return id == sessionID })

	if slices.Contains(r.seats, sessionID) {
		r.seats = slices.DeleteFunc(r.seats, func(id string) bool { return id == sessionID })
		logger.Log.Infow("seat vacated", "room", r.ID, "session", sessionID)
		r.vacate()
	}

	r.broadcastOnline()
	r.BroadcastState()
}

// vacate clears role bindings after a seated session leaves, abandons the running
// board and promotes the longest-waiting spectator.
func (r *Room) vacate() {
	r.roles = make(map[string]game.Role)
	if r.StateMachine.GetCurrentState().GetID() == state.PlayingID {
		if err := r.ChangeState(r.waiting); err != nil {
			logger.Log.Errorw("cannot leave playing phase", "room", r.ID, "error", err)
		}
		r.engine.NewRound(r.Now())
	}
	r.broadcast(network.Roles{Type: network.MsgTypeRoles, SeatRoles: r.seatRoles()})

	if len(r.spectators) > 0 {
		next := r.spectators[0]
		r.spectators = r.spectators[1:]
		r.seats = append(r.seats, next)
		logger.Log.Infow("spectator promoted", "room", r.ID, "session", next)
	}
	r.fillRoles()
}

// fillRoles draws roles once both seats are taken and starts play.
func (r *Room) fillRoles() {
	if len(r.seats) < seatCount || len(r.roles) == seatCount {
		return
	}
	perm := r.rng.Perm(seatCount)
	for i, id := range r.seats {
		r.roles[id] = game.Roles[perm[i]]
	}
	r.broadcast(network.Roles{Type: network.MsgTypeRoles, SeatRoles: r.seatRoles()})

	if err := r.ChangeState(r.playing); err != nil {
		logger.Log.Errorw("cannot start playing phase", "room", r.ID, "error", err)
	}
}

func (r *Room) move(sessionID string, role game.Role, target board.Cell) error {
	s, ok := r.sessions.Get(sessionID)
	if !ok {
		return ErrUnknownSession
	}
	if bound, seated := r.roles[sessionID]; !seated || bound != role {
		r.monitor.RecordMove(false)
		return ErrRoleMismatch
	}

	err := r.StateMachine.GetCurrentState().HandleMove(s, role, target)
	r.monitor.RecordMove(err == nil)
	return err
}

func (r *Room) snapshot() network.StateMessage {
	st := r.engine.State()
	return network.StateMessage{
		Type:  network.MsgTypeState,
		Phase: r.StateMachine.GetCurrentState().GetID(),
		Round: r.engine.Round(),
		GridN: st.Board().Size(),
		Board: st.Board().Symbols(),
		Pos: network.Positions{
			Warden:   st.Position(game.Warden),
			Prisoner: st.Position(game.Prisoner),
		},
		Turn:      st.Turn(),
		Remaining: r.engine.Remaining(r.Now()),
		Online:    r.sessions.Count(),
		Scores:    st.Scores(),
		Nicks:     r.sessions.Nicknames(),
		SeatRoles: r.seatRoles(),
	}
}

func (r *Room) seatRoles() map[string]game.Role {
	roles := make(map[string]game.Role, len(r.roles))
	for id, role := range r.roles {
		roles[id] = role
	}
	return roles
}

func (r *Room) broadcastOnline() {
	r.broadcast(network.Online{Type: network.MsgTypeOnline, Count: r.sessions.Count()})
}

func (r *Room) broadcast(v interface{}) {
	r.broadcaster.BroadcastToAll(network.Encode(v))
}

func (r *Room) archiveRound(ev *game.WinEvent) {
	if r.archive == nil {
		return
	}
	record := r.roundRecord(ev)

	r.saves.Add(1)
	go func() {
		defer r.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := r.archive.SaveRound(ctx, record); err != nil {
			logger.Log.Errorw("archive round failed", "room", r.ID, "round", record.Round, "error", err)
		}
	}()
}

func (r *Room) roundRecord(ev *game.WinEvent) models.RoundRecord {
	rows := make([]string, 0, ev.Board.Size())
	for _, row := range ev.Board.Symbols() {
		rows = append(rows, strings.Join(row, ""))
	}

	record := models.RoundRecord{
		ID:            uuid.NewString(),
		RoomID:        r.ID,
		Round:         ev.Round,
		Winner:        string(ev.Winner),
		Cause:         ev.Cause,
		WardenScore:   ev.Scores.Warden,
		PrisonerScore: ev.Scores.Prisoner,
		Moves:         ev.Moves,
		Timeouts:      ev.Timeouts,
		GridSize:      ev.Board.Size(),
		Board:         strings.Join(rows, "/"),
		StartedAt:     ev.StartedAt,
		EndedAt:       ev.EndedAt,
	}
	for id, role := range r.roles {
		s, ok := r.sessions.Get(id)
		if !ok {
			continue
		}
		switch role {
		case game.Warden:
			record.WardenNick = s.Nickname()
		case game.Prisoner:
			record.PrisonerNick = s.Nickname()
		}
	}
	return record
}
