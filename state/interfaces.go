// state/interfaces.go
package state

import (
	"time"

	"github.com/wfunc/escapeplan/game"
)

// Player defines the minimal interface for a participant that a state needs to interact with.
type Player interface {
	GetID() string
}

// RoomContext defines what a room exposes to its phase states.
// This breaks the import cycle between room and state.
type RoomContext interface {
	GetID() string
	Now() time.Time
	Engine() *game.Engine
	ChangeState(newState State) error
	BroadcastState()
	AnnounceWin(ev *game.WinEvent)
	TurnExpired(next game.Role)
}
