package network

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/escapeplan/board"
	"github.com/wfunc/escapeplan/game"
)

// Message types, server to client.
const (
	MsgTypeWelcome = "welcome"
	MsgTypeOnline  = "online"
	MsgTypeRoles   = "roles"
	MsgTypeState   = "state"
	MsgTypeEnd     = "end"
)

// Message types, client to server.
const (
	MsgTypeNick  = "nick"
	MsgTypeMove  = "move"
	MsgTypeReset = "reset"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

// Inbound is a decoded client intent.
type Inbound struct {
	Type string    `json:"type"`
	Name string    `json:"name,omitempty"`
	Role game.Role `json:"role,omitempty"`
	R    *int      `json:"r,omitempty"`
	C    *int      `json:"c,omitempty"`
}

// Target returns the move destination.
func (in *Inbound) Target() board.Cell {
	return board.Cell{R: *in.R, C: *in.C}
}

// DecodeIntent parses a client frame. Anything that is not a well-formed nick, move
// or reset yields an error and should be dropped by the caller.
func DecodeIntent(data []byte) (*Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch in.Type {
	case MsgTypeNick, MsgTypeReset:
		return &in, nil
	case MsgTypeMove:
		if in.R == nil || in.C == nil {
			return nil, fmt.Errorf("%w: move without coordinates", ErrMalformed)
		}
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: move with role %q", ErrMalformed, in.Role)
		}
		return &in, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}
}

type Welcome struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type Online struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type Roles struct {
	Type      string               `json:"type"`
	SeatRoles map[string]game.Role `json:"seat_roles"`
}

type Positions struct {
	Warden   board.Cell `json:"warden"`
	Prisoner board.Cell `json:"prisoner"`
}

// StateMessage is the full snapshot broadcast on every heartbeat and state change.
type StateMessage struct {
	Type      string               `json:"type"`
	Phase     string               `json:"phase"`
	Round     int                  `json:"round"`
	GridN     int                  `json:"grid_n"`
	Board     [][]string           `json:"board"`
	Pos       Positions            `json:"pos"`
	Turn      game.Role            `json:"turn"`
	Remaining int                  `json:"remaining"`
	Online    int                  `json:"online"`
	Scores    game.Scores          `json:"scores"`
	Nicks     map[string]string    `json:"nicks"`
	SeatRoles map[string]game.Role `json:"seat_roles"`
}

type End struct {
	Type   string      `json:"type"`
	Winner game.Role   `json:"winner"`
	Cause  string      `json:"cause"`
	Scores game.Scores `json:"scores"`
}

// Outbound frames from the client side.
type NickRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type MoveRequest struct {
	Type string    `json:"type"`
	Role game.Role `json:"role"`
	R    int       `json:"r"`
	C    int       `json:"c"`
}

type ResetRequest struct {
	Type string `json:"type"`
}

// Encode marshals a message. The protocol types above never fail to marshal.
func Encode(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("network: encode %T: %v", v, err))
	}
	return data
}
