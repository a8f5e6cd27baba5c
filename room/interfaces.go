package room

import (
	"context"

	"github.com/wfunc/escapeplan/models"
)

// Broadcaster delivers frames to connected sessions.
// This is defined here so the room does not depend on a concrete fan-out.
type Broadcaster interface {
	BroadcastToAll(data []byte) int
	SendTo(sessionID string, data []byte) error
}

// RoundArchive receives a record of every finished round.
type RoundArchive interface {
	SaveRound(ctx context.Context, record models.RoundRecord) error
}
