// broadcast/broadcast.go
package broadcast

import (
	"errors"
	"fmt"

	"github.com/wfunc/escapeplan/logger"
	"github.com/wfunc/escapeplan/monitor"
	"github.com/wfunc/escapeplan/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

type Broadcaster interface {
	BroadcastToAll(data []byte) int
	SendTo(sessionID string, data []byte) error
}

// SessionBroadcaster fans frames out to every registered session. Each recipient
// is isolated: an error or panic from one send is logged and counted, and delivery
// continues with the rest.
type SessionBroadcaster struct {
	sessionManager *session.Manager
	monitor        *monitor.Monitor
}

func NewSessionBroadcaster(sessionManager *session.Manager, mon *monitor.Monitor) *SessionBroadcaster {
	return &SessionBroadcaster{
		sessionManager: sessionManager,
		monitor:        mon,
	}
}

// BroadcastToAll returns the number of recipients the frame was handed to.
func (b *SessionBroadcaster) BroadcastToAll(data []byte) int {
	delivered := 0
	for _, s := range b.sessionManager.All() {
		if err := b.deliver(s, data); err != nil {
			continue
		}
		delivered++
	}
	return delivered
}

func (b *SessionBroadcaster) SendTo(sessionID string, data []byte) error {
	s, exists := b.sessionManager.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return b.deliver(s, data)
}

func (b *SessionBroadcaster) deliver(s *session.Session, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panicked: %v", r)
		}
		if err != nil {
			b.monitor.IncBroadcastFailures()
			logger.Log.Warnw("dropping frame", "session", s.ID, "error", err)
		}
	}()
	return s.Send(data)
}
