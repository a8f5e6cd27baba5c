// session/session.go
package session

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wfunc/escapeplan/network"
)

// DefaultNickname is used when a participant sets an empty name.
const DefaultNickname = "Player"

type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	LastActive time.Time
	nickname   string
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

// SetNickname trims name and caps it at maxLen runes.
func (s *Session) SetNickname(name string, maxLen int) string {
	name = NormalizeNickname(name, maxLen)
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.nickname = name
	return name
}

func (s *Session) Nickname() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.nickname
}

// Touch records inbound activity.
func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) Send(data []byte) error {
	return s.Conn.Send(data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

func NormalizeNickname(name string, maxLen int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultNickname
	}
	if maxLen > 0 && utf8.RuneCountInString(name) > maxLen {
		name = strings.TrimSpace(string([]rune(name)[:maxLen]))
	}
	return name
}

// Manager tracks connected participants in connect order.
type Manager struct {
	sessions map[string]*Session
	order    []string
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.sessions[session.ID]; !exists {
		m.order = append(m.order, session.ID)
	}
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.sessions[sessionID]; !exists {
		return
	}
	delete(m.sessions, sessionID)
	for i, id := range m.order {
		if id == sessionID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// All returns the sessions in connect order.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	result := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.sessions[id])
	}
	return result
}

// Nicknames maps session IDs to display names; unnamed sessions are omitted.
func (m *Manager) Nicknames() map[string]string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	result := make(map[string]string, len(m.sessions))
	for id, s := range m.sessions {
		if name := s.Nickname(); name != "" {
			result[id] = name
		}
	}
	return result
}
