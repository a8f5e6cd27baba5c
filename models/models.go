// models/models.go
package models

import (
	"time"
)

// RoundRecord is the archived summary of one finished round.
type RoundRecord struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"room_id"`
	Round         int       `json:"round"`
	Winner        string    `json:"winner"`
	Cause         string    `json:"cause"`
	WardenScore   int       `json:"warden_score"`
	PrisonerScore int       `json:"prisoner_score"`
	Moves         int       `json:"moves"`
	Timeouts      int       `json:"timeouts"`
	GridSize      int       `json:"grid_size"`
	Board         string    `json:"board"` // rows of 0/X/T joined by '/'
	WardenNick    string    `json:"warden_nick"`
	PrisonerNick  string    `json:"prisoner_nick"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
}

func (r RoundRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// RoleStats aggregates archived rounds.
type RoleStats struct {
	Rounds       int `json:"rounds"`
	WardenWins   int `json:"warden_wins"`
	PrisonerWins int `json:"prisoner_wins"`
	Captures     int `json:"captures"`
	Escapes      int `json:"escapes"`
	Moves        int `json:"moves"`
	Timeouts     int `json:"timeouts"`
}

func (s *RoleStats) Add(r RoundRecord) {
	s.Rounds++
	switch r.Winner {
	case "warden":
		s.WardenWins++
	case "prisoner":
		s.PrisonerWins++
	}
	switch r.Cause {
	case "capture":
		s.Captures++
	case "escape":
		s.Escapes++
	}
	s.Moves += r.Moves
	s.Timeouts += r.Timeouts
}
