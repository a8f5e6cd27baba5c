// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormRound is the gorm mapping of RoundRecord.
type GormRound struct {
	gorm.Model
	RecordID      string `gorm:"uniqueIndex;size:36;not null"`
	RoomID        string `gorm:"index;not null"`
	Round         int    `gorm:"not null"`
	Winner        string `gorm:"index;size:16;not null"`
	Cause         string `gorm:"size:16;not null"`
	WardenScore   int    `gorm:"default:0"`
	PrisonerScore int    `gorm:"default:0"`
	Moves         int    `gorm:"default:0"`
	Timeouts      int    `gorm:"default:0"`
	GridSize      int    `gorm:"not null"`
	Board         string `gorm:"not null"`
	WardenNick    string
	PrisonerNick  string
	StartedAt     time.Time
	EndedAt       time.Time `gorm:"index"`
}

func (GormRound) TableName() string {
	return "gorm_rounds"
}

func NewGormRound(r RoundRecord) *GormRound {
	return &GormRound{
		RecordID:      r.ID,
		RoomID:        r.RoomID,
		Round:         r.Round,
		Winner:        r.Winner,
		Cause:         r.Cause,
		WardenScore:   r.WardenScore,
		PrisonerScore: r.PrisonerScore,
		Moves:         r.Moves,
		Timeouts:      r.Timeouts,
		GridSize:      r.GridSize,
		Board:         r.Board,
		WardenNick:    r.WardenNick,
		PrisonerNick:  r.PrisonerNick,
		StartedAt:     r.StartedAt,
		EndedAt:       r.EndedAt,
	}
}

func (g *GormRound) Record() RoundRecord {
	return RoundRecord{
		ID:            g.RecordID,
		RoomID:        g.RoomID,
		Round:         g.Round,
		Winner:        g.Winner,
		Cause:         g.Cause,
		WardenScore:   g.WardenScore,
		PrisonerScore: g.PrisonerScore,
		Moves:         g.Moves,
		Timeouts:      g.Timeouts,
		GridSize:      g.GridSize,
		Board:         g.Board,
		WardenNick:    g.WardenNick,
		PrisonerNick:  g.PrisonerNick,
		StartedAt:     g.StartedAt,
		EndedAt:       g.EndedAt,
	}
}
