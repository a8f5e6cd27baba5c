// services/stats_service.go
package services

import (
	"context"
	"fmt"

	"github.com/wfunc/escapeplan/game"
	"github.com/wfunc/escapeplan/models"
	"github.com/wfunc/escapeplan/network"
	"github.com/wfunc/escapeplan/persistence"
)

// LiveGame is the part of the room the admin surfaces read and reset.
type LiveGame interface {
	Snapshot() network.StateMessage
	FullReset() game.Scores
}

// Stats combines the live ledger with the archive totals.
type Stats struct {
	Phase    string           `json:"phase"`
	Round    int              `json:"round"`
	Online   int              `json:"online"`
	Turn     game.Role        `json:"turn"`
	Scores   game.Scores      `json:"scores"`
	Archived models.RoleStats `json:"archived"`
}

type StatsService struct {
	game    LiveGame
	archive persistence.Archive
}

func NewStatsService(live LiveGame, archive persistence.Archive) *StatsService {
	return &StatsService{game: live, archive: archive}
}

func (s *StatsService) Stats(ctx context.Context) (*Stats, error) {
	snapshot := s.game.Snapshot()
	stats := &Stats{
		Phase:  snapshot.Phase,
		Round:  snapshot.Round,
		Online: snapshot.Online,
		Turn:   snapshot.Turn,
		Scores: snapshot.Scores,
	}

	if s.archive != nil {
		archived, err := s.archive.RoleStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("archive stats: %w", err)
		}
		stats.Archived = archived
	}
	return stats, nil
}

// Reset clears the live score ledger. Archived rounds are kept.
func (s *StatsService) Reset() game.Scores {
	return s.game.FullReset()
}
