// persistence/sql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/wfunc/escapeplan/models"
)

const queryTimeout = 5 * time.Second

// SQLArchive is the database/sql archive shared by the postgres and sqlite drivers.
// Queries are written with '?' placeholders and rebound for postgres.
type SQLArchive struct {
	db       *sql.DB
	numbered bool
}

func newSQLArchive(db *sql.DB, numbered bool, schema []string) (*SQLArchive, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, err
		}
	}
	return &SQLArchive{db: db, numbered: numbered}, nil
}

func (a *SQLArchive) rebind(query string) string {
	if !a.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (a *SQLArchive) SaveRound(ctx context.Context, r models.RoundRecord) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := a.rebind(`
        INSERT INTO round_records (id, room_id, round_no, winner, cause, warden_score, prisoner_score,
            moves, timeouts, grid_size, board, warden_nick, prisoner_nick, started_at, ended_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	_, err := a.db.ExecContext(ctx, query,
		r.ID, r.RoomID, r.Round, r.Winner, r.Cause, r.WardenScore, r.PrisonerScore,
		r.Moves, r.Timeouts, r.GridSize, r.Board, r.WardenNick, r.PrisonerNick,
		r.StartedAt.UTC(), r.EndedAt.UTC())
	return err
}

func (a *SQLArchive) LoadRound(ctx context.Context, id string) (*models.RoundRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := a.rebind(`
        SELECT id, room_id, round_no, winner, cause, warden_score, prisoner_score,
            moves, timeouts, grid_size, board, warden_nick, prisoner_nick, started_at, ended_at
        FROM round_records WHERE id = ?
    `)
	var r models.RoundRecord
	err := a.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.RoomID, &r.Round, &r.Winner, &r.Cause, &r.WardenScore, &r.PrisonerScore,
		&r.Moves, &r.Timeouts, &r.GridSize, &r.Board, &r.WardenNick, &r.PrisonerNick,
		&r.StartedAt, &r.EndedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &r, nil
}

const roleStatsQuery = `
    SELECT
        COUNT(*),
        COALESCE(SUM(CASE WHEN winner = 'warden' THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN winner = 'prisoner' THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN cause = 'capture' THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN cause = 'escape' THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(moves), 0),
        COALESCE(SUM(timeouts), 0)
    FROM round_records
`

func (a *SQLArchive) RoleStats(ctx context.Context) (models.RoleStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s models.RoleStats
	err := a.db.QueryRowContext(ctx, roleStatsQuery).Scan(
		&s.Rounds, &s.WardenWins, &s.PrisonerWins, &s.Captures, &s.Escapes, &s.Moves, &s.Timeouts)
	return s, err
}

func (a *SQLArchive) Close() error {
	return a.db.Close()
}
