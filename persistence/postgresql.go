// persistence/postgresql.go
package persistence

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var postgresSchema = []string{`
        CREATE TABLE IF NOT EXISTS round_records (
            id VARCHAR(36) PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            round_no INTEGER NOT NULL,
            winner VARCHAR(16) NOT NULL,
            cause VARCHAR(16) NOT NULL,
            warden_score INTEGER NOT NULL,
            prisoner_score INTEGER NOT NULL,
            moves INTEGER NOT NULL,
            timeouts INTEGER NOT NULL,
            grid_size INTEGER NOT NULL,
            board TEXT NOT NULL,
            warden_nick VARCHAR(64) NOT NULL DEFAULT '',
            prisoner_nick VARCHAR(64) NOT NULL DEFAULT '',
            started_at TIMESTAMPTZ NOT NULL,
            ended_at TIMESTAMPTZ NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_round_records_ended_at ON round_records(ended_at)`,
	`CREATE INDEX IF NOT EXISTS idx_round_records_winner ON round_records(winner)`,
}

// NewPostgreSQL opens a lib/pq archive and creates its table.
func NewPostgreSQL(dsn string) (*SQLArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	archive, err := newSQLArchive(db, true, postgresSchema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return archive, nil
}
