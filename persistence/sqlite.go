package persistence

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

var sqliteSchema = []string{`
        CREATE TABLE IF NOT EXISTS round_records (
            id TEXT PRIMARY KEY,
            room_id TEXT NOT NULL,
            round_no INTEGER NOT NULL,
            winner TEXT NOT NULL,
            cause TEXT NOT NULL,
            warden_score INTEGER NOT NULL,
            prisoner_score INTEGER NOT NULL,
            moves INTEGER NOT NULL,
            timeouts INTEGER NOT NULL,
            grid_size INTEGER NOT NULL,
            board TEXT NOT NULL,
            warden_nick TEXT NOT NULL DEFAULT '',
            prisoner_nick TEXT NOT NULL DEFAULT '',
            started_at DATETIME NOT NULL,
            ended_at DATETIME NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_round_records_ended_at ON round_records(ended_at)`,
	`CREATE INDEX IF NOT EXISTS idx_round_records_winner ON round_records(winner)`,
}

// NewSQLite opens (creating if needed) a file-backed archive.
func NewSQLite(path string) (*SQLArchive, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	archive, err := newSQLArchive(db, false, sqliteSchema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return archive, nil
}
