package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wfunc/escapeplan/config"
	"github.com/wfunc/escapeplan/models"
)

func sampleRounds() []models.RoundRecord {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return []models.RoundRecord{
		{ID: "r1", RoomID: "main", Round: 1, Winner: "warden", Cause: "capture", WardenScore: 1,
			Moves: 6, Timeouts: 1, GridSize: 5, Board: "00000/0X000/00T00/00X00/X0X0X",
			WardenNick: "alice", PrisonerNick: "bob", StartedAt: start, EndedAt: start.Add(30 * time.Second)},
		{ID: "r2", RoomID: "main", Round: 2, Winner: "prisoner", Cause: "escape", WardenScore: 1, PrisonerScore: 1,
			Moves: 3, GridSize: 5, Board: "T0000/0X000/00000/00X00/X0X0X",
			StartedAt: start.Add(time.Minute), EndedAt: start.Add(90 * time.Second)},
	}
}

// exerciseArchive runs the shared behaviour every driver must provide.
func exerciseArchive(t *testing.T, archive Archive) {
	t.Helper()
	ctx := context.Background()

	for _, r := range sampleRounds() {
		if err := archive.SaveRound(ctx, r); err != nil {
			t.Fatalf("SaveRound(%s) failed: %v", r.ID, err)
		}
	}

	got, err := archive.LoadRound(ctx, "r1")
	if err != nil {
		t.Fatalf("LoadRound failed: %v", err)
	}
	want := sampleRounds()[0]
	if got.Winner != want.Winner || got.Board != want.Board || got.WardenNick != want.WardenNick || got.Moves != want.Moves {
		t.Errorf("Loaded record mismatch: %+v", got)
	}
	if !got.EndedAt.Equal(want.EndedAt) {
		t.Errorf("Expected ended_at %v, got %v", want.EndedAt, got.EndedAt)
	}

	if _, err := archive.LoadRound(ctx, "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}

	stats, err := archive.RoleStats(ctx)
	if err != nil {
		t.Fatalf("RoleStats failed: %v", err)
	}
	expected := models.RoleStats{Rounds: 2, WardenWins: 1, PrisonerWins: 1, Captures: 1, Escapes: 1, Moves: 9, Timeouts: 1}
	if stats != expected {
		t.Errorf("Expected %+v, got %+v", expected, stats)
	}
}

func TestMemoryArchive(t *testing.T) {
	archive := NewMemoryArchive()
	defer archive.Close()
	exerciseArchive(t, archive)
}

func TestSQLiteArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rounds.db")
	archive, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer archive.Close()
	exerciseArchive(t, archive)

	if err := archive.SaveRound(context.Background(), sampleRounds()[0]); err == nil {
		t.Error("Expected duplicate record IDs to be rejected")
	}
}

func TestPostgresArchives(t *testing.T) {
	dsn := os.Getenv("ESCAPE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ESCAPE_TEST_POSTGRES_DSN not set")
	}

	t.Run("lib/pq", func(t *testing.T) {
		archive, err := NewPostgreSQL(dsn)
		if err != nil {
			t.Fatalf("NewPostgreSQL failed: %v", err)
		}
		defer archive.Close()
		_, _ = archive.db.Exec(`DELETE FROM round_records`)
		exerciseArchive(t, archive)
	})

	t.Run("gorm", func(t *testing.T) {
		archive, err := NewGormPostgreSQL(dsn)
		if err != nil {
			t.Fatalf("NewGormPostgreSQL failed: %v", err)
		}
		defer archive.Close()
		archive.db.Exec(`DELETE FROM gorm_rounds`)
		exerciseArchive(t, archive)
	})
}

func TestRebind(t *testing.T) {
	numbered := &SQLArchive{numbered: true}
	if got := numbered.rebind("SELECT a FROM t WHERE x = ? AND y = ?"); got != "SELECT a FROM t WHERE x = $1 AND y = $2" {
		t.Errorf("Unexpected rebind: %s", got)
	}
	plain := &SQLArchive{}
	if got := plain.rebind("x = ?"); got != "x = ?" {
		t.Errorf("sqlite queries should be left alone, got %s", got)
	}
}

func TestOpen(t *testing.T) {
	archive, err := Open(config.DatabaseConfig{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("Open(memory) failed: %v", err)
	}
	if _, ok := archive.(*MemoryArchive); !ok {
		t.Errorf("Expected a MemoryArchive, got %T", archive)
	}

	archive, err = Open(config.DatabaseConfig{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "a.db")})
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	archive.Close()

	if _, err := Open(config.DatabaseConfig{Driver: "redis"}); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Expected ErrUnknownDriver, got %v", err)
	}
}
