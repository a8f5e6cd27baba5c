// persistence/interface.go
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/escapeplan/config"
	"github.com/wfunc/escapeplan/models"
)

// Archive stores finished rounds. It is append-only: nothing read from it is ever
// fed back into live game state.
type Archive interface {
	SaveRound(ctx context.Context, record models.RoundRecord) error
	LoadRound(ctx context.Context, id string) (*models.RoundRecord, error)
	RoleStats(ctx context.Context) (models.RoleStats, error)
	Close() error
}

// Archive drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverGorm     = "gorm"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownDriver  = errors.New("unknown archive driver")
)

// Open builds the archive selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Archive, error) {
	var (
		archive Archive
		err     error
	)
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryArchive(), nil
	case DriverPostgres:
		archive, err = NewPostgreSQL(cfg.Postgres.DSN())
	case DriverSQLite:
		archive, err = NewSQLite(cfg.SQLitePath)
	case DriverGorm:
		archive, err = NewGormPostgreSQL(cfg.Postgres.DSN())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", cfg.Driver, err)
	}
	return archive, nil
}
