// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/escapeplan/models"
)

// GormPostgreSQL archives rounds through gorm.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(dsn string) (*GormPostgreSQL, error) {
	return openGorm(postgres.Open(dsn))
}

func openGorm(dialector gorm.Dialector) (*GormPostgreSQL, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormRound{}); err != nil {
		return nil, err
	}
	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveRound(ctx context.Context, record models.RoundRecord) error {
	return p.db.WithContext(ctx).Create(models.NewGormRound(record)).Error
}

func (p *GormPostgreSQL) LoadRound(ctx context.Context, id string) (*models.RoundRecord, error) {
	var row models.GormRound
	if err := p.db.WithContext(ctx).Where("record_id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	record := row.Record()
	return &record, nil
}

func (p *GormPostgreSQL) RoleStats(ctx context.Context) (models.RoleStats, error) {
	var stats models.RoleStats
	err := p.db.WithContext(ctx).Model(&models.GormRound{}).Select(`
            COUNT(*) AS rounds,
            COALESCE(SUM(CASE WHEN winner = 'warden' THEN 1 ELSE 0 END), 0) AS warden_wins,
            COALESCE(SUM(CASE WHEN winner = 'prisoner' THEN 1 ELSE 0 END), 0) AS prisoner_wins,
            COALESCE(SUM(CASE WHEN cause = 'capture' THEN 1 ELSE 0 END), 0) AS captures,
            COALESCE(SUM(CASE WHEN cause = 'escape' THEN 1 ELSE 0 END), 0) AS escapes,
            COALESCE(SUM(moves), 0) AS moves,
            COALESCE(SUM(timeouts), 0) AS timeouts`).
		Scan(&stats).Error
	return stats, err
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
