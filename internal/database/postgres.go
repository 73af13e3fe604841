package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/config"
)

// OpenGorm connects the write side. TranslateError is required: the
// repositories map gorm.ErrDuplicatedKey to domain conflicts.
func OpenGorm(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	gormLog := gormLogger.New(
		zap.NewStdLog(logger.Named("gorm")),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseURL()), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	applyPool(cfg, sqlDB.SetMaxOpenConns, sqlDB.SetMaxIdleConns, sqlDB.SetConnMaxLifetime)
	return db, nil
}

// OpenSQLX connects the read side used by reports
func OpenSQLX(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	applyPool(cfg, db.SetMaxOpenConns, db.SetMaxIdleConns, db.SetConnMaxLifetime)
	return db, nil
}

func applyPool(cfg config.DatabaseConfig, maxOpen, maxIdle func(int), lifetime func(time.Duration)) {
	if cfg.MaxConnections > 0 {
		maxOpen(cfg.MaxConnections)
	}
	if cfg.MaxIdleConns > 0 {
		maxIdle(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		lifetime(cfg.MaxLifetime.Std())
	}
}

func gormLogLevel(level string) gormLogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}
