package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parking-iot-backend/config"
	"parking-iot-backend/internal/logger"
	"parking-iot-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.EnableTimescale && cfg.Driver == "postgres" {
		logger.BgLogger().Info("TimescaleDB is enabled, applying TimescaleDB-specific DDL")
		if err := applyTimescaleDDL(db); err != nil {
			logger.BgLogger().Warn("failed to apply TimescaleDB DDL, continuing without it", zap.Error(err))
		}
	}

	logger.BgLogger().Info("database initialization complete", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate creates or updates the tables the generator writes.
func Migrate(db *gorm.DB) error {
	logger.BgLogger().Info("running database migrations")
	if err := db.AutoMigrate(
		&model.Facility{},
		&model.ParkingEvent{},
		&model.ParkingSession{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// applyTimescaleDDL turns parking_events into a hypertable on event_time.
// Timescale requires the time column in every unique index, so the primary key is widened first.
func applyTimescaleDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS timescaledb;",
		"ALTER TABLE parking_events DROP CONSTRAINT IF EXISTS parking_events_pkey;",
		"ALTER TABLE parking_events ADD PRIMARY KEY (event_id, event_time);",
		"SELECT create_hypertable('parking_events', 'event_time', if_not_exists => TRUE, migrate_data => TRUE);",
		"CREATE INDEX IF NOT EXISTS idx_parking_events_facility_time ON parking_events (facility_id, event_time DESC);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
