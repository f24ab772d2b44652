package database

import (
	"fmt"
	"time"

	"planhub/internal/config"
	"planhub/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var readDB *gorm.DB

// GetReadDB returns the read-replica connection, or nil when none is configured.
// Callers fall back to the primary connection on nil.
func GetReadDB() *gorm.DB {
	return readDB
}

// SetReadDB overrides the read-replica connection, used by tests.
func SetReadDB(db *gorm.DB) {
	readDB = db
}

// ConnectReadReplica opens the read-replica connection when DB_READ_HOST is set.
func ConnectReadReplica(cfg *config.Config) error {
	if cfg.DBReadHost == "" {
		return nil
	}

	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBReadHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: &CustomGormLogger{
			logger: middleware.Logger,
			Config: logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		},
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to read replica: %w", err)
	}

	if err := configurePool(db, cfg); err != nil {
		return err
	}

	readDB = db
	middleware.Logger.Info("Read replica connected successfully")
	return nil
}
