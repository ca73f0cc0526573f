package client

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hosting-storefront/internal/config"
	"hosting-storefront/internal/model"
)

// NewDB opens the configured database, sizes the pool and migrates every model.
func NewDB(cfg *config.Database, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	log.Info("database ready", zap.String("driver", cfg.Driver))
	return db, nil
}

func dialectorFor(cfg *config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return sqlite.Open(cfg.URL), nil
	case "mysql":
		return mysql.Open(cfg.URL), nil
	case "postgres":
		return postgres.Open(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// MemoryDatabase returns settings for a private in-memory sqlite database.
func MemoryDatabase() *config.Database {
	return &config.Database{
		Driver:          "sqlite",
		URL:             "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxIdleConns:    2,
		MaxOpenConns:    4,
		ConnMaxLifetime: time.Hour,
	}
}
