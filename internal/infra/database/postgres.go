package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/totegamma/transparence/internal/infra/database/models"
)

func newLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             300 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,                   // Enable color
		},
	)
}

func NewPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(),
	})
	return db, err
}

// NewSQLite opens a pure-Go SQLite database. Use ":memory:" for an
// ephemeral one.
func NewSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(),
	})
	if err != nil {
		return nil, err
	}

	if path == ":memory:" {
		// every pooled connection would otherwise see its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Open selects the driver by name.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres", "":
		return NewPostgres(dsn)
	case "sqlite":
		return NewSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Evidence{},
	)
}
