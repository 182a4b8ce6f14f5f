package database

import (
	"becky-backend/config"
	"becky-backend/logger"
	"becky-backend/models"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the configured database and migrates the schema.
func Connect() error {
	db, err := Open(config.AppConfig.DBDriver, config.AppConfig.DatabaseURL, config.AppConfig.LogLevel == "debug")
	if err != nil {
		return err
	}
	if err := AutoMigrate(db); err != nil {
		return err
	}
	DB = db
	logger.L.Info("database connected and migrated", "driver", config.AppConfig.DBDriver)
	return nil
}

// Open returns a GORM handle for driver "postgres" or "sqlite".
func Open(driver, url string, verbose bool) (*gorm.DB, error) {
	gormLog := gormlogger.Default.LogMode(gormlogger.Silent)
	if verbose {
		gormLog = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(url)
	case "postgres", "":
		dsn, err := postgresDSN(url)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite" {
		db.Exec("PRAGMA foreign_keys = ON;")
	}
	return db, nil
}

// postgresDSN turns postgres:// URLs into the key/value form; other input is
// passed through untouched.
func postgresDSN(url string) (string, error) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return pq.ParseURL(url)
	}
	return url, nil
}

// AutoMigrate runs schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserContext{},
		&models.Account{},
		&models.Movement{},
		&models.Contact{},
		&models.EmailReport{},
		&models.Activity{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
