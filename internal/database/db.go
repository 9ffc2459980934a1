package database

import (
	"fmt"
	"time"

	"ad-ranking-system/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects with the named driver ("postgres" or "sqlite").
func Open(driver, databaseURL string, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(databaseURL)
	case "sqlite", "":
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	logMode := logger.Warn
	if log != nil && log.IsLevelEnabled(logrus.DebugLevel) {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if log != nil {
		log.WithField("driver", driver).Info("Connected to database")
	}
	return db, nil
}

func SetupDatabase(driver, databaseURL string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := Open(driver, databaseURL, log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" || driver == "" {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY churn.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Ad{}, &models.UserPreferences{}, &models.UserAdMetrics{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
