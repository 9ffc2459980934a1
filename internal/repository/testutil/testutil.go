package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"ad-ranking-system/internal/database"
	"ad-ranking-system/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// DB returns a migrated in-memory sqlite database private to the test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:adtest%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

// FileDB returns a migrated sqlite database in a temp file with a pool of
// conns connections, so concurrent writers really contend for the lock.
func FileDB(tb testing.TB, conns int) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "ads.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

func SeedAd(tb testing.TB, db *gorm.DB, ad models.Ad) *models.Ad {
	tb.Helper()
	if err := db.Create(&ad).Error; err != nil {
		tb.Fatalf("seed ad: %v", err)
	}
	return &ad
}

func SeedAds(tb testing.TB, db *gorm.DB, ads ...models.Ad) []models.Ad {
	tb.Helper()
	out := make([]models.Ad, 0, len(ads))
	for _, ad := range ads {
		out = append(out, *SeedAd(tb, db, ad))
	}
	return out
}

func Owner(name string) *string {
	return &name
}
