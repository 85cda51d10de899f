package dispatch

import (
	"testing"

	"github.com/usawrapco/wrapforge/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory SQLite database with the schema
// the dispatcher touches migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.PipelineStepConfig{},
		&models.OrgConfig{},
		&models.AIUsageLog{},
		&models.PipelineStat{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}
