package secrets

import (
	"context"
	"testing"

	"github.com/usawrapco/wrapforge/internal/config"
	"github.com/usawrapco/wrapforge/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.OrgConfig{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestChainResolver_PlatformKeyWins(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.OrgConfig{OrgID: "org-1", Key: "replicate_api_token", Value: "org-level-token"})

	r := NewChainResolver(&config.ProvidersConfig{ReplicateAPIToken: "platform-token"}, db)

	v, ok := r.Resolve(context.Background(), "org-1", "replicate_api_token")
	if !ok || v != "platform-token" {
		t.Errorf("Resolve() = %q, %v; platform key should take precedence", v, ok)
	}
}

func TestChainResolver_FallsBackToOrgConfig(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.OrgConfig{OrgID: "org-1", Key: "ideogram_api_key", Value: "org-key"})

	r := NewChainResolver(&config.ProvidersConfig{}, db)

	v, ok := r.Resolve(context.Background(), "org-1", "ideogram_api_key")
	if !ok || v != "org-key" {
		t.Errorf("Resolve() = %q, %v; expected the org_configs value", v, ok)
	}
}

func TestChainResolver_AbsentIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	r := NewChainResolver(&config.ProvidersConfig{}, db)

	tests := []struct {
		name  string
		orgID string
		key   string
	}{
		{"unknown credential name", "org-1", "no_such_key"},
		{"no org row", "org-1", "vectorizer_api_key"},
		{"empty org id skips db", "", "vectorizer_api_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v, ok := r.Resolve(context.Background(), tt.orgID, tt.key); ok || v != "" {
				t.Errorf("Resolve() = %q, %v; expected absent", v, ok)
			}
		})
	}
}

func TestChainResolver_PerOrgIsolation(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.OrgConfig{OrgID: "org-a", Key: "removebg_api_key", Value: "a-key"})

	r := NewChainResolver(&config.ProvidersConfig{}, db)

	if _, ok := r.Resolve(context.Background(), "org-b", "removebg_api_key"); ok {
		t.Error("org-b resolved org-a's credential")
	}
}
