package secrets

import (
	"context"

	"github.com/usawrapco/wrapforge/internal/config"
	"github.com/usawrapco/wrapforge/internal/models"
	"gorm.io/gorm"
)

// Resolver looks up a named provider credential for an organization.
// Absence is a normal outcome, not an error: adapters turn it into a typed
// "not configured" failure so dispatch can degrade gracefully.
type Resolver interface {
	Resolve(ctx context.Context, orgID, name string) (string, bool)
}

// ChainResolver checks the platform-level provider config first, then the
// org_configs table keyed by (org_id, name). Platform keys win so a single
// deployment-wide key covers every tenant.
type ChainResolver struct {
	providers *config.ProvidersConfig
	db        *gorm.DB
}

func NewChainResolver(providers *config.ProvidersConfig, db *gorm.DB) *ChainResolver {
	return &ChainResolver{providers: providers, db: db}
}

func (r *ChainResolver) Resolve(ctx context.Context, orgID, name string) (string, bool) {
	if v, ok := r.providers.Lookup(name); ok {
		return v, true
	}

	if r.db == nil || orgID == "" {
		return "", false
	}

	var row models.OrgConfig
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND `key` = ?", orgID, name).
		First(&row).Error
	if err != nil || row.Value == "" {
		return "", false
	}
	return row.Value, true
}

// StaticResolver serves a fixed map of credentials. Used in tests.
type StaticResolver map[string]string

func (r StaticResolver) Resolve(_ context.Context, _ string, name string) (string, bool) {
	v, ok := r[name]
	return v, ok && v != ""
}
