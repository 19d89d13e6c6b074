package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

type ProviderConfigRepo interface {
	ListByTenant(dbc dbctx.Context, tenantID uuid.UUID) ([]*domain.ProviderConfig, error)
	ListAll(dbc dbctx.Context) ([]*domain.ProviderConfig, error)
	Upsert(dbc dbctx.Context, cfg *domain.ProviderConfig) error
}

type providerConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProviderConfigRepo(db *gorm.DB, baseLog *logger.Logger) ProviderConfigRepo {
	return &providerConfigRepo{
		db:  db,
		log: baseLog.With("repo", "ProviderConfigRepo"),
	}
}

// ListByTenant returns the tenant's providers in routing order.
func (r *providerConfigRepo) ListByTenant(dbc dbctx.Context, tenantID uuid.UUID) ([]*domain.ProviderConfig, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.ProviderConfig
	if tenantID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ?", tenantID).
		Order("priority ASC").
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *providerConfigRepo) ListAll(dbc dbctx.Context) ([]*domain.ProviderConfig, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.ProviderConfig
	if err := transaction.WithContext(dbc.Ctx).
		Order("tenant_id ASC").
		Order("priority ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *providerConfigRepo) Upsert(dbc dbctx.Context, cfg *domain.ProviderConfig) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"priority",
				"percentage_fee",
				"fixed_fee",
				"supported_methods",
				"available",
				"updated_at",
			}),
		}).
		Create(cfg).Error
}
