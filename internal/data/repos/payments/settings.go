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

type TenantPaymentSettingsRepo interface {
	Get(dbc dbctx.Context, tenantID uuid.UUID) (*domain.TenantPaymentSettings, error)
	Upsert(dbc dbctx.Context, s *domain.TenantPaymentSettings) error
}

type tenantPaymentSettingsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantPaymentSettingsRepo(db *gorm.DB, baseLog *logger.Logger) TenantPaymentSettingsRepo {
	return &tenantPaymentSettingsRepo{
		db:  db,
		log: baseLog.With("repo", "TenantPaymentSettingsRepo"),
	}
}

// Get returns nil when the tenant has no override.
func (r *tenantPaymentSettingsRepo) Get(dbc dbctx.Context, tenantID uuid.UUID) (*domain.TenantPaymentSettings, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil {
		return nil, nil
	}
	var out domain.TenantPaymentSettings
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ?", tenantID).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.TenantID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *tenantPaymentSettingsRepo) Upsert(dbc dbctx.Context, s *domain.TenantPaymentSettings) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	s.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"platform_fee_percentage", "updated_at"}),
		}).
		Create(s).Error
}
