package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

type OrderRepo interface {
	Create(dbc dbctx.Context, order *domain.Order) (*domain.Order, error)
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*domain.Order, error)
	ListByState(dbc dbctx.Context, tenantID uuid.UUID, state domain.State, limit int) ([]*domain.Order, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{
		db:  db,
		log: baseLog.With("repo", "OrderRepo"),
	}
}

func (r *orderRepo) Create(dbc dbctx.Context, order *domain.Order) (*domain.Order, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt
	if err := transaction.WithContext(dbc.Ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// GetByID returns nil when the order does not exist within tenantID.
func (r *orderRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var out domain.Order
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *orderRepo) ListByState(dbc dbctx.Context, tenantID uuid.UUID, state domain.State, limit int) ([]*domain.Order, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Order
	if tenantID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND state = ?", tenantID, state).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
