package orders

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

// OrderTransitionRepo is append-only.
type OrderTransitionRepo interface {
	Append(dbc dbctx.Context, tr *domain.OrderTransition) error
	ListByOrder(dbc dbctx.Context, tenantID, orderID uuid.UUID) ([]*domain.OrderTransition, error)
}

type orderTransitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderTransitionRepo(db *gorm.DB, baseLog *logger.Logger) OrderTransitionRepo {
	return &orderTransitionRepo{
		db:  db,
		log: baseLog.With("repo", "OrderTransitionRepo"),
	}
}

func (r *orderTransitionRepo) Append(dbc dbctx.Context, tr *domain.OrderTransition) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(tr).Error
}

// ListByOrder returns transitions in replay order: timestamp, then version.
func (r *orderTransitionRepo) ListByOrder(dbc dbctx.Context, tenantID, orderID uuid.UUID) ([]*domain.OrderTransition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.OrderTransition
	if tenantID == uuid.Nil || orderID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("occurred_at ASC").
		Order("version ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
