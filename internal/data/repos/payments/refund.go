package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

type PaymentRefundRepo interface {
	Create(dbc dbctx.Context, refund *domain.PaymentRefund) (*domain.PaymentRefund, error)
	ListByAttempt(dbc dbctx.Context, tenantID, attemptID uuid.UUID) ([]*domain.PaymentRefund, error)
	SumSucceededByAttempt(dbc dbctx.Context, tenantID, attemptID uuid.UUID) (int64, error)
	GetSucceededByIdempotencyKey(dbc dbctx.Context, tenantID uuid.UUID, key string) (*domain.PaymentRefund, error)
}

type paymentRefundRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRefundRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRefundRepo {
	return &paymentRefundRepo{
		db:  db,
		log: baseLog.With("repo", "PaymentRefundRepo"),
	}
}

func (r *paymentRefundRepo) Create(dbc dbctx.Context, refund *domain.PaymentRefund) (*domain.PaymentRefund, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if refund.ID == uuid.Nil {
		refund.ID = uuid.New()
	}
	if refund.CreatedAt.IsZero() {
		refund.CreatedAt = time.Now().UTC()
	}
	if err := transaction.WithContext(dbc.Ctx).Create(refund).Error; err != nil {
		return nil, err
	}
	return refund, nil
}

func (r *paymentRefundRepo) ListByAttempt(dbc dbctx.Context, tenantID, attemptID uuid.UUID) ([]*domain.PaymentRefund, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.PaymentRefund
	if tenantID == uuid.Nil || attemptID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND attempt_id = ?", tenantID, attemptID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRefundRepo) SumSucceededByAttempt(dbc dbctx.Context, tenantID, attemptID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&domain.PaymentRefund{}).
		Where("tenant_id = ? AND attempt_id = ? AND status = ?", tenantID, attemptID, domain.RefundSucceeded).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *paymentRefundRepo) GetSucceededByIdempotencyKey(dbc dbctx.Context, tenantID uuid.UUID, key string) (*domain.PaymentRefund, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil || key == "" {
		return nil, nil
	}
	var out domain.PaymentRefund
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND idempotency_key = ? AND status = ?", tenantID, key, domain.RefundSucceeded).
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
