package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

// PaymentAttemptRepo never updates rows once written.
type PaymentAttemptRepo interface {
	Create(dbc dbctx.Context, attempt *domain.PaymentAttempt) (*domain.PaymentAttempt, error)
	ListByOrder(dbc dbctx.Context, tenantID, orderID uuid.UUID) ([]*domain.PaymentAttempt, error)
	GetSucceededByOrder(dbc dbctx.Context, tenantID, orderID uuid.UUID) (*domain.PaymentAttempt, error)
	GetSucceededByIdempotencyKey(dbc dbctx.Context, tenantID uuid.UUID, key string) (*domain.PaymentAttempt, error)
	GetSucceededByTransactionRef(dbc dbctx.Context, tenantID uuid.UUID, ref string) (*domain.PaymentAttempt, error)
}

type paymentAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentAttemptRepo(db *gorm.DB, baseLog *logger.Logger) PaymentAttemptRepo {
	return &paymentAttemptRepo{
		db:  db,
		log: baseLog.With("repo", "PaymentAttemptRepo"),
	}
}

func (r *paymentAttemptRepo) Create(dbc dbctx.Context, attempt *domain.PaymentAttempt) (*domain.PaymentAttempt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	if err := transaction.WithContext(dbc.Ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *paymentAttemptRepo) ListByOrder(dbc dbctx.Context, tenantID, orderID uuid.UUID) ([]*domain.PaymentAttempt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.PaymentAttempt
	if tenantID == uuid.Nil || orderID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC").
		Order("hop ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentAttemptRepo) GetSucceededByOrder(dbc dbctx.Context, tenantID, orderID uuid.UUID) (*domain.PaymentAttempt, error) {
	if tenantID == uuid.Nil || orderID == uuid.Nil {
		return nil, nil
	}
	return r.firstSucceeded(dbc, "tenant_id = ? AND order_id = ?", tenantID, orderID)
}

func (r *paymentAttemptRepo) GetSucceededByIdempotencyKey(dbc dbctx.Context, tenantID uuid.UUID, key string) (*domain.PaymentAttempt, error) {
	if tenantID == uuid.Nil || key == "" {
		return nil, nil
	}
	return r.firstSucceeded(dbc, "tenant_id = ? AND idempotency_key = ?", tenantID, key)
}

func (r *paymentAttemptRepo) GetSucceededByTransactionRef(dbc dbctx.Context, tenantID uuid.UUID, ref string) (*domain.PaymentAttempt, error) {
	if tenantID == uuid.Nil || ref == "" {
		return nil, nil
	}
	return r.firstSucceeded(dbc, "tenant_id = ? AND transaction_ref = ?", tenantID, ref)
}

func (r *paymentAttemptRepo) firstSucceeded(dbc dbctx.Context, where string, args ...any) (*domain.PaymentAttempt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out domain.PaymentAttempt
	err := transaction.WithContext(dbc.Ctx).
		Where(where, args...).
		Where("status = ?", domain.AttemptSucceeded).
		Order("created_at ASC").
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
