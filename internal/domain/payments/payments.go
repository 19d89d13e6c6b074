package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AttemptStatus classifies one provider invocation.
type AttemptStatus string

const (
	// AttemptPending is the in-flight status; rows are only written once the outcome is known.
	AttemptPending         AttemptStatus = "pending"
	AttemptSucceeded       AttemptStatus = "succeeded"
	AttemptRetryableFailed AttemptStatus = "retryable_failed"
	AttemptTerminalFailed  AttemptStatus = "terminal_failed"
	// AttemptCapturedDuplicate is a real capture that lost the one-success-per-order
	// race and was refunded as compensation.
	AttemptCapturedDuplicate AttemptStatus = "captured_duplicate"
)

type RefundStatus string

const (
	RefundSucceeded RefundStatus = "succeeded"
	RefundFailed    RefundStatus = "failed"
)

const (
	RefundReasonCustomer     = "customer_request"
	RefundReasonCompensation = "compensation"
)

// Payment methods understood by provider configs.
const (
	MethodCard        = "card"
	MethodContactless = "contactless"
	MethodQR          = "qr"
	MethodCash        = "cash"
)

// PaymentAttempt is an append-only audit row for one provider invocation.
// At most one succeeded row may exist per order.
type PaymentAttempt struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID     `gorm:"type:uuid;not null;index:idx_payment_attempt_tenant_key,priority:1" json:"tenant_id"`
	OrderID        uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_payment_attempt_order_succeeded,where:status = 'succeeded'" json:"order_id"`
	Hop            int           `gorm:"column:hop;not null;default:1" json:"hop"`
	Provider       string        `gorm:"column:provider;not null" json:"provider"`
	Method         string        `gorm:"column:method;not null" json:"method"`
	Amount         int64         `gorm:"column:amount;not null" json:"amount"`
	Currency       string        `gorm:"column:currency;not null" json:"currency"`
	Fee            int64         `gorm:"column:fee;not null;default:0" json:"fee"`
	NetAmount      int64         `gorm:"column:net_amount;not null;default:0" json:"net_amount"`
	Status         AttemptStatus `gorm:"column:status;not null" json:"status"`
	TransactionRef string        `gorm:"column:transaction_ref;index" json:"transaction_ref,omitempty"`
	IdempotencyKey string        `gorm:"column:idempotency_key;index:idx_payment_attempt_tenant_key,priority:2" json:"idempotency_key"`
	ErrorDetail    string        `gorm:"column:error_detail;type:text" json:"error_detail,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;index" json:"timestamp"`
}

func (PaymentAttempt) TableName() string { return "payment_attempt" }

// PaymentRefund is an append-only audit row for a refund or compensation.
type PaymentRefund struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_payment_refund_tenant_key,priority:1" json:"tenant_id"`
	OrderID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"order_id"`
	AttemptID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"attempt_id"`
	Provider       string       `gorm:"column:provider;not null" json:"provider"`
	TransactionRef string       `gorm:"column:transaction_ref;not null;index" json:"transaction_ref"`
	RefundRef      string       `gorm:"column:refund_ref" json:"refund_ref,omitempty"`
	Amount         int64        `gorm:"column:amount;not null" json:"amount"`
	Currency       string       `gorm:"column:currency;not null" json:"currency"`
	Status         RefundStatus `gorm:"column:status;not null" json:"status"`
	Reason         string       `gorm:"column:reason;not null" json:"reason"`
	IdempotencyKey string       `gorm:"column:idempotency_key;index:idx_payment_refund_tenant_key,priority:2" json:"idempotency_key"`
	ErrorDetail    string       `gorm:"column:error_detail;type:text" json:"error_detail,omitempty"`
	CreatedAt      time.Time    `gorm:"not null;index" json:"timestamp"`
}

func (PaymentRefund) TableName() string { return "payment_refund" }

// ProviderConfig is a tenant's configuration of one payment processor.
// Lower Priority values are tried first.
type ProviderConfig struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_provider_config_tenant_name,priority:1" json:"tenant_id"`
	Name             string                      `gorm:"column:name;not null;uniqueIndex:idx_provider_config_tenant_name,priority:2" json:"name"`
	Priority         int                         `gorm:"column:priority;not null;default:0" json:"priority"`
	PercentageFee    string                      `gorm:"column:percentage_fee;not null;default:'0'" json:"percentage_fee"`
	FixedFee         int64                       `gorm:"column:fixed_fee;not null;default:0" json:"fixed_fee"`
	SupportedMethods datatypes.JSONSlice[string] `gorm:"column:supported_methods" json:"supported_methods"`
	Available        bool                        `gorm:"column:available;not null" json:"available"`
	CreatedAt        time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"not null" json:"updated_at"`
}

func (ProviderConfig) TableName() string { return "payment_provider_config" }

func (p ProviderConfig) Supports(method string) bool {
	for _, m := range p.SupportedMethods {
		if m == method {
			return true
		}
	}
	return false
}

// TenantPaymentSettings overrides the platform fee for one tenant.
type TenantPaymentSettings struct {
	TenantID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	PlatformFeePercentage string    `gorm:"column:platform_fee_percentage;not null" json:"platform_fee_percentage"`
	UpdatedAt             time.Time `gorm:"not null" json:"updated_at"`
}

func (TenantPaymentSettings) TableName() string { return "tenant_payment_settings" }
