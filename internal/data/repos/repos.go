package repos

import (
	"gorm.io/gorm"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

type OrderRepo = orders.OrderRepo
type OrderTransitionRepo = orders.OrderTransitionRepo

type PaymentAttemptRepo = payments.PaymentAttemptRepo
type PaymentRefundRepo = payments.PaymentRefundRepo
type ProviderConfigRepo = payments.ProviderConfigRepo
type TenantPaymentSettingsRepo = payments.TenantPaymentSettingsRepo

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return orders.NewOrderRepo(db, baseLog)
}
func NewOrderTransitionRepo(db *gorm.DB, baseLog *logger.Logger) OrderTransitionRepo {
	return orders.NewOrderTransitionRepo(db, baseLog)
}

func NewPaymentAttemptRepo(db *gorm.DB, baseLog *logger.Logger) PaymentAttemptRepo {
	return payments.NewPaymentAttemptRepo(db, baseLog)
}
func NewPaymentRefundRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRefundRepo {
	return payments.NewPaymentRefundRepo(db, baseLog)
}
func NewProviderConfigRepo(db *gorm.DB, baseLog *logger.Logger) ProviderConfigRepo {
	return payments.NewProviderConfigRepo(db, baseLog)
}
func NewTenantPaymentSettingsRepo(db *gorm.DB, baseLog *logger.Logger) TenantPaymentSettingsRepo {
	return payments.NewTenantPaymentSettingsRepo(db, baseLog)
}
