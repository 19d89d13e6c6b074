package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
)

// Models lists every persisted table in migration order.
func Models() []any {
	return []any{
		// =========================
		// Orders
		// =========================
		&orders.Order{},
		&orders.OrderTransition{},

		// =========================
		// Payments
		// =========================
		&payments.ProviderConfig{},
		&payments.TenantPaymentSettings{},
		&payments.PaymentAttempt{},
		&payments.PaymentRefund{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
