package app

import (
	"gorm.io/gorm"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

type Repos struct {
	Orders                repos.OrderRepo
	OrderTransitions      repos.OrderTransitionRepo
	PaymentAttempts       repos.PaymentAttemptRepo
	PaymentRefunds        repos.PaymentRefundRepo
	ProviderConfigs       repos.ProviderConfigRepo
	TenantPaymentSettings repos.TenantPaymentSettingsRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Orders:                repos.NewOrderRepo(db, log),
		OrderTransitions:      repos.NewOrderTransitionRepo(db, log),
		PaymentAttempts:       repos.NewPaymentAttemptRepo(db, log),
		PaymentRefunds:        repos.NewPaymentRefundRepo(db, log),
		ProviderConfigs:       repos.NewProviderConfigRepo(db, log),
		TenantPaymentSettings: repos.NewTenantPaymentSettingsRepo(db, log),
	}
}

// NewRepos is wireRepos for callers outside the serve path.
func NewRepos(db *gorm.DB, log *logger.Logger) Repos {
	return wireRepos(db, log)
}
