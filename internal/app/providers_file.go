package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	domain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/payments/providers/acquirer"
)

// ProvidersFile declares the processor adapters a node runs and, optionally,
// per-tenant provider configuration to seed.
type ProvidersFile struct {
	Acquirers []acquirer.Config `yaml:"acquirers"`
	Tenants   []TenantProviders `yaml:"tenants"`
}

type TenantProviders struct {
	TenantID              string          `yaml:"tenant_id"`
	PlatformFeePercentage string          `yaml:"platform_fee_percentage"`
	Providers             []TenantProvider `yaml:"providers"`
}

type TenantProvider struct {
	Name          string   `yaml:"name"`
	Priority      int      `yaml:"priority"`
	PercentageFee string   `yaml:"percentage_fee"`
	FixedFee      int64    `yaml:"fixed_fee"`
	Methods       []string `yaml:"methods"`
	Available     *bool    `yaml:"available"`
}

func LoadProvidersFile(path string) (*ProvidersFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return &ProvidersFile{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	return ParseProvidersFile(raw)
}

func ParseProvidersFile(raw []byte) (*ProvidersFile, error) {
	var pf ProvidersFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	for i, t := range pf.Tenants {
		if _, err := uuid.Parse(strings.TrimSpace(t.TenantID)); err != nil {
			return nil, fmt.Errorf("tenants[%d].tenant_id: %w", i, err)
		}
		if t.PlatformFeePercentage != "" && !payments.ValidPercent(t.PlatformFeePercentage) {
			return nil, fmt.Errorf("tenants[%d].platform_fee_percentage %q is invalid", i, t.PlatformFeePercentage)
		}
		for j, p := range t.Providers {
			if strings.TrimSpace(p.Name) == "" {
				return nil, fmt.Errorf("tenants[%d].providers[%d].name is required", i, j)
			}
			if p.PercentageFee != "" && !payments.ValidPercent(p.PercentageFee) {
				return nil, fmt.Errorf("tenants[%d].providers[%d].percentage_fee %q is invalid", i, j, p.PercentageFee)
			}
			if p.FixedFee < 0 {
				return nil, fmt.Errorf("tenants[%d].providers[%d].fixed_fee must not be negative", i, j)
			}
		}
	}
	return &pf, nil
}

// BuildRegistry constructs one HTTP acquirer adapter per declared acquirer.
func BuildRegistry(log *logger.Logger, pf *ProvidersFile) (*payments.Registry, error) {
	reg := payments.NewRegistry()
	if pf == nil {
		return reg, nil
	}
	for _, cfg := range pf.Acquirers {
		a, err := acquirer.New(log, cfg)
		if err != nil {
			return nil, err
		}
		reg.Register(a)
	}
	return reg, nil
}

// Seed upserts every tenant block. Providers default to available.
func (pf *ProvidersFile) Seed(ctx context.Context, log *logger.Logger, r Repos) (int, error) {
	if pf == nil {
		return 0, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	n := 0
	for _, t := range pf.Tenants {
		tenantID := uuid.MustParse(strings.TrimSpace(t.TenantID))
		if t.PlatformFeePercentage != "" {
			if err := r.TenantPaymentSettings.Upsert(dbc, &domain.TenantPaymentSettings{
				TenantID:              tenantID,
				PlatformFeePercentage: t.PlatformFeePercentage,
			}); err != nil {
				return n, fmt.Errorf("seed settings for %s: %w", tenantID, err)
			}
		}
		for _, p := range t.Providers {
			available := true
			if p.Available != nil {
				available = *p.Available
			}
			pct := p.PercentageFee
			if pct == "" {
				pct = "0"
			}
			row := &domain.ProviderConfig{
				TenantID:         tenantID,
				Name:             strings.TrimSpace(p.Name),
				Priority:         p.Priority,
				PercentageFee:    pct,
				FixedFee:         p.FixedFee,
				SupportedMethods: datatypes.JSONSlice[string](p.Methods),
				Available:        available,
			}
			if err := r.ProviderConfigs.Upsert(dbc, row); err != nil {
				return n, fmt.Errorf("seed provider %s for %s: %w", row.Name, tenantID, err)
			}
			n++
		}
		log.Info("Seeded tenant payment providers", "tenant_id", tenantID, "providers", len(t.Providers))
	}
	return n, nil
}
