package app

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/testutil"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

const sampleProviders = `
acquirers:
  - name: stripe
    base_url: https://stripe.internal.example
    api_key: sk_test
  - name: square
    base_url: https://square.internal.example
tenants:
  - tenant_id: 7f2c0c8e-3f7b-4a50-9a55-0d6b3f1d2a11
    platform_fee_percentage: "0.5"
    providers:
      - name: stripe
        priority: 1
        percentage_fee: "1.4"
        fixed_fee: 20
        methods: [card, wallet]
      - name: square
        priority: 2
        percentage_fee: "1.75"
        methods: [card]
        available: false
`

func TestParseProvidersFileAndBuildRegistry(t *testing.T) {
	pf, err := ParseProvidersFile([]byte(sampleProviders))
	if err != nil {
		t.Fatalf("ParseProvidersFile: %v", err)
	}
	if len(pf.Acquirers) != 2 || len(pf.Tenants) != 1 || len(pf.Tenants[0].Providers) != 2 {
		t.Fatalf("parsed: got=%+v", pf)
	}
	reg, err := BuildRegistry(logger.Nop(), pf)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	for _, name := range []string{"stripe", "square"} {
		if _, ok := reg.Get(name); !ok {
			t.Fatalf("registry missing %s", name)
		}
	}
}

func TestParseProvidersFileRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"tenant id":  "tenants:\n  - tenant_id: nope\n",
		"percentage": "tenants:\n  - tenant_id: 7f2c0c8e-3f7b-4a50-9a55-0d6b3f1d2a11\n    providers:\n      - name: x\n        percentage_fee: \"-2\"\n",
		"name":       "tenants:\n  - tenant_id: 7f2c0c8e-3f7b-4a50-9a55-0d6b3f1d2a11\n    providers:\n      - priority: 1\n",
	}
	for name, raw := range cases {
		if _, err := ParseProvidersFile([]byte(raw)); err == nil {
			t.Fatalf("%s: want error", name)
		}
	}
}

func TestSeedUpsertsProvidersAndSettings(t *testing.T) {
	pf, err := ParseProvidersFile([]byte(sampleProviders))
	if err != nil {
		t.Fatalf("ParseProvidersFile: %v", err)
	}
	log := logger.Nop()
	r := NewRepos(testutil.DB(t), log)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		n, err := pf.Seed(ctx, log, r)
		if err != nil {
			t.Fatalf("Seed #%d: %v", i, err)
		}
		if n != 2 {
			t.Fatalf("seeded: want=2 got=%d", n)
		}
	}

	tenantID := uuid.MustParse("7f2c0c8e-3f7b-4a50-9a55-0d6b3f1d2a11")
	rows, err := r.ProviderConfigs.ListByTenant(dbctx.Context{Ctx: ctx}, tenantID)
	if err != nil {
		t.Fatalf("ListByTenant: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows after reseed: want=2 got=%d", len(rows))
	}
	if rows[0].Name != "stripe" || !rows[0].Available || !rows[0].Supports("wallet") {
		t.Fatalf("first row: got=%+v", rows[0])
	}
	if rows[1].Name != "square" || rows[1].Available {
		t.Fatalf("second row: want unavailable square got=%+v", rows[1])
	}
	settings, err := r.TenantPaymentSettings.Get(dbctx.Context{Ctx: ctx}, tenantID)
	if err != nil || settings == nil || settings.PlatformFeePercentage != "0.5" {
		t.Fatalf("settings: got=%+v err=%v", settings, err)
	}
}
