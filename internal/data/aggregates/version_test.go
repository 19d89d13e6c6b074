package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/testutil"
	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
)

func TestVersionGuardAdvance(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	o := repotest.SeedOrder(t, ctx, db, tenantID, orders.StateDraft, 0)
	guard := NewVersionGuard(db)
	dbc := dbctx.Context{Ctx: ctx}

	next, err := guard.Advance(dbc, o.TableName(), tenantID, o.ID, 0, map[string]any{"state": string(orders.StateValidated)})
	if err != nil || next != 1 {
		t.Fatalf("advance: want=(1,nil) got=(%d,%v)", next, err)
	}
	var stored orders.Order
	if err := db.First(&stored, "id = ?", o.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Version != 1 || stored.State != orders.StateValidated {
		t.Fatalf("stored: want=(validated,1) got=(%s,%d)", stored.State, stored.Version)
	}

	if _, err := guard.Advance(dbc, o.TableName(), tenantID, o.ID, 0, nil); !domainagg.IsCode(Classify("op", err), domainagg.CodeConflict) {
		t.Fatalf("stale advance: want=conflict got=%v", err)
	}
	if _, err := guard.Advance(dbc, o.TableName(), uuid.New(), o.ID, 1, nil); !domainagg.IsCode(Classify("op", err), domainagg.CodeConflict) {
		t.Fatalf("foreign tenant: want=conflict got=%v", err)
	}
	if _, err := guard.Advance(dbc, o.TableName(), tenantID, o.ID, -1, nil); !domainagg.IsCode(Classify("op", err), domainagg.CodeValidation) {
		t.Fatalf("negative version: want=validation got=%v", err)
	}
}

func TestCheckVersion(t *testing.T) {
	if err := checkVersion(3, 3); err != nil {
		t.Fatalf("match: %v", err)
	}
	if err := Classify("op", checkVersion(4, 3)); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("mismatch: want=conflict got=%v", err)
	}
}
