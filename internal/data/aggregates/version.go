package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
)

// VersionGuard advances the version column of tenant-scoped rows.
type VersionGuard struct {
	db *gorm.DB
}

func NewVersionGuard(db *gorm.DB) VersionGuard {
	return VersionGuard{db: db}
}

// Advance applies updates and bumps version to expected+1 in one statement,
// matching on tenant, id and the expected version. A row that moved on, or
// never existed for this tenant, yields a conflict.
func (g VersionGuard) Advance(dbc dbctx.Context, table string, tenantID, id uuid.UUID, expected int, updates map[string]any) (int, error) {
	table = strings.TrimSpace(table)
	if table == "" || tenantID == uuid.Nil || id == uuid.Nil {
		return 0, ValidationError("table, tenant_id and id are required to advance a version")
	}
	if expected < 0 {
		return 0, ValidationError("expected_version must be >= 0")
	}
	db := dbc.Tx
	if db == nil {
		db = g.db
	}
	if db == nil {
		return 0, ValidationError("no transaction for version advance")
	}

	next := expected + 1
	cols := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		cols[k] = v
	}
	cols["version"] = next

	res := db.WithContext(dbc.Ctx).Table(table).
		Where("id = ? AND tenant_id = ? AND version = ?", id, tenantID, expected).
		Updates(cols)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ConflictError(fmt.Sprintf("%s %s is no longer at version %d", table, id, expected))
	}
	return next, nil
}

// checkVersion compares the version a caller read against the stored one.
func checkVersion(stored, expected int) error {
	switch {
	case expected < 0:
		return ValidationError("expected_version must be >= 0")
	case stored != expected:
		return ConflictError(fmt.Sprintf("version mismatch: stored=%d expected=%d", stored, expected))
	}
	return nil
}
