package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LineItem is one priced entry of an order. Prices are minor currency units.
type LineItem struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Totals are derived from line items at creation and never corrected afterwards.
type Totals struct {
	Subtotal int64 `gorm:"column:subtotal;not null;default:0" json:"subtotal"`
	Tax      int64 `gorm:"column:tax;not null;default:0" json:"tax"`
	Total    int64 `gorm:"column:total;not null;default:0" json:"total"`
}

type Order struct {
	ID        uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID                     `gorm:"type:uuid;not null;index:idx_order_tenant_state,priority:1" json:"tenant_id"`
	State     State                         `gorm:"column:state;not null;index:idx_order_tenant_state,priority:2" json:"state"`
	LineItems datatypes.JSONSlice[LineItem] `gorm:"column:line_items" json:"line_items"`
	Totals    Totals                        `gorm:"embedded" json:"totals"`
	Currency  string                        `gorm:"column:currency;not null" json:"currency"`
	Version   int                           `gorm:"column:version;not null;default:0" json:"version"`
	CreatedBy string                        `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt time.Time                     `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time                     `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "pos_order" }

// ComputeTotals sums line items; tax is applied in basis points, rounded half up.
func ComputeTotals(items []LineItem, taxBasisPoints int64) Totals {
	var subtotal int64
	for _, it := range items {
		subtotal += it.Quantity * it.UnitPrice
	}
	tax := (subtotal*taxBasisPoints + 5000) / 10000
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal + tax}
}

// OrderTransition is an append-only record of one committed lifecycle step.
type OrderTransition struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_transition_order_version,priority:1" json:"order_id"`
	Version   int       `gorm:"column:version;not null;uniqueIndex:idx_order_transition_order_version,priority:2" json:"version"`
	FromState State     `gorm:"column:from_state;not null" json:"from_state"`
	ToState   State     `gorm:"column:to_state;not null" json:"to_state"`
	Event     Event     `gorm:"column:event;not null" json:"event"`
	Actor     string    `gorm:"column:actor;not null" json:"actor"`
	Reason    string    `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Timestamp time.Time `gorm:"column:occurred_at;not null;index" json:"timestamp"`
}

func (OrderTransition) TableName() string { return "pos_order_transition" }
