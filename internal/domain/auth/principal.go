package auth

import "github.com/google/uuid"

type Role string

const (
	RoleStaff         Role = "staff"
	RoleManager       Role = "manager"
	RoleOwner         Role = "owner"
	RolePlatformAdmin Role = "platform_admin"
)

// Principal is the authenticated identity as issued by the identity service.
// The triple is trusted as-is.
type Principal struct {
	ID      string      `json:"id"`
	Role    Role        `json:"role"`
	Tenants []uuid.UUID `json:"tenants"`
}

func (p Principal) Valid() bool {
	return p.ID != ""
}

// EntitledTo reports whether the principal may act within tenantID.
func (p Principal) EntitledTo(tenantID uuid.UUID) bool {
	if tenantID == uuid.Nil {
		return false
	}
	if p.Role == RolePlatformAdmin {
		return true
	}
	for _, t := range p.Tenants {
		if t == tenantID {
			return true
		}
	}
	return false
}

// CanCancelFor reports whether the principal may cancel an order created by createdBy.
func (p Principal) CanCancelFor(createdBy string) bool {
	switch p.Role {
	case RoleManager, RoleOwner, RolePlatformAdmin:
		return true
	}
	return p.ID != "" && p.ID == createdBy
}

// CanRefund reports whether the principal may return captured funds.
func (p Principal) CanRefund() bool {
	switch p.Role {
	case RoleManager, RoleOwner, RolePlatformAdmin:
		return true
	}
	return false
}
