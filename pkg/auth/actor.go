package auth

import (
	"github.com/google/uuid"

	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

// Actor is the authenticated principal a service call is made on behalf of.
type Actor struct {
	AccountID uuid.UUID
	Role      enums.AccountRole
}

// IsAdmin reports whether the actor holds the marketplace admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.AccountRoleAdmin
}

// Is reports whether the actor is the given account.
func (a Actor) Is(id uuid.UUID) bool {
	return id != uuid.Nil && a.AccountID == id
}

// IsSelfOrAdmin allows the account itself or the admin.
func (a Actor) IsSelfOrAdmin(id uuid.UUID) bool {
	return a.IsAdmin() || a.Is(id)
}
