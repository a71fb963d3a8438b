package model

import "github.com/google/uuid"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Principal is the authenticated session identity passed into every
// operation. Built from the access token at login, torn down with the session.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccessOrder reports whether the principal may read or mutate the order.
func (p Principal) CanAccessOrder(o Order) bool {
	return p.IsAdmin() || p.UserID == o.UserID
}
