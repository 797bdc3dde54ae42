package service

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxUserIDKey ctxKey = "userID"
	ctxRoleKey   ctxKey = "role"
)

// Role comes from the external auth collaborator; the engine only consumes it.
type Role string

const (
	RoleTeamMember     Role = "ROLE_TEAM_MEMBER"
	RoleWarehouseStaff Role = "ROLE_WAREHOUSE_STAFF"
	RoleWarehouseAdmin Role = "ROLE_WAREHOUSE_ADMIN"
)

// CanManageWarehouse: staff and admin may fulfill, adjust and receive.
func (r Role) CanManageWarehouse() bool {
	return r == RoleWarehouseStaff || r == RoleWarehouseAdmin
}

func (r Role) IsAdmin() bool { return r == RoleWarehouseAdmin }

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, id)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ctxUserIDKey).(uuid.UUID)
	return v, ok
}

func WithRole(ctx context.Context, r Role) context.Context {
	return context.WithValue(ctx, ctxRoleKey, r)
}

func RoleFromContext(ctx context.Context) (Role, bool) {
	v, ok := ctx.Value(ctxRoleKey).(Role)
	return v, ok
}

func requireAuth(ctx context.Context) (uuid.UUID, Role, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}
	role, ok := RoleFromContext(ctx)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}
	return uid, role, nil
}

func requireStaff(ctx context.Context) (uuid.UUID, error) {
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if !role.CanManageWarehouse() {
		return uuid.Nil, ErrForbidden
	}
	return uid, nil
}

func requireAdmin(ctx context.Context) (uuid.UUID, error) {
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if !role.IsAdmin() {
		return uuid.Nil, ErrForbidden
	}
	return uid, nil
}
