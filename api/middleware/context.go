package middleware

import (
	"context"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxEmail  contextKey = "email"
)

func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRole)
}

func EmailFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxEmail)
}

// Caller is the authenticated identity seeded by Auth. ok is false when the
// context carries no parseable user id.
func Caller(ctx context.Context) (userID uuid.UUID, role enums.UserRole, ok bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, "", false
	}
	return id, enums.UserRole(RoleFromContext(ctx)), true
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the caller role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
