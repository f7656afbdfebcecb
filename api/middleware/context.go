package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
)

type contextKey string

const (
	ctxActor    contextKey = "actor"
	ctxAccessID contextKey = "access_id"
)

// ActorFromContext returns the authenticated account, if any.
func ActorFromContext(ctx context.Context) (pkgAuth.Actor, bool) {
	if ctx == nil {
		return pkgAuth.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(pkgAuth.Actor)
	if !ok || actor.AccountID == uuid.Nil {
		return pkgAuth.Actor{}, false
	}
	return actor, true
}

// RequireActor returns the authenticated account or an unauthorized error.
func RequireActor(ctx context.Context) (pkgAuth.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return pkgAuth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}

func UserIDFromContext(ctx context.Context) string {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ""
	}
	return actor.AccountID.String()
}

func RoleFromContext(ctx context.Context) enums.AccountRole {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ""
	}
	return actor.Role
}

// AccessIDFromContext returns the jti of the presented access token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the authenticated account into the context.
func WithActor(ctx context.Context, actor pkgAuth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// WithAccessID injects the access token id for logout.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}
