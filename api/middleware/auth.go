package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/clayhaus/clayhaus-backend/api/responses"
	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/auth/session"
	"github.com/clayhaus/clayhaus-backend/pkg/config"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
)

const bearerPrefix = "bearer "

// Auth requires a valid access token whose session is still live in Redis,
// then stores the actor and token id on the request context.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticate(r.Context(), r.Header.Get("Authorization"), cfg, sessions)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if logg != nil {
				actor, _ := ActorFromContext(ctx)
				ctx = logg.WithUserID(ctx, actor.AccountID.String())
				ctx = logg.WithActorRole(ctx, string(actor.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, header string, cfg config.JWTConfig, sessions session.AccessSessionChecker) (context.Context, error) {
	raw := bearerToken(header)
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if sessions != nil {
		live, err := sessions.HasSession(ctx, claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !live {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}

	ctx = WithActor(ctx, pkgAuth.Actor{AccountID: claims.AccountID, Role: claims.Role})
	return WithAccessID(ctx, claims.ID), nil
}

// bearerToken accepts the scheme in any case. A bare token without a
// scheme is passed through as is.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		header = header[len(bearerPrefix):]
	}
	return strings.TrimSpace(header)
}
