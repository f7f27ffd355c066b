package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// IdentityKey is the context key for storing the authenticated staff identity.
const IdentityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentity extracts the identity from the context.
func GetIdentity(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(models.Identity)
	return identity, ok
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	identity, _ := GetIdentity(ctx)
	return identity.ID
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the identity to the request context. Procedures listed in public skip the check.
func RequireAuth(jwtManager *auth.JWTManager, public ...string) connect.UnaryInterceptorFunc {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if open[req.Spec().Procedure] {
				return next(ctx, req)
			}

			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			// Parse Bearer token
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || scheme != "Bearer" || token == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithIdentity(ctx, claims.Identity()), req)
		}
	}
}

// RequireArea returns a middleware that rejects calls whose procedure belongs
// to an area the caller's role may not reach. It must run after RequireAuth.
// Procedures absent from areas are not gated.
func RequireArea(areas map[string]session.Area) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			area, gated := areas[req.Spec().Procedure]
			if !gated {
				return next(ctx, req)
			}

			identity, ok := GetIdentity(ctx)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}
			if !session.CanAccess(identity.Role, area) {
				slog.Warn("Access denied",
					"procedure", req.Spec().Procedure,
					"user_id", identity.ID,
					"role", identity.Role,
				)
				return nil, connect.NewError(connect.CodePermissionDenied,
					fmt.Errorf("%w: %s cannot open %s", session.ErrForbidden, identity.Role, area))
			}
			return next(ctx, req)
		}
	}
}
