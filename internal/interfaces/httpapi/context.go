package httpapi

import (
	"context"
	"fmt"

	"github.com/riskibarqy/matchday/internal/domain/user"
	"github.com/riskibarqy/matchday/internal/usecase"
)

type contextKey string

const principalContextKey contextKey = "auth_principal"

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(user.Principal)
	return p, ok
}

// actorID names the caller for audit fields. Routes behind RequireRole
// always carry a principal.
func actorID(ctx context.Context) (string, error) {
	p, ok := principalFromContext(ctx)
	if !ok || p.UserID == "" {
		return "", fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return p.UserID, nil
}
