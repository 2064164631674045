package auth

import (
	"context"

	"github.com/dukerupert/nutribox/internal/model"
)

type contextKey struct{}

// AuthContext is attached to requests that passed bearer authentication.
type AuthContext struct {
	Principal model.Principal
	TokenID   string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// Principal returns the authenticated principal, or false when the request
// is anonymous.
func Principal(ctx context.Context) (model.Principal, bool) {
	ac, ok := FromContext(ctx)
	if !ok {
		return model.Principal{}, false
	}
	return ac.Principal, true
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.Principal.ID()
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Principal.IsAdmin()
}
