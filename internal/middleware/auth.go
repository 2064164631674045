package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/auth"
)

// TokenResolver turns a raw bearer token into an authenticated context.
type TokenResolver interface {
	ResolveToken(ctx context.Context, raw string) (auth.AuthContext, error)
}

// RequireAuth validates the Authorization bearer token and populates
// AuthContext. Missing, expired or revoked tokens get a 401 JSON error.
func RequireAuth(resolver TokenResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, "missing bearer token")
				return
			}

			ac, err := resolver.ResolveToken(r.Context(), raw)
			if err != nil {
				if apperr.KindOf(err) == apperr.KindUnauthorized {
					w.Header().Set("WWW-Authenticate", "Bearer")
					writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, err.Error())
					return
				}
				logger.Error("resolve token", "error", err)
				writeError(w, http.StatusInternalServerError, "", "internal error")
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, apperr.KindPermission, "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WebSocketPath is the only route that accepts the access_token query
// parameter.
const WebSocketPath = "/ws"

// bearerToken extracts the token from "Authorization: Bearer <token>". An
// upgrade request to WebSocketPath may pass it as the access_token query
// parameter since browsers cannot set headers on upgrade requests.
func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	if r.URL.Path == WebSocketPath && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}
