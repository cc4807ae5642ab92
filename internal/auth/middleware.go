package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const playerIDKey contextKey = "player_id"

// Middleware returns an HTTP middleware that validates Bearer access
// tokens and stores the player ID in the request context. Refresh
// tokens are rejected here; they are only good at the refresh endpoint.
func Middleware(jwtMgr *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				deny(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				deny(w, "invalid authorization format")
				return
			}

			claims, err := jwtMgr.ValidateAccessToken(parts[1])
			if err != nil {
				deny(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), playerIDKey, claims.PlayerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}

// PlayerIDFromContext extracts the authenticated player ID from the
// request context.
func PlayerIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(playerIDKey).(string)
	return id
}
