package http

import (
	"context"
	"net/http"
	"strings"

	"legal-battle-service/internal/auth"
	"legal-battle-service/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userId"

// Identity resolves the calling user. With tokens configured it requires a
// bearer token (or ?token= for websockets); without, it trusts the userId
// query parameter or X-User-ID header, which is only meant for local play.
type Identity struct {
	tokens *auth.Tokens
}

func NewIdentity(tokens *auth.Tokens) *Identity {
	return &Identity{tokens: tokens}
}

// Require rejects requests without a resolvable user.
func (m *Identity) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.resolve(r)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Identity) resolve(r *http.Request) (string, error) {
	if m.tokens == nil {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			userID = r.Header.Get("X-User-ID")
		}
		if userID == "" {
			return "", domain.ErrUnauthorized
		}
		return userID, nil
	}

	token := extractBearerToken(r)
	if token == "" {
		// Browsers can't set headers on websocket upgrades.
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	return m.tokens.Validate(token)
}

// UserID extracts the authenticated user from ctx.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
