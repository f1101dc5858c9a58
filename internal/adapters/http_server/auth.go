package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

type ctxKey int

const userIDKey ctxKey = iota

// Claims carried by the identity provider's access tokens. Older tokens only
// set "sub", so Subject is the fallback for UserID.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) user() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

var errNoSecret = errors.New("jwt secret not configured")

// ParseUser validates an HS256 bearer token and returns the caller's id.
func ParseUser(secret []byte, raw string) (string, error) {
	if len(secret) == 0 {
		return "", errNoSecret
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(claims.user())
	if id == "" {
		return "", errors.New("token carries no user id")
	}
	return id, nil
}

// RequireUser rejects requests without a valid bearer token and stores the
// caller's id in the request context.
func RequireUser(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			id, err := ParseUser(secret, strings.TrimSpace(raw))
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected token")
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the authenticated caller, or "" outside RequireUser.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
