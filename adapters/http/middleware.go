package verifyhttp

import (
	"context"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	core "github.com/itellico/verifykit/core"
)

type userCtxKey string

const ctxKeyUserID userCtxKey = "verifykit.user_id"

// UserID returns the authenticated subject set by Required, or "".
func UserID(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyUserID).(string)
	return s
}

// Required validates the Bearer token (HS256 JWT), enforces iss/exp, and
// stores the subject in the request context.
func Required(svc *core.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r.Header.Get("Authorization"))
			if tokenStr == "" {
				unauthorized(w, codeUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, svc.Keyfunc(),
				jwt.WithExpirationRequired(),
				jwt.WithLeeway(60*time.Second),
				jwt.WithIssuer(svc.Options().Issuer),
			)
			if err != nil || !token.Valid {
				unauthorized(w, codeUnauthorized)
				return
			}
			sub, _ := claims["sub"].(string)
			if strings.TrimSpace(sub) == "" {
				unauthorized(w, codeUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUserID, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
