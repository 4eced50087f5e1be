package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/culturoquest/quest-server/internal/auth/jwt"
	httperrors "github.com/culturoquest/quest-server/pkg/http/errors"
)

type claimsKey struct{}

// ClaimsFromContext returns the validated claims injected by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.Claims)
	return claims, ok
}

// RequireAuth rejects requests without a valid bearer token and injects the
// token claims into the request context.
func RequireAuth(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Expected Bearer token")
				return
			}

			claims, err := svc.ValidateAccessToken(parts[1])
			if err != nil {
				code := httperrors.ErrCodeInvalidToken
				if errors.Is(err, jwt.ErrExpiredToken) {
					code = httperrors.ErrCodeTokenExpired
				}
				httperrors.RespondUnauthorized(w, code, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
