package middleware

import (
	"context"
	"net/http"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/callable"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/services"
)

type principalKey struct{}

// RequireAuth rejects requests without a valid bearer ID token and stores
// the verified caller in the request context.
func RequireAuth(tokens services.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := callable.Authenticate(r.Context(), tokens, r)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			if caller == nil {
				WriteError(w, r, apperrors.Unauthenticated("authenticate", "the request must be authenticated"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, caller)))
		})
	}
}

// Caller returns the principal RequireAuth stored in ctx.
func Caller(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey{}).(*models.Principal)
	return p
}
