package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/utils"
	"github.com/sirupsen/logrus"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying the authenticated principal
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal attached by AuthMiddleware
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	return p, ok && p.ID > 0
}

// Authenticator resolves a bearer token to a principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Principal, error)
}

// AuthMiddleware rejects requests without a valid bearer token and attaches
// the principal to the request context
func AuthMiddleware(auth Authenticator, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				utils.WriteError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			p, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				log.Debugf("Rejected token on %s %s: %v", r.Method, r.URL.Path, err)
				utils.WriteError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
