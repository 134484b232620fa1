package jwtverify

import (
	"context"
	"net/http"
	"strings"

	"github.com/fayad123/bcards-server/internal/auth/token"
	commonhttp "github.com/fayad123/bcards-server/internal/common/http"
	"github.com/fayad123/bcards-server/internal/common/logger"
)

type contextKey struct{}

// Middleware resolves the Authorization header. No header leaves the request
// anonymous so the policy can decide; a header that fails verification is
// rejected with 401 before any handler runs.
func Middleware(verifier token.Verifier, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractToken(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "token_rejected",
				}).Warnf("jwt auth failed: %v", err)
				commonhttp.HandleError(w, r, err, log)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Optional is Middleware for public routes: a header that fails
// verification is logged and the request continues anonymously.
func Optional(verifier token.Verifier, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractToken(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "token_ignored",
				}).Debugf("ignoring unverifiable token on public route: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Guard pairs the two middlewares for route tables that mix public and
// protected endpoints.
type Guard struct {
	Required func(http.Handler) http.Handler
	Optional func(http.Handler) http.Handler
}

func NewGuard(verifier token.Verifier, log *logger.Logger) Guard {
	return Guard{
		Required: Middleware(verifier, log),
		Optional: Optional(verifier, log),
	}
}

// extractToken accepts both the raw token and the "Bearer <token>" form.
func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func WithClaims(ctx context.Context, claims token.Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// FromContext returns the verified claims, or nil for an anonymous request.
func FromContext(ctx context.Context) *token.Claims {
	claims, ok := ctx.Value(contextKey{}).(token.Claims)
	if !ok {
		return nil
	}
	return &claims
}
