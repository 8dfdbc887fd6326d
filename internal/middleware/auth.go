// Package middleware provides HTTP middleware for the delivery API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/uzmarket/delivery/internal/auth"
	"github.com/uzmarket/delivery/internal/domain/user"
	"github.com/uzmarket/delivery/internal/errors"
	"github.com/uzmarket/delivery/internal/httputil"
	"github.com/uzmarket/delivery/pkg/logger"
)

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores the authenticated user on the context.
func WithActor(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, actorKey, u)
}

// ActorFrom returns the authenticated user, if any.
func ActorFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(actorKey).(user.User)
	return u, ok
}

// UserResolver loads the user behind a verified token subject.
type UserResolver func(ctx context.Context, username string) (user.User, error)

// AuthMiddleware verifies bearer access tokens and attaches the acting user
// to the request context.
type AuthMiddleware struct {
	issuer    *auth.Issuer
	resolve   UserResolver
	logger    *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates a new authentication middleware. Requests to
// skipPaths pass through unauthenticated.
func NewAuthMiddleware(issuer *auth.Issuer, resolve UserResolver, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("middleware")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{
		issuer:    issuer,
		resolve:   resolve,
		logger:    log,
		skipPaths: skip,
	}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, errors.Unauthorized("missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, r, errors.Unauthorized("invalid Authorization header format"))
			return
		}

		claims, err := m.issuer.Verify(parts[1], auth.TypeAccess)
		if err != nil {
			m.logger.WithError(err).Warn("token validation failed")
			m.respondError(w, r, err)
			return
		}

		actor, err := m.resolve(r.Context(), claims.Subject)
		if err != nil {
			m.respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteServiceError(w, err)

	status := http.StatusInternalServerError
	if serviceErr := errors.GetServiceError(err); serviceErr != nil {
		status = serviceErr.HTTPStatus
	}
	m.logger.WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": status,
	}).Warn("authentication failed")
}
