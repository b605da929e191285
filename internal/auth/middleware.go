package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserResolver checks that a credential still maps to an existing account
type UserResolver interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	issuer *TokenIssuer
	users  UserResolver
	logger *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(issuer *TokenIssuer, users UserResolver, logger *zap.Logger) *Middleware {
	return &Middleware{
		issuer: issuer,
		users:  users,
		logger: logger,
	}
}

// Authenticate rejects requests whose bearer credential is missing, malformed,
// or does not resolve to an existing identity
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		userCtx, err := m.issuer.Validate(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		exists, err := m.users.Exists(r.Context(), userCtx.UserID)
		if err != nil {
			m.logger.Error("user lookup failed during authentication", zap.Error(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !exists {
			m.logger.Warn("token resolved to unknown user",
				zap.String("user_id", userCtx.UserID.String()),
			)
			http.Error(w, "Unauthorized: unknown identity", http.StatusUnauthorized)
			return
		}

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
