package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/laneboard/internal/api/shared"
	"github.com/phrazzld/laneboard/internal/service/auth"
)

// AuthMiddleware validates JWT access tokens and stores the authenticated
// user ID in the request context.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given JWT service.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// Authenticate rejects requests without a valid Bearer token. On success the
// user ID from the token claims is placed in the request context under
// shared.UserIDContextKey.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			msg := "invalid authentication token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "authentication token has expired"
			}
			shared.RespondWithError(w, r, http.StatusUnauthorized, msg)
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken pulls the token out of the Authorization header. The
// scheme comparison is case-insensitive per RFC 7235.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

// GetUserID retrieves the authenticated user's ID from the context.
// The boolean is false when the request did not pass through Authenticate.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok
}
