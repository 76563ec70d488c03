package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/laneboard/internal/service/auth"
)

type stubJWTService struct {
	claims *auth.Claims
	err    error

	gotToken string
}

func (s *stubJWTService) GenerateToken(context.Context, uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubJWTService) ValidateToken(_ context.Context, tokenString string) (*auth.Claims, error) {
	s.gotToken = tokenString
	return s.claims, s.err
}

func TestAuthenticate_ValidToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	jwt := &stubJWTService{claims: &auth.Claims{UserID: userID}}
	mw := NewAuthMiddleware(jwt)

	var gotUserID uuid.UUID
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/lanes", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	mw.Authenticate(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, gotOK)
	assert.Equal(t, userID, gotUserID)
	assert.Equal(t, "good-token", jwt.gotToken)
}

func TestAuthenticate_LowercaseBearerScheme(t *testing.T) {
	t.Parallel()

	jwt := &stubJWTService{claims: &auth.Claims{UserID: uuid.New()}}
	mw := NewAuthMiddleware(jwt)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/api/lanes", nil)
	req.Header.Set("Authorization", "bearer good-token")
	rec := httptest.NewRecorder()

	mw.Authenticate(next).ServeHTTP(rec, req)

	assert.True(t, called)
}

func TestAuthenticate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		jwtErr error
	}{
		{"missing header", "", nil},
		{"wrong scheme", "Basic dXNlcjpwYXNz", nil},
		{"empty token", "Bearer ", nil},
		{"invalid token", "Bearer bad", auth.ErrInvalidToken},
		{"expired token", "Bearer old", auth.ErrExpiredToken},
		{"wrong token type", "Bearer refresh", auth.ErrWrongTokenType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			jwt := &stubJWTService{err: tc.jwtErr}
			mw := NewAuthMiddleware(jwt)

			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("next handler must not run")
			})

			req := httptest.NewRequest(http.MethodGet, "/api/lanes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			mw.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGetUserID_MissingFromContext(t *testing.T) {
	t.Parallel()

	_, ok := GetUserID(context.Background())
	assert.False(t, ok)
}
