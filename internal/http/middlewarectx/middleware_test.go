package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/review-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/review-service/internal/models"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*models.Identity, error) {
	args := m.Called(ctx, token)
	id, _ := args.Get(0).(*models.Identity)
	return id, args.Error(1)
}

type AccessCheckerMock struct {
	mock.Mock
}

func (m *AccessCheckerMock) CheckAccess(ctx context.Context, userUID string) error {
	return m.Called(ctx, userUID).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	identity := &models.Identity{UserUID: "user-1", Role: models.RoleUser}

	tests := []struct {
		name       string
		authHeader string
		setupMock  func(m *AuthServiceMock)
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "missing Authorization header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid Authorization header prefix",
			authHeader: "Basic sometoken",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty bearer token",
			authHeader: "Bearer ",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token validation error",
			authHeader: "Bearer token",
			setupMock: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "token").Return(nil, errors.New("expired"))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			authHeader: "Bearer validtoken",
			setupMock: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "validtoken").Return(identity, nil)
			},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(authMock)
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				assert.Equal(t, identity, middlewarectx.IdentityFromContext(r.Context()))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rr.Body.String(), "Unauthorized")
			}
			authMock.AssertExpectations(t)
		})
	}
}

func TestOptionalJWTMiddleware(t *testing.T) {
	identity := &models.Identity{UserUID: "user-1", Role: models.RoleUser}

	tests := []struct {
		name       string
		authHeader string
		setupMock  func(m *AuthServiceMock)
		want       *models.Identity
	}{
		{name: "anonymous", want: nil},
		{
			name:       "invalid token treated as anonymous",
			authHeader: "Bearer bad",
			setupMock: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "bad").Return(nil, errors.New("invalid"))
			},
			want: nil,
		},
		{
			name:       "valid token",
			authHeader: "Bearer good",
			setupMock: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "good").Return(identity, nil)
			},
			want: identity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(authMock)
			}

			var got *models.Identity
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got = middlewarectx.IdentityFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			middlewarectx.OptionalJWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

			require.True(t, called)
			assert.Equal(t, tt.want, got)
			authMock.AssertExpectations(t)
		})
	}
}

func TestSubscriptionStatusMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		identity   *models.Identity
		checkErr   error
		wantStatus int
		wantCalled bool
	}{
		{name: "no identity", wantStatus: http.StatusUnauthorized},
		{name: "access granted", identity: &models.Identity{UserUID: "u1"}, wantStatus: http.StatusOK, wantCalled: true},
		{name: "subscription inactive", identity: &models.Identity{UserUID: "u1"}, checkErr: models.ErrSubscriptionInactive, wantStatus: http.StatusForbidden},
		{name: "storage failure", identity: &models.Identity{UserUID: "u1"}, checkErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(AccessCheckerMock)
			if tt.identity != nil {
				checker.On("CheckAccess", mock.Anything, tt.identity.UserUID).Return(tt.checkErr)
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), tt.identity))
			}
			rr := httptest.NewRecorder()
			middlewarectx.SubscriptionStatusMiddleware(newNoopLogger(), checker)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			checker.AssertExpectations(t)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 2)
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger(), limiter)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	do := func(uid string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(middlewarectx.WithIdentity(req.Context(), &models.Identity{UserUID: uid}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do("alice"))
	assert.Equal(t, http.StatusOK, do("alice"))
	assert.Equal(t, http.StatusTooManyRequests, do("alice"))

	// у каждого пользователя свой лимит
	assert.Equal(t, http.StatusOK, do("bob"))
}

func TestRateLimitMiddleware_AnonymousByIP(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 1)
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger(), limiter)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:2222"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1111"))
}
