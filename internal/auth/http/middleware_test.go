package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/identity/internal/audit/domain"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSessionUseCase resolves a fixed token to a fixed user.
type stubSessionUseCase struct {
	token string
	user  *identityDomain.User
	err   error
}

func (s *stubSessionUseCase) VerifyCredentials(_ context.Context, _, _ string) (*identityDomain.User, error) {
	return nil, nil
}

func (s *stubSessionUseCase) Login(_ context.Context, _, _ string, _ bool) (string, *identityDomain.User, error) {
	return "", nil, nil
}

func (s *stubSessionUseCase) AuthenticateToken(_ context.Context, token string) (*identityDomain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token == s.token {
		return s.user, nil
	}
	return nil, nil
}

func (s *stubSessionUseCase) Logout(_ context.Context, _ string, _ *identityDomain.User) error {
	return nil
}

func (s *stubSessionUseCase) CleanupExpiredSessions(_ context.Context) (int64, error) {
	return 0, nil
}

func memberOf(groupName string) *identityDomain.User {
	group := &identityDomain.Group{ID: uuid.Must(uuid.NewV7()), Name: groupName}
	return &identityDomain.User{
		ID:       uuid.Must(uuid.NewV7()),
		Username: "maria",
		IsActive: true,
		GroupID:  &group.ID,
		Group:    group,
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestSessionMiddleware(t *testing.T) {
	logger := testLogger()

	t.Run("AnonymousPassesThrough", func(t *testing.T) {
		router := newRouter()
		router.Use(SessionMiddleware(&stubSessionUseCase{}, logger))
		router.GET("/", func(c *gin.Context) {
			_, ok := GetUser(c.Request.Context())
			assert.False(t, ok)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("CookieTokenResolvesUser", func(t *testing.T) {
		maria := memberOf(identityDomain.GroupUser)
		router := newRouter()
		router.Use(SessionMiddleware(&stubSessionUseCase{token: "tok-1", user: maria}, logger))
		router.GET("/", func(c *gin.Context) {
			user, ok := GetUser(c.Request.Context())
			require.True(t, ok)
			assert.Equal(t, "maria", user.Username)
			assert.Equal(t, "tok-1", GetSessionToken(c.Request.Context()))
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok-1"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("BearerTokenResolvesUser", func(t *testing.T) {
		maria := memberOf(identityDomain.GroupUser)
		router := newRouter()
		router.Use(SessionMiddleware(&stubSessionUseCase{token: "tok-2", user: maria}, logger))
		router.GET("/", func(c *gin.Context) {
			_, ok := GetUser(c.Request.Context())
			assert.True(t, ok)
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok-2")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("UnknownTokenStaysAnonymous", func(t *testing.T) {
		router := newRouter()
		router.Use(SessionMiddleware(&stubSessionUseCase{}, logger))
		router.GET("/", func(c *gin.Context) {
			_, ok := GetUser(c.Request.Context())
			assert.False(t, ok)
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "ghost"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireUser(t *testing.T) {
	logger := testLogger()

	router := newRouter()
	router.Use(SessionMiddleware(&stubSessionUseCase{}, logger))
	router.GET("/", RequireUser(logger), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermission(t *testing.T) {
	logger := testLogger()

	setup := func(user *identityDomain.User, permission identityDomain.Permission) *httptest.ResponseRecorder {
		router := newRouter()
		sessions := &stubSessionUseCase{}
		if user != nil {
			sessions.token = "tok"
			sessions.user = user
		}
		router.Use(SessionMiddleware(sessions, logger))
		router.GET("/", RequirePermission(permission, logger), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != nil {
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("AnonymousGets401", func(t *testing.T) {
		w := setup(nil, identityDomain.PermissionAddUser)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("RegularUserGets403", func(t *testing.T) {
		w := setup(memberOf(identityDomain.GroupUser), identityDomain.PermissionAddUser)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("AdminLacksDeleteUser", func(t *testing.T) {
		w := setup(memberOf(identityDomain.GroupAdmin), identityDomain.PermissionDeleteUser)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("AdminHasAddUser", func(t *testing.T) {
		w := setup(memberOf(identityDomain.GroupAdmin), identityDomain.PermissionAddUser)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("SuperAdminHasEverything", func(t *testing.T) {
		w := setup(memberOf(identityDomain.GroupSuperAdmin), identityDomain.PermissionDeleteUser)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestClientContextMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		expectedIP string
	}{
		{
			name:       "forwarded for single hop",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			expectedIP: "203.0.113.7",
		},
		{
			name:       "forwarded for takes first hop",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			expectedIP: "203.0.113.7",
		},
		{
			name:       "real ip fallback",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			expectedIP: "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter()
			router.Use(ClientContextMiddleware())
			router.GET("/", func(c *gin.Context) {
				cc := auditDomain.ClientContextFrom(c.Request.Context())
				assert.Equal(t, tt.expectedIP, cc.IP)
				assert.Equal(t, "test-agent", cc.UserAgent)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("User-Agent", "test-agent")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	logger := testLogger()

	router := newRouter()
	router.Use(LoginRateLimitMiddleware(1, 2, logger))
	router.POST("/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Real-IP", "203.0.113.5")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	// A different IP holds its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Real-IP", "203.0.113.6")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
