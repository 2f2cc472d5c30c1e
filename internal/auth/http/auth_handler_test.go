package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/identity/internal/auth/domain"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityUseCase "github.com/allisson/identity/internal/identity/usecase"
)

// fakeSessionUseCase drives the login and logout handlers.
type fakeSessionUseCase struct {
	stubSessionUseCase
	loginToken   string
	loginUser    *identityDomain.User
	loginErr     error
	loggedOut    []string
	logoutCalled bool
}

func (f *fakeSessionUseCase) Login(_ context.Context, _, _ string, _ bool) (string, *identityDomain.User, error) {
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return f.loginToken, f.loginUser, nil
}

func (f *fakeSessionUseCase) Logout(_ context.Context, token string, _ *identityDomain.User) error {
	f.logoutCalled = true
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

// fakeUserUseCase drives the register handler.
type fakeUserUseCase struct {
	registerErr error
}

func (f *fakeUserUseCase) CreateUser(_ context.Context, _ *identityDomain.User, _ identityUseCase.CreateUserInput) (*identityDomain.PublicUser, error) {
	return nil, nil
}

func (f *fakeUserUseCase) RegisterUser(_ context.Context, input identityUseCase.RegisterUserInput) (*identityDomain.PublicUser, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	public := identityDomain.PublicUser{Username: input.Username, IsActive: true, GroupName: identityDomain.GroupUser}
	return &public, nil
}

func (f *fakeUserUseCase) UpdateUser(_ context.Context, _ *identityDomain.User, _ uuid.UUID, _ identityUseCase.UpdateUserInput) (*identityDomain.PublicUser, error) {
	return nil, nil
}

func (f *fakeUserUseCase) DeleteUser(_ context.Context, _ *identityDomain.User, _ uuid.UUID) error {
	return nil
}

func (f *fakeUserUseCase) ChangePassword(_ context.Context, _ *identityDomain.User, _ uuid.UUID, _, _ string) error {
	return nil
}

func (f *fakeUserUseCase) ChangeGroup(_ context.Context, _ *identityDomain.User, _ uuid.UUID, _ string) (*identityDomain.PublicUser, error) {
	return nil, nil
}

func (f *fakeUserUseCase) GetUser(_ context.Context, _ uuid.UUID) (*identityDomain.PublicUser, error) {
	return nil, nil
}

func (f *fakeUserUseCase) ListUsers(_ context.Context, _, _ int) ([]identityDomain.PublicUser, error) {
	return nil, nil
}

func postJSON(router *gin.Engine, path string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandlerLogin(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		maria := memberOf(identityDomain.GroupUser)
		sessions := &fakeSessionUseCase{loginToken: "tok-1", loginUser: maria}
		handler := NewAuthHandler(sessions, &fakeUserUseCase{}, logger, time.Hour, 30*24*time.Hour)

		router := newRouter()
		router.POST("/v1/auth/login", handler.LoginHandler)

		w := postJSON(router, "/v1/auth/login", map[string]any{
			"username": "maria",
			"password": "Sup3rSecret",
			"next":     "/users/5/",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"token":"tok-1"`)
		assert.Contains(t, w.Body.String(), `"redirect":"/users/5/"`)
		assert.Contains(t, w.Body.String(), `"success":true`)

		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.Equal(t, "tok-1", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("CookieLifetimeFollowsRemember", func(t *testing.T) {
		maria := memberOf(identityDomain.GroupUser)
		sessions := &fakeSessionUseCase{loginToken: "tok-1", loginUser: maria}
		handler := NewAuthHandler(sessions, &fakeUserUseCase{}, logger, time.Hour, 30*24*time.Hour)

		router := newRouter()
		router.POST("/v1/auth/login", handler.LoginHandler)

		w := postJSON(router, "/v1/auth/login", map[string]any{
			"username": "maria",
			"password": "Sup3rSecret",
		})
		require.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, int(time.Hour.Seconds()), cookies[0].MaxAge)

		w = postJSON(router, "/v1/auth/login", map[string]any{
			"username": "maria",
			"password": "Sup3rSecret",
			"remember": true,
		})
		require.Equal(t, http.StatusOK, w.Code)
		cookies = w.Result().Cookies()
		require.NotEmpty(t, cookies)
		// A remembered session must outlive the browser session on the
		// client too, not just in the sessions table.
		assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), cookies[0].MaxAge)
	})

	t.Run("AlreadyAuthenticatedIsNoOp", func(t *testing.T) {
		maria := memberOf(identityDomain.GroupUser)
		sessions := &fakeSessionUseCase{}
		handler := NewAuthHandler(sessions, &fakeUserUseCase{}, logger, time.Hour, 30*24*time.Hour)

		router := newRouter()
		router.POST("/v1/auth/login", func(c *gin.Context) {
			c.Request = c.Request.WithContext(WithUser(c.Request.Context(), maria))
			handler.LoginHandler(c)
		})

		w := postJSON(router, "/v1/auth/login", map[string]any{
			"username": "maria",
			"password": "Sup3rSecret",
			"next":     "/dashboard/",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "already authenticated")
		assert.Contains(t, w.Body.String(), `"redirect":"/dashboard/"`)
		// No new session was established
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("UnsafeNextFallsBack", func(t *testing.T) {
		maria := memberOf(identityDomain.GroupUser)
		sessions := &fakeSessionUseCase{loginToken: "tok-1", loginUser: maria}
		handler := NewAuthHandler(sessions, &fakeUserUseCase{}, logger, time.Hour, 30*24*time.Hour)

		router := newRouter()
		router.POST("/v1/auth/login", handler.LoginHandler)

		w := postJSON(router, "/v1/auth/login", map[string]any{
			"username": "maria",
			"password": "Sup3rSecret",
			"next":     "//evil.com",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"redirect":"/"`)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		sessions := &fakeSessionUseCase{loginErr: authDomain.ErrInvalidCredentials}
		handler := NewAuthHandler(sessions, &fakeUserUseCase{}, logger, time.Hour, 30*24*time.Hour)

		router := newRouter()
		router.POST("/v1/auth/login", handler.LoginHandler)

		w := postJSON(router, "/v1/auth/login", map[string]any{
			"username": "maria",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid username or password")
	})

	t.Run("DisabledAccountMessageDiffers", func(t *testing.T) {
		sessions := &fakeSessionUseCase{loginErr: authDomain.ErrAccountDisabled}
		handler := NewAuthHandler(sessions, &fakeUserUseCase{}, logger, time.Hour, 30*24*time.Hour)

		router := newRouter()
		router.POST("/v1/auth/login", handler.LoginHandler)

		w := postJSON(router, "/v1/auth/login", map[string]any{
			"username": "maria",
			"password": "Sup3rSecret",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "account is disabled")
	})

	t.Run("MissingFields", func(t *testing.T) {
		handler := NewAuthHandler(&fakeSessionUseCase{}, &fakeUserUseCase{}, logger, time.Hour, 30*24*time.Hour)

		router := newRouter()
		router.POST("/v1/auth/login", handler.LoginHandler)

		w := postJSON(router, "/v1/auth/login", map[string]any{"username": "maria"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestAuthHandlerLogout(t *testing.T) {
	logger := testLogger()

	maria := memberOf(identityDomain.GroupUser)
	sessions := &fakeSessionUseCase{}
	sessions.token = "tok-1"
	sessions.user = maria
	handler := NewAuthHandler(sessions, &fakeUserUseCase{}, logger, time.Hour, 30*24*time.Hour)

	router := newRouter()
	router.Use(SessionMiddleware(sessions, logger))
	router.POST("/v1/auth/logout", RequireUser(logger), handler.LogoutHandler)

	w := postJSON(router, "/v1/auth/logout", nil, &http.Cookie{Name: SessionCookieName, Value: "tok-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sessions.logoutCalled)
	assert.Equal(t, []string{"tok-1"}, sessions.loggedOut)

	// The cookie is cleared.
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestAuthHandlerRegister(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		handler := NewAuthHandler(&fakeSessionUseCase{}, &fakeUserUseCase{}, logger, time.Hour, 30*24*time.Hour)

		router := newRouter()
		router.POST("/v1/auth/register", handler.RegisterHandler)

		w := postJSON(router, "/v1/auth/register", map[string]any{
			"username": "joao",
			"email":    "joao@example.com",
			"password": "Sup3rSecret",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"joao"`)
		assert.Contains(t, w.Body.String(), identityDomain.GroupUser)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		handler := NewAuthHandler(&fakeSessionUseCase{}, &fakeUserUseCase{registerErr: identityDomain.ErrDuplicateUsername}, logger, time.Hour, 30*24*time.Hour)

		router := newRouter()
		router.POST("/v1/auth/register", handler.RegisterHandler)

		w := postJSON(router, "/v1/auth/register", map[string]any{
			"username": "joao",
			"password": "Sup3rSecret",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
