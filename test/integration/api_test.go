// Package integration provides end-to-end integration tests for the identity API.
// Tests all API endpoints against both PostgreSQL and MySQL databases.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/identity/internal/app"
	authDTO "github.com/allisson/identity/internal/auth/http/dto"
	"github.com/allisson/identity/internal/config"
	identityDTO "github.com/allisson/identity/internal/identity/http/dto"
	identityUseCase "github.com/allisson/identity/internal/identity/usecase"
	"github.com/allisson/identity/internal/testutil"
)

const (
	adminUsername = "root-admin"
	adminPassword = "RootPassword123"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container  *app.Container
	db         *sql.DB
	server     *httptest.Server
	adminToken string
	cancel     context.CancelFunc
	dbDriver   string
}

// envelope is the standard response wrapper of the API.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// makeRequest performs an HTTP request with an optional bearer token and
// returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	token string,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.NoError(t, resp.Body.Close(), "failed to close response body")

	return resp, respBody
}

// login authenticates the given credentials and returns the session token.
func (ctx *integrationTestContext) login(t *testing.T, username, password string) string {
	t.Helper()

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", authDTO.LoginRequest{
		Username: username,
		Password: password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "login failed: %s", string(body))

	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))

	var loginData authDTO.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &loginData))
	require.NotEmpty(t, loginData.Token)

	return loginData.Token
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Setup database
	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	// Create configuration
	cfg := &config.Config{
		DBDriver:                  dbDriver,
		DBConnectionString:        dsn,
		DBMaxOpenConnections:      10,
		DBMaxIdleConnections:      5,
		DBConnMaxLifetime:         time.Hour,
		DBOperationTimeout:        5 * time.Second,
		ServerHost:                "localhost",
		ServerPort:                8080,
		LogLevel:                  "error",
		SessionExpiration:         time.Hour,
		SessionRememberExpiration: 30 * 24 * time.Hour,
		AuditBufferSize:           256,
	}

	// Create DI container
	container := app.NewContainer(cfg)

	// Seed the reserved groups and the bootstrap admin
	bootstrapUseCase, err := container.BootstrapUseCase()
	require.NoError(t, err, "failed to get bootstrap use case")

	_, err = bootstrapUseCase.EnsureSeedData(context.Background(), identityUseCase.SeedAdmin{
		Username: adminUsername,
		Email:    "root-admin@example.com",
		Password: adminPassword,
	})
	require.NoError(t, err, "failed to seed data")

	// Build the HTTP server and expose it through httptest
	serverCtx, cancel := context.WithCancel(context.Background())
	httpServer, err := container.HTTPServer(serverCtx)
	require.NoError(t, err, "failed to get http server")

	testServer := httptest.NewServer(httpServer.GetHandler())

	ctx := &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		cancel:    cancel,
		dbDriver:  dbDriver,
	}

	// Authenticate the bootstrap admin
	ctx.adminToken = ctx.login(t, adminUsername, adminPassword)

	return ctx
}

// teardownIntegrationTest cleans up all test resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	ctx.server.Close()
	ctx.cancel()

	err := ctx.container.Shutdown(context.Background())
	assert.NoError(t, err, "failed to shutdown container")

	if ctx.dbDriver == "postgres" {
		testutil.CleanupPostgresDB(t, ctx.db)
	} else {
		testutil.CleanupMySQLDB(t, ctx.db)
	}
	testutil.TeardownDB(t, ctx.db)
}

// integrationDrivers enumerates the databases under test.
var integrationDrivers = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

// TestIntegration_Health_BasicChecks validates infrastructure health and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	// Skip if short mode (integration tests can be slow)
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, "")
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "healthy", response["status"])
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, "")
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "ready", response["status"])
			})
		})
	}
}

// TestIntegration_Auth_CompleteFlow exercises login, registration, logout and
// token invalidation end to end.
func TestIntegration_Auth_CompleteFlow(t *testing.T) {
	// Skip if short mode (integration tests can be slow)
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_LoginRejectsBadPassword", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", authDTO.LoginRequest{
					Username: adminUsername,
					Password: "WrongPassword123",
				}, "")
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("02_SelfServiceRegistration", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", authDTO.RegisterRequest{
					Username: "self-service",
					Email:    "self-service@example.com",
					Password: "Password123",
				}, "")
				assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				// Registered accounts can log in right away
				token := ctx.login(t, "self-service", "Password123")
				assert.NotEmpty(t, token)
			})

			t.Run("03_LogoutInvalidatesToken", func(t *testing.T) {
				token := ctx.login(t, adminUsername, adminPassword)

				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/auth/logout", nil, token)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/users", nil, token)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_UserManagement_CompleteFlow exercises the full administrative
// user lifecycle: create, read, update, group change, password change, delete.
func TestIntegration_UserManagement_CompleteFlow(t *testing.T) {
	// Skip if short mode (integration tests can be slow)
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			var userID string

			t.Run("01_CreateUser", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/users", identityDTO.CreateUserRequest{
					Username:  "maria",
					Email:     "maria@example.com",
					Password:  "Password123",
					GroupName: "User",
				}, ctx.adminToken)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				var env envelope
				require.NoError(t, json.Unmarshal(body, &env))

				var user map[string]interface{}
				require.NoError(t, json.Unmarshal(env.Data, &user))
				userID = user["id"].(string)
				assert.Equal(t, "maria", user["username"])
				assert.Equal(t, "User", user["group_name"])
			})

			t.Run("02_DuplicateUsernameConflicts", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/users", identityDTO.CreateUserRequest{
					Username: "maria",
					Password: "Password123",
				}, ctx.adminToken)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			t.Run("03_GetUser", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/users/"+userID, nil, ctx.adminToken)
				assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			})

			t.Run("04_ListUsers", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/users?offset=0&limit=50", nil, ctx.adminToken)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, string(body), "maria")
				assert.Contains(t, string(body), adminUsername)
			})

			t.Run("05_UpdateUser", func(t *testing.T) {
				newEmail := "maria.updated@example.com"
				resp, body := ctx.makeRequest(t, http.MethodPatch, "/v1/users/"+userID, identityDTO.UpdateUserRequest{
					Email: &newEmail,
				}, ctx.adminToken)
				assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.Contains(t, string(body), newEmail)
			})

			t.Run("06_ChangeGroup", func(t *testing.T) {
				resp, body := ctx.makeRequest(
					t,
					http.MethodPost,
					fmt.Sprintf("/v1/users/%s/group", userID),
					identityDTO.ChangeGroupRequest{GroupName: "Admin"},
					ctx.adminToken,
				)
				assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.Contains(t, string(body), "Admin")
			})

			t.Run("07_AdminChangesPasswordWithoutOldOne", func(t *testing.T) {
				resp, body := ctx.makeRequest(
					t,
					http.MethodPost,
					fmt.Sprintf("/v1/users/%s/password", userID),
					identityDTO.ChangePasswordRequest{NewPassword: "NewPassword123"},
					ctx.adminToken,
				)
				assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				// New password works
				token := ctx.login(t, "maria", "NewPassword123")
				assert.NotEmpty(t, token)
			})

			t.Run("08_PermissionDenied", func(t *testing.T) {
				// maria now sits in Admin, which cannot delete users
				mariaToken := ctx.login(t, "maria", "NewPassword123")
				resp, _ := ctx.makeRequest(t, http.MethodDelete, "/v1/users/"+userID, nil, mariaToken)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			})

			t.Run("09_DeleteUser", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodDelete, "/v1/users/"+userID, nil, ctx.adminToken)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/users/"+userID, nil, ctx.adminToken)
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_GroupsAndAudit_CompleteFlow exercises the read-only group
// endpoints and the audit trail access rules.
func TestIntegration_GroupsAndAudit_CompleteFlow(t *testing.T) {
	// Skip if short mode (integration tests can be slow)
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_ListGroups", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/groups", nil, ctx.adminToken)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, string(body), "SuperAdmin")
				assert.Contains(t, string(body), "Admin")
				assert.Contains(t, string(body), "User")
			})

			t.Run("02_UsersWithoutGroup", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", authDTO.RegisterRequest{
					Username: "ungrouped",
					Password: "Password123",
				}, "")
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/users/without-group", nil, ctx.adminToken)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, string(body), "ungrouped")
			})

			t.Run("03_AuditTrailRecordsLogin", func(t *testing.T) {
				// The audit recorder is asynchronous; give the worker a moment
				require.Eventually(t, func() bool {
					resp, body := ctx.makeRequest(
						t,
						http.MethodGet,
						"/v1/audit-events?action=login",
						nil,
						ctx.adminToken,
					)
					return resp.StatusCode == http.StatusOK &&
						bytes.Contains(body, []byte(adminUsername))
				}, 5*time.Second, 100*time.Millisecond)
			})

			t.Run("04_AuditTrailRequiresSuperAdmin", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/users", identityDTO.CreateUserRequest{
					Username:  "plain-admin",
					Password:  "Password123",
					GroupName: "Admin",
				}, ctx.adminToken)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				adminToken := ctx.login(t, "plain-admin", "Password123")
				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/audit-events", nil, adminToken)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			})
		})
	}
}
