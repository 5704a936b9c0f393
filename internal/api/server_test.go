package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todopro/internal/auth"
	"todopro/internal/model"
	"todopro/internal/repository"
	"todopro/internal/service"
)

var fixedNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

type testAPI struct {
	srv      *Server
	db       *gorm.DB
	accounts *service.AccountService
	tokens   *auth.JWTManager
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := repository.NewDB(":memory:", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	now := func() time.Time { return fixedNow }
	taskRepo := repository.NewTaskRepository(db)
	accounts := service.NewAccountService(db, auth.NewPasswordHasher(bcrypt.MinCost))
	tokens := auth.NewJWTManager(auth.JWTConfig{
		SecretKey:            "test-secret",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: time.Hour,
		Issuer:               "todopro",
	})

	srv := New(Deps{
		Accounts:         accounts,
		Profiles:         service.NewProfileService(db),
		Tasks:            service.NewTaskService(taskRepo, now, time.UTC),
		Reports:          service.NewReportService(repository.NewUserRepository(db), taskRepo, now, time.UTC),
		Tokens:           tokens,
		Location:         time.UTC,
		AuthRate:         rate.Limit(1000),
		AuthBurst:        1000,
		DisableAccessLog: true,
	})
	return &testAPI{srv: srv, db: db, accounts: accounts, tokens: tokens}
}

// do sends a JSON request and decodes the JSON response body into a map.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// signup registers username and returns the user with an access token.
func (a *testAPI) signup(t *testing.T, username string) (*model.User, string) {
	t.Helper()
	user, err := a.accounts.Register(context.Background(), service.RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		FirstName:       "Test",
		LastName:        "User",
		Password:        "s3cret-pass",
		PasswordConfirm: "s3cret-pass",
	})
	require.NoError(t, err)
	pair, err := a.tokens.IssuePair(user.ID, user.Username)
	require.NoError(t, err)
	return user, pair.AccessToken
}

func firstMessage(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	msgs, ok := body["messages"].([]any)
	require.True(t, ok, "no messages in %v", body)
	require.NotEmpty(t, msgs)
	return msgs[0].(map[string]any)
}

func TestHealth(t *testing.T) {
	api := setupAPI(t)
	status, body := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestHome_ExpiredCount(t *testing.T) {
	api := setupAPI(t)
	_, token := api.signup(t, "alice")
	api.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{"title": "Pay rent", "due_date": "2024-01-01"})
	api.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{"title": "Later", "due_date": "2024-12-01"})

	status, body := api.do(t, http.MethodGet, "/api/v1/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["expired_count"])
}

func TestAuthFlow(t *testing.T) {
	api := setupAPI(t)

	status, body := api.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":   "alice",
		"email":      "alice@example.com",
		"first_name": "Alice",
		"last_name":  "Liddell",
		"password1":  "wonderland",
		"password2":  "wonderland",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Account created successfully! You can now log in.", firstMessage(t, body)["text"])

	status, body = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"username": "alice", "password": "wonderland"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, "Welcome back, alice!", firstMessage(t, body)["text"])
	access := body["access_token"].(string)
	refresh := body["refresh_token"].(string)

	status, body = api.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{"refresh_token": access})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["access_token"])

	status, body = api.do(t, http.MethodPost, "/api/v1/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Goodbye, alice!", firstMessage(t, body)["text"])
}

func TestRegister_ValidationErrors(t *testing.T) {
	api := setupAPI(t)
	api.signup(t, "alice")

	status, body := api.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":   "alice",
		"email":      "alice@example.com",
		"first_name": "Alice",
		"last_name":  "Liddell",
		"password1":  "wonderland",
		"password2":  "different",
	})
	require.Equal(t, http.StatusBadRequest, status)
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "password2")

	status, body = api.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":   "alice",
		"email":      "alice@example.com",
		"first_name": "Alice",
		"last_name":  "Liddell",
		"password1":  "wonderland",
		"password2":  "wonderland",
	})
	require.Equal(t, http.StatusBadRequest, status)
	fields = body["fields"].(map[string]any)
	assert.Equal(t, "A user with that username already exists.", fields["username"])
}

func TestAuthMiddleware(t *testing.T) {
	api := setupAPI(t)
	user, token := api.signup(t, "alice")

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{name: "missing authorization header", expectedStatus: http.StatusUnauthorized, expectedBody: "Authorization header is required"},
		{name: "invalid format", authHeader: "Basic abc", expectedStatus: http.StatusUnauthorized, expectedBody: "Invalid authorization header format"},
		{name: "invalid token", authHeader: "Bearer nope", expectedStatus: http.StatusUnauthorized, expectedBody: "Invalid or expired token"},
		{name: "valid token", authHeader: "Bearer " + token, expectedStatus: http.StatusOK, expectedBody: user.Username},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(AuthMiddleware(api.tokens, api.accounts))
			app.Get("/test", func(c *fiber.Ctx) error {
				return c.SendString(currentUser(c).Username)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Contains(t, string(body), tt.expectedBody)
		})
	}
}

func TestAuthMiddleware_DeletedUser(t *testing.T) {
	api := setupAPI(t)
	user, token := api.signup(t, "alice")
	require.NoError(t, api.accounts.DeleteUser(context.Background(), user.ID))

	status, _ := api.do(t, http.MethodGet, "/api/v1/tasks", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimiter(rate.Limit(1), 2))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestIPLimiters_EvictsIdleVisitors(t *testing.T) {
	clock := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	limiters := newIPLimiters(rate.Limit(1), 1, time.Minute, func() time.Time { return clock })

	first := limiters.get("10.0.0.1")
	limiters.get("10.0.0.2")
	assert.Equal(t, 2, limiters.size())

	clock = clock.Add(30 * time.Second)
	limiters.get("10.0.0.2")
	assert.Same(t, first, limiters.get("10.0.0.1"))

	clock = clock.Add(70 * time.Second)
	limiters.get("10.0.0.3")
	assert.Equal(t, 1, limiters.size())

	clock = clock.Add(2 * time.Minute)
	limiters.get("10.0.0.1")
	assert.Equal(t, 1, limiters.size())
}
