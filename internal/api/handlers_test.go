package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todopro/internal/service"
)

func createTask(t *testing.T, api *testAPI, token string, payload map[string]any) map[string]any {
	t.Helper()
	status, body := api.do(t, http.MethodPost, "/api/v1/tasks", token, payload)
	require.Equal(t, http.StatusCreated, status, body)
	return body["task"].(map[string]any)
}

func taskPath(task map[string]any, suffix string) string {
	return fmt.Sprintf("/api/v1/tasks/%d%s", int(task["id"].(float64)), suffix)
}

func TestCreateTask(t *testing.T) {
	api := setupAPI(t)
	_, token := api.signup(t, "alice")

	status, body := api.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"title":    "Pay rent",
		"due_date": "2024-01-01",
		"due_time": "09:30",
	})
	require.Equal(t, http.StatusCreated, status, body)
	task := body["task"].(map[string]any)
	assert.Equal(t, "Pay rent", task["title"])
	assert.Equal(t, "09:30:00", task["due_time"])
	assert.Equal(t, false, task["done"])
	assert.Equal(t, true, task["expired"])

	msg := firstMessage(t, body)
	assert.Equal(t, service.LevelSuccess, msg["level"])
	assert.Equal(t, `✅ Task "Pay rent" has been created successfully! Due date: 2024-01-01`, msg["text"])
}

func TestCreateTask_KeepsSeconds(t *testing.T) {
	api := setupAPI(t)
	_, token := api.signup(t, "alice")

	created := createTask(t, api, token, map[string]any{"title": "Standup", "due_date": "2024-08-01", "due_time": "09:30:15"})
	assert.Equal(t, "09:30:15", created["due_time"])

	status, body := api.do(t, http.MethodGet, taskPath(created, ""), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "09:30:15", body["task"].(map[string]any)["due_time"])
}

func TestCreateTask_Invalid(t *testing.T) {
	api := setupAPI(t)
	_, token := api.signup(t, "alice")

	status, body := api.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{"due_date": "tomorrow"})
	require.Equal(t, http.StatusBadRequest, status)
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "due_date")
	assert.Equal(t, service.LevelError, firstMessage(t, body)["level"])
}

func TestTaskLifecycle(t *testing.T) {
	api := setupAPI(t)
	_, token := api.signup(t, "alice")
	task := createTask(t, api, token, map[string]any{"title": "Pay rent", "due_date": "2024-01-01"})

	status, body := api.do(t, http.MethodGet, taskPath(task, ""), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, service.LevelWarning, firstMessage(t, body)["level"])

	status, body = api.do(t, http.MethodPut, taskPath(task, ""), token, map[string]any{
		"title":    "Pay rent (late)",
		"due_date": "2024-07-01",
		"user_id":  999,
	})
	require.Equal(t, http.StatusOK, status, body)
	updated := body["task"].(map[string]any)
	assert.Equal(t, "Pay rent (late)", updated["title"])
	assert.Equal(t, false, updated["expired"])

	status, body = api.do(t, http.MethodPut, taskPath(task, ""), token, map[string]any{"title": "", "due_date": "2024-07-01"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, firstMessage(t, body)["text"], `Failed to update task "Pay rent (late)"`)

	status, body = api.do(t, http.MethodPatch, taskPath(task, "/status"), token, map[string]any{"done": true})
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, firstMessage(t, body)["text"], "COMPLETED")
	assert.Equal(t, "Pay rent (late)", body["task"].(map[string]any)["title"])

	status, _ = api.do(t, http.MethodPatch, taskPath(task, "/status"), token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = api.do(t, http.MethodDelete, taskPath(task, ""), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, firstMessage(t, body)["text"], "permanently deleted")

	status, _ = api.do(t, http.MethodGet, taskPath(task, ""), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTasks_OwnershipIsolation(t *testing.T) {
	api := setupAPI(t)
	_, alice := api.signup(t, "alice")
	_, bob := api.signup(t, "bob")
	task := createTask(t, api, alice, map[string]any{"title": "Secret", "due_date": "2024-01-01"})

	status, body := api.do(t, http.MethodGet, taskPath(task, ""), bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotContains(t, fmt.Sprint(body), "Secret")

	status, _ = api.do(t, http.MethodPut, taskPath(task, ""), bob, map[string]any{"title": "Mine", "due_date": "2024-01-01"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(t, http.MethodPatch, taskPath(task, "/status"), bob, map[string]any{"done": true})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(t, http.MethodDelete, taskPath(task, ""), bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = api.do(t, http.MethodGet, "/api/v1/tasks", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["tasks"])

	status, _ = api.do(t, http.MethodGet, "/api/v1/tasks/abc", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListAndExpiredTasks(t *testing.T) {
	api := setupAPI(t)
	_, token := api.signup(t, "alice")
	createTask(t, api, token, map[string]any{"title": "Later", "due_date": "2024-08-01"})
	createTask(t, api, token, map[string]any{"title": "Late", "due_date": "2024-02-01"})
	createTask(t, api, token, map[string]any{"title": "Done late", "due_date": "2024-01-01", "done": true})

	status, body := api.do(t, http.MethodGet, "/api/v1/tasks", token, nil)
	require.Equal(t, http.StatusOK, status)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Done late", tasks[0].(map[string]any)["title"])
	assert.Equal(t, float64(1), body["expired_count"])
	assert.Equal(t, float64(3), body["total_tasks"])
	assert.Equal(t, "Welcome to your task manager, alice! Here are all your tasks.", firstMessage(t, body)["text"])

	status, body = api.do(t, http.MethodGet, "/api/v1/tasks/expired", token, nil)
	require.Equal(t, http.StatusOK, status)
	expired := body["expired_tasks"].([]any)
	require.Len(t, expired, 1)
	assert.Equal(t, "Late", expired[0].(map[string]any)["title"])
	assert.Equal(t, "⚠️ You have 1 expired task. Consider completing it soon!", firstMessage(t, body)["text"])
}

func TestProfileEndpoints(t *testing.T) {
	api := setupAPI(t)
	_, token := api.signup(t, "alice")
	createTask(t, api, token, map[string]any{"title": "one", "due_date": "2024-05-01", "done": true})
	createTask(t, api, token, map[string]any{"title": "two", "due_date": "2024-05-02", "done": true})
	createTask(t, api, token, map[string]any{"title": "three", "due_date": "2024-05-03"})

	status, body := api.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(3), stats["total_tasks"])
	assert.Equal(t, float64(2), stats["completed_tasks"])
	assert.Equal(t, float64(1), stats["pending_tasks"])
	assert.Equal(t, 66.67, stats["completion_rate"])
	recent := body["recent_tasks"].([]any)
	assert.Equal(t, "three", recent[0].(map[string]any)["title"])
	joined := body["profile"].(map[string]any)["join_date"]

	status, body = api.do(t, http.MethodPut, "/api/v1/profile", token, map[string]any{
		"email":      "alice@wonder.land",
		"first_name": "Alice",
		"last_name":  "Liddell",
		"bio":        "Curious.",
		"birth_date": "1990-05-17",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Profile updated successfully!", firstMessage(t, body)["text"])
	assert.Equal(t, "alice@wonder.land", body["user"].(map[string]any)["email"])
	profile := body["profile"].(map[string]any)
	assert.Equal(t, "1990-05-17", profile["birth_date"])
	assert.Equal(t, joined, profile["join_date"])

	status, body = api.do(t, http.MethodPut, "/api/v1/profile", token, map[string]any{"email": "x"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["fields"].(map[string]any), "email")
}

func TestUsersWithoutTasksReport(t *testing.T) {
	api := setupAPI(t)
	admin, err := api.accounts.CreateSuperuser(context.Background(), service.SuperuserInput{Username: "admin", Password: "change-me-now"})
	require.NoError(t, err)
	adminPair, err := api.tokens.IssuePair(admin.ID, admin.Username)
	require.NoError(t, err)

	_, a := api.signup(t, "a")
	api.signup(t, "b")
	createTask(t, api, a, map[string]any{"title": "one", "due_date": "2024-05-01"})
	createTask(t, api, adminPair.AccessToken, map[string]any{"title": "admin", "due_date": "2024-05-01"})

	status, body := api.do(t, http.MethodGet, "/api/v1/reports/users-without-tasks", a, nil)
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "❌ Access denied! You must be an administrator to view this page.", firstMessage(t, body)["text"])

	status, body = api.do(t, http.MethodGet, "/api/v1/reports/users-without-tasks", adminPair.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "b", users[0].(map[string]any)["username"])
	assert.Equal(t, float64(3), body["total_users"])
	assert.Equal(t, 33.33, body["percentage"])
	assert.Contains(t, firstMessage(t, body)["text"], "1 out of 3 users (33.33%)")
}
