package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todopro/internal/auth"
	"todopro/internal/model"
	"todopro/internal/repository"
)

var fixedNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	db       *gorm.DB
	accounts *AccountService
	profiles *ProfileService
	tasks    *TaskService
	reports  *ReportService
	digests  *DigestService
}

func setupEnv(t *testing.T) *testEnv {
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
	return &testEnv{
		db:       db,
		accounts: NewAccountService(db, auth.NewPasswordHasher(bcrypt.MinCost)),
		profiles: NewProfileService(db),
		tasks:    NewTaskService(taskRepo, now, time.UTC),
		reports:  NewReportService(repository.NewUserRepository(db), taskRepo, now, time.UTC),
		digests:  NewDigestService(taskRepo, now, time.UTC),
	}
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := e.accounts.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		FirstName:       "Test",
		LastName:        "User",
		Password:        "s3cret-pass",
		PasswordConfirm: "s3cret-pass",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) addTask(t *testing.T, owner *model.User, title, due string, done bool) *model.Task {
	t.Helper()
	task, err := e.tasks.Create(context.Background(), owner.ID, TaskInput{Title: title, DueDate: due, Done: &done})
	require.NoError(t, err)
	return task
}

func boolPtr(v bool) *bool { return &v }
