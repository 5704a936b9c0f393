package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todopro/internal/model"
)

func TestProfileService_StatsScenario(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	a := env.register(t, "a")
	b := env.register(t, "b")
	env.addTask(t, a, "one", "2024-05-01", true)
	env.addTask(t, a, "two", "2024-05-02", true)
	env.addTask(t, a, "three", "2024-05-03", false)

	stats, err := env.profiles.Stats(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Total: 3, Completed: 2, Pending: 1, CompletionRate: 66.67}, stats)

	empty, err := env.profiles.Stats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{}, empty)
}

func TestProfileService_Get(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	for i := 1; i <= 12; i++ {
		env.addTask(t, alice, "task", fmt.Sprintf("2024-05-%02d", i), i%2 == 0)
	}

	view, err := env.profiles.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", view.User.Username)
	assert.Equal(t, alice.ID, view.Profile.UserID)
	require.Len(t, view.RecentTasks, recentTaskLimit)
	assert.Equal(t, "2024-05-12", view.RecentTasks[0].DueDate.Format("2006-01-02"))
	assert.Equal(t, int64(12), view.Stats.Total)
	assert.Equal(t, int64(6), view.Stats.Completed)
	assert.Equal(t, float64(50), view.Stats.CompletionRate)
}

func TestProfileService_Update(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	before, err := env.profiles.Get(ctx, alice.ID)
	require.NoError(t, err)

	view, err := env.profiles.Update(ctx, alice.ID, ProfileInput{
		Email:     "new@example.com",
		FirstName: "Alice",
		LastName:  "Kingsleigh",
		Phone:     "555-0199",
		Address:   "Underland",
		Bio:       "Curiouser and curiouser.",
		BirthDate: "1990-05-17",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", view.User.Email)
	assert.Equal(t, "Kingsleigh", view.User.LastName)
	require.NotNil(t, view.Profile.Address)
	assert.Equal(t, "Underland", *view.Profile.Address)
	require.NotNil(t, view.Profile.BirthDate)
	assert.Equal(t, "1990-05-17", view.Profile.BirthDate.Format("2006-01-02"))
	assert.Equal(t, before.Profile.ID, view.Profile.ID)
	assert.True(t, before.Profile.JoinDate.Equal(view.Profile.JoinDate))

	view, err = env.profiles.Update(ctx, alice.ID, ProfileInput{Email: "new@example.com", FirstName: "Alice", LastName: "K"})
	require.NoError(t, err)
	assert.Nil(t, view.Profile.Phone)
	assert.Nil(t, view.Profile.BirthDate)
}

func TestProfileService_UpdateValidation(t *testing.T) {
	env := setupEnv(t)
	alice := env.register(t, "alice")

	_, err := env.profiles.Update(context.Background(), alice.ID, ProfileInput{
		Email:     "bad",
		LastName:  "K",
		BirthDate: "17/05/1990",
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "first_name")
	assert.Contains(t, verr.Fields, "birth_date")
}
