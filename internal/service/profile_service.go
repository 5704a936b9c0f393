package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"todopro/internal/model"
	"todopro/internal/repository"
)

// recentTaskLimit is how many tasks the profile page shows.
const recentTaskLimit = 10

// ProfileInput is the profile edit form. Name and email are stored on the user.
type ProfileInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Phone     string `json:"phone" validate:"max=20"`
	Address   string `json:"address"`
	Bio       string `json:"bio"`
	BirthDate string `json:"birth_date"`
}

// ProfileView is everything the profile page shows.
type ProfileView struct {
	User        model.User
	Profile     model.Profile
	RecentTasks []model.Task
	Stats       model.Stats
}

// ProfileService reads and edits profiles and derives task statistics.
type ProfileService struct {
	db       *gorm.DB
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
	tasks    *repository.TaskRepository
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{
		db:       db,
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db),
		tasks:    repository.NewTaskRepository(db),
	}
}

// Stats returns the owner's completion snapshot, computed fresh on every call.
func (s *ProfileService) Stats(ctx context.Context, userID uint) (model.Stats, error) {
	counts, err := s.tasks.Counts(ctx, userID)
	if err != nil {
		return model.Stats{}, err
	}
	return model.ComputeStats(counts), nil
}

// Get returns the user's profile with recent tasks and statistics.
func (s *ProfileService) Get(ctx context.Context, userID uint) (*ProfileView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.tasks.RecentByOwner(ctx, userID, recentTaskLimit)
	if err != nil {
		return nil, err
	}

	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileView{User: *user, Profile: *profile, RecentTasks: recent, Stats: stats}, nil
}

// Update validates the form and saves the user's contact fields and profile together.
func (s *ProfileService) Update(ctx context.Context, userID uint, input ProfileInput) (*ProfileView, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Phone = strings.TrimSpace(input.Phone)
	input.BirthDate = strings.TrimSpace(input.BirthDate)

	verr := check(input)
	profile := model.Profile{
		UserID:  userID,
		Phone:   optionalString(input.Phone),
		Address: optionalString(input.Address),
		Bio:     optionalString(input.Bio),
	}
	if input.BirthDate != "" {
		birth, err := parseDate(input.BirthDate)
		if err != nil {
			verr.Add("birth_date", msgInvalidDate)
		} else {
			profile.BirthDate = &birth
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := model.User{ID: userID, Email: input.Email, FirstName: input.FirstName, LastName: input.LastName}
		if err := repository.NewUserRepository(tx).UpdateContact(ctx, &user); err != nil {
			return err
		}
		profiles := repository.NewProfileRepository(tx)
		if _, err := profiles.Ensure(ctx, userID); err != nil {
			return err
		}
		return profiles.Update(ctx, &profile)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// profile loads the stored profile, provisioning it for accounts that predate provisioning.
func (s *ProfileService) profile(ctx context.Context, userID uint) (*model.Profile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.profiles.Ensure(ctx, userID)
	}
	return profile, err
}
