package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"todopro/internal/auth"
	"todopro/internal/model"
	"todopro/internal/repository"
)

const msgUsernameTaken = "A user with that username already exists."

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username        string `json:"username" validate:"required,max=150,username"`
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"required,max=150"`
	LastName        string `json:"last_name" validate:"required,max=150"`
	Password        string `json:"password1" validate:"required,min=8"`
	PasswordConfirm string `json:"password2" validate:"required,eqfield=Password"`
	Phone           string `json:"phone" validate:"max=20"`
}

// SuperuserInput describes an administrator created from the command line.
type SuperuserInput struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AccountService owns the user lifecycle: creation with profile provisioning,
// authentication, Telegram linking and deletion.
type AccountService struct {
	db     *gorm.DB
	users  *repository.UserRepository
	hasher *auth.PasswordHasher
}

func NewAccountService(db *gorm.DB, hasher *auth.PasswordHasher) *AccountService {
	return &AccountService{db: db, users: repository.NewUserRepository(db), hasher: hasher}
}

// Register validates the sign-up form and creates the user together with its profile.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Phone = strings.TrimSpace(input.Phone)

	if err := check(input).Err(); err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}
	if err := s.createWithProfile(ctx, user, input.Password, optionalString(input.Phone)); err != nil {
		return nil, err
	}
	log.Printf("[info] registered user %s (id=%d)", user.Username, user.ID)
	return user, nil
}

// CreateSuperuser creates an administrator account with its profile.
func (s *AccountService) CreateSuperuser(ctx context.Context, input SuperuserInput) (*model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := check(input).Err(); err != nil {
		return nil, err
	}

	user := &model.User{Username: input.Username, Email: input.Email, IsSuperuser: true}
	if err := s.createWithProfile(ctx, user, input.Password, nil); err != nil {
		return nil, err
	}
	log.Printf("[info] created superuser %s (id=%d)", user.Username, user.ID)
	return user, nil
}

// createWithProfile stores user and provisions its profile in one transaction,
// so a committed user always has exactly one profile.
func (s *AccountService) createWithProfile(ctx context.Context, user *model.User, password string, phone *string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				verr := newValidationError()
				verr.Add("username", msgUsernameTaken)
				return verr
			}
			return err
		}

		profiles := repository.NewProfileRepository(tx)
		profile, err := profiles.Ensure(ctx, user.ID)
		if err != nil {
			return err
		}
		if phone != nil {
			profile.Phone = phone
			if err := profiles.Update(ctx, profile); err != nil {
				return err
			}
		}
		return nil
	})
}

// ProvisionProfile makes sure userID has a profile. Calling it again for a provisioned
// user returns the existing profile unchanged.
func (s *AccountService) ProvisionProfile(ctx context.Context, userID uint) (*model.Profile, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return repository.NewProfileRepository(s.db).Ensure(ctx, userID)
}

// Authenticate checks the username and password pair.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AccountService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.users.FindByUsername(ctx, username)
}

func (s *AccountService) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.FindByTelegramID(ctx, telegramID)
}

// ListLinked returns users with a linked Telegram account.
func (s *AccountService) ListLinked(ctx context.Context) ([]model.User, error) {
	return s.users.ListLinked(ctx)
}

// DeleteUser removes the user; the profile and all owned tasks go with it.
func (s *AccountService) DeleteUser(ctx context.Context, userID uint) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	log.Printf("[info] deleted user id=%d", userID)
	return nil
}

// LinkTelegram authenticates the account and binds it to telegramID. A chat previously
// bound to another account is moved.
func (s *AccountService) LinkTelegram(ctx context.Context, username, password string, telegramID int64) (*model.User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		current, err := users.FindByTelegramID(ctx, telegramID)
		switch {
		case err == nil && current.ID != user.ID:
			if err := users.SetTelegramID(ctx, current.ID, nil); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return err
		}
		return users.SetTelegramID(ctx, user.ID, &telegramID)
	})
	if err != nil {
		return nil, err
	}

	user.TelegramID = &telegramID
	return user, nil
}

// UnlinkTelegram removes the Telegram binding for the chat.
func (s *AccountService) UnlinkTelegram(ctx context.Context, telegramID int64) error {
	user, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	return s.users.SetTelegramID(ctx, user.ID, nil)
}
