package repository

import (
	"context"

	"gorm.io/gorm"

	"todopro/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return wrap("create user", r.db.WithContext(ctx).Omit("Profile", "Tasks").Create(user).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, wrap("find user", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrap("find user", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, wrap("find user", err)
	}
	return &user, nil
}

// UpdateContact stores email and name fields.
func (r *UserRepository) UpdateContact(ctx context.Context, user *model.User) error {
	updates := map[string]interface{}{
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Updates(updates)
	if res.Error != nil {
		return wrap("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTelegramID links (or, with nil, unlinks) a Telegram account.
func (r *UserRepository) SetTelegramID(ctx context.Context, userID uint, telegramID *int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("telegram_id", telegramID)
	if res.Error != nil {
		return wrap("link telegram", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLinked returns users with a linked Telegram account.
func (r *UserRepository) ListLinked(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_id IS NOT NULL").Order("username ASC").Find(&users).Error; err != nil {
		return nil, wrap("list linked users", err)
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, wrap("count users", err)
	}
	return count, nil
}

// ListWithoutTasks returns users that own no task at all, ordered by username.
// Tasks without an owner are excluded from the subquery so that NOT IN never sees NULL.
func (r *UserRepository) ListWithoutTasks(ctx context.Context) ([]model.User, error) {
	db := r.db.WithContext(ctx)
	owners := db.Model(&model.Task{}).Distinct("user_id").Where("user_id IS NOT NULL")

	var users []model.User
	if err := db.Where("id NOT IN (?)", owners).Order("username ASC").Find(&users).Error; err != nil {
		return nil, wrap("list users without tasks", err)
	}
	return users, nil
}

// Delete removes a user together with the profile and every owned task.
func (r *UserRepository) Delete(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.Task{}).Error; err != nil {
			return wrap("delete user tasks", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Profile{}).Error; err != nil {
			return wrap("delete user profile", err)
		}
		res := tx.Delete(&model.User{}, userID)
		if res.Error != nil {
			return wrap("delete user", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
