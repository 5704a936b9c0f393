package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todopro/internal/model"
)

// ProfileRepository manages user profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Ensure creates the profile for userID unless one exists and returns the stored row.
// Concurrent callers race on the unique user_id index; the loser's insert is a no-op.
func (r *ProfileRepository) Ensure(ctx context.Context, userID uint) (*model.Profile, error) {
	db := r.db.WithContext(ctx)
	profile := model.Profile{UserID: userID}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&profile).Error
	if err != nil {
		return nil, wrap("create profile", err)
	}
	return r.FindByUserID(ctx, userID)
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uint) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, wrap("find profile", err)
	}
	return &profile, nil
}

// Update stores the editable fields. JoinDate is never written.
func (r *ProfileRepository) Update(ctx context.Context, profile *model.Profile) error {
	updates := map[string]interface{}{
		"phone":      profile.Phone,
		"address":    profile.Address,
		"bio":        profile.Bio,
		"birth_date": profile.BirthDate,
	}
	res := r.db.WithContext(ctx).Model(&model.Profile{}).Where("user_id = ?", profile.UserID).Updates(updates)
	if res.Error != nil {
		return wrap("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, wrap("count profiles", err)
	}
	return count, nil
}
