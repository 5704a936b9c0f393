package model

import "time"

// User is an account identity. Every user owns exactly one Profile and any number of tasks.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:150;not null"`
	Email        string `gorm:"size:254"`
	FirstName    string `gorm:"size:150"`
	LastName     string `gorm:"size:150"`
	PasswordHash string `gorm:"not null"`
	IsSuperuser  bool   `gorm:"default:false"`
	TelegramID   *int64 `gorm:"uniqueIndex"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Profile      *Profile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tasks        []Task   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}
