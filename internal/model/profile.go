package model

import "time"

// Profile extends a User with contact details. It is created together with the user
// and removed with it.
type Profile struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"uniqueIndex;not null"`
	Phone     *string    `gorm:"size:20"`
	Address   *string    `gorm:"type:text"`
	Bio       *string    `gorm:"type:text"`
	BirthDate *time.Time `gorm:"type:date"`
	JoinDate  time.Time  `gorm:"autoCreateTime;<-:create"`
	UpdatedAt time.Time
}
