package model

import (
	"time"

	"gorm.io/gorm"
)

// Task is a single to-do item. UserID is nil for orphaned tasks.
type Task struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    *uint      `gorm:"index"`
	Title     string     `gorm:"size:200;not null"`
	DueDate   time.Time  `gorm:"index;not null"`
	DueTime   *TimeOfDay `gorm:"type:varchar(8)"`
	Done      bool       `gorm:"default:false;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeSave keeps due dates in UTC so that range filters compare consistently.
func (t *Task) BeforeSave(*gorm.DB) error {
	t.DueDate = t.DueDate.UTC()
	return nil
}

// IsExpired reports whether the task is not done and its due date falls on a day
// strictly before the current day in loc.
func (t Task) IsExpired(now time.Time, loc *time.Location) bool {
	if t.Done {
		return false
	}
	return t.DueDate.Before(StartOfDay(now, loc))
}

// StartOfDay returns midnight of now's calendar day in loc (UTC when loc is nil).
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
