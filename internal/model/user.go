package model

import "time"

// User is a registered account. Every post, comment and follow edge hangs off one.
type User struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	Username string `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email    string `gorm:"type:varchar(254);not null"`
	// bcrypt hash, never the raw password
	Password  string `gorm:"type:varchar(128);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }
