package models

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors the identity Casdoor asserts in the bearer token. Rows are
// upserted on first authenticated request; this service never issues sessions.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;size:255"`
	FullName string `json:"full_name" gorm:"not null;size:100"`
	Email    string `json:"email" gorm:"uniqueIndex;not null;size:255"`

	// IsAdmin gates question-catalog mutation and import/export.
	IsAdmin bool `json:"is_admin" gorm:"default:false"`

	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
