package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleCustomer UserRole = "CUSTOMER"
	UserRoleAdmin    UserRole = "ADMIN"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCustomer, UserRoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	UserID       int            `gorm:"primaryKey;autoIncrement" json:"user_id"`
	Email        string         `gorm:"uniqueIndex;not null;type:varchar(255)" json:"email"`
	PasswordHash string         `gorm:"not null;type:varchar(255)" json:"-"`
	FirstName    string         `gorm:"not null;type:varchar(100)" json:"first_name"`
	LastName     string         `gorm:"not null;type:varchar(100)" json:"last_name"`
	Role         UserRole       `gorm:"not null;type:varchar(20)" json:"role"`
	IsActive     bool           `gorm:"not null" json:"is_active"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	BaseModel
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
