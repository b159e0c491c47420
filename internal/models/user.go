// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// User is a registered account. Authors, followers and commenters are all users.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	FirstName string    `gorm:"size:150" json:"first_name"`
	LastName  string    `gorm:"size:150" json:"last_name"`
	IsAdmin   bool      `gorm:"default:false;not null" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u User) String() string {
	return u.Username
}
