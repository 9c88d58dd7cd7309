// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents an account in the Inkpress application.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      Role      `gorm:"type:varchar(16);not null;default:user;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Articles  []Article `gorm:"foreignKey:UserID" json:"articles,omitempty"`
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Summary returns the public projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Role: u.Role}
}

func summarize(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	s := u.Summary()
	return &s
}

// HasRole reports whether the user's role ranks at least min.
func (u *User) HasRole(min Role) bool {
	return u != nil && u.Role.AtLeast(min)
}

// CanModerate reports whether the user may override ownership on deletes.
func (u *User) CanModerate() bool {
	return u.HasRole(RoleModerator)
}
