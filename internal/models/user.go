package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// User represents an account created from an OAuth login.
// (OAuthProvider, ProviderID) is unique; Email is unique when present.
type User struct {
	Base
	OAuthProvider string  `gorm:"column:oauth_provider;size:20;not null;uniqueIndex:idx_users_provider_identity"`
	ProviderID    string  `gorm:"size:255;not null;uniqueIndex:idx_users_provider_identity"`
	Username      string  `gorm:"size:255;not null"`
	Email         *string `gorm:"size:255;unique"`
	Role          string  `gorm:"size:50;not null;default:'user';index"`
	AvatarURL     string  `gorm:"size:512"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserFavorite is one game in a user's favorites list.
type UserFavorite struct {
	UserID    string `gorm:"primaryKey;size:24"`
	GameID    string `gorm:"primaryKey;size:24;index"`
	CreatedAt time.Time
}
