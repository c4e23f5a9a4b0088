package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleVendor, RoleAdmin:
		return r, nil
	default:
		return "", badRequest("unknown role %q", s)
	}
}

type User struct {
	ID           string    `json:"id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	DisplayName  string    `json:"displayName" db:"display_name"`
	PhotoURL     string    `json:"photoURL" db:"photo_url"`
	Role         Role      `json:"role" db:"role"`
	IsFraud      bool      `json:"isFraud" db:"is_fraud"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	LastLoggedIn time.Time `json:"lastLoggedIn" db:"last_logged_in"`
}

type UserProfile struct {
	DisplayName string
	PhotoURL    string
}

// NewUser builds the record stored on the first login of email.
// Role is always RoleUser; only an admin can change it later.
func NewUser(email string, profile UserProfile, now time.Time) (User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return User{}, badRequest("email required")
	}

	return User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(profile.DisplayName),
		PhotoURL:     strings.TrimSpace(profile.PhotoURL),
		Role:         RoleUser,
		CreatedAt:    now.UTC(),
		LastLoggedIn: now.UTC(),
	}, nil
}

func (u User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
