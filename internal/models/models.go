package models

import "time"

// User represents an account within the video portal.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	PhoneNumber  string
	IsAdmin      bool
	IsApproved   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Status reports which approval lifecycle state applies to the user.
func (u User) Status() string {
	switch {
	case u.IsAdmin:
		return UserStatusAdmin
	case u.IsApproved:
		return UserStatusApproved
	default:
		return UserStatusPending
	}
}

const (
	UserStatusPending  = "pending"
	UserStatusApproved = "approved"
	UserStatusAdmin    = "admin"
)

// Identity is the request-scoped view of an authenticated user.
type Identity struct {
	ID         string
	Email      string
	IsAdmin    bool
	IsApproved bool
}

// IdentityFor derives the identity carried through a request for the given user.
func IdentityFor(u User) Identity {
	return Identity{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin, IsApproved: u.IsApproved}
}

// Album groups videos for browsing.
type Album struct {
	ID          string
	Title       string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	VideoCount  int
	IsActive    bool
}

// Video references an externally hosted video.
type Video struct {
	ID          string
	Title       string
	Description string
	URL         string
	AlbumID     *string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ShareToken  string
}

// SessionToken is the bearer credential handed out on login.
type SessionToken struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
