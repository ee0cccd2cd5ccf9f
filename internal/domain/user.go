package domain

import "time"

// Role is the coarse permission class of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a role value. An empty value defaults to RoleUser.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case "":
		return RoleUser, true
	case RoleUser, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// User is the persisted identity of someone who can log in.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity strips the credential material from the user.
func (u *User) Identity() *Identity {
	return &Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
