package domain

import "time"

// SessionTTL is the fixed lifetime of a session token and its cookie.
const SessionTTL = 7 * 24 * time.Hour

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Session describes a verified session token.
type Session struct {
	TokenID   string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
