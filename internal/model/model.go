package model

import "time"

type Role string

const (
	RoleStudent   Role = "student"
	RoleStaff     Role = "staff"
	RoleAdmin     Role = "admin"
	RoleCommunity Role = "community"
)

var Roles = []Role{RoleStudent, RoleStaff, RoleAdmin, RoleCommunity}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin, RoleCommunity:
		return true
	}
	return false
}

type User struct {
	ID              int64
	Email           string
	PasswordHash    string
	Role            Role
	IsEmailVerified bool
	IsActive        bool
	ProfileImageURL *string
}

type Session struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type EmailToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	IsUsed    bool
}

// Identity is what a valid bearer token resolves to.
type Identity struct {
	UserID    int64
	SessionID int64
	Role      Role
}
