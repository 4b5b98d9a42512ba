package models

import "time"

// Role represents the available roles for the RBAC system.
type Role string

const (
	RoleAdmin Role = "ROLE_ADMIN"
	RoleUser  Role = "ROLE_USER"
)

// User represents an account stored in the users table.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        []Role
	TotpSecret   *string
	CreatedAt    time.Time
}

// HasRole reports whether the user holds any of the given roles.
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, held := range u.Roles {
		for _, want := range roles {
			if held == want {
				return true
			}
		}
	}
	return false
}

// TotpEnabled reports whether a second factor is enrolled.
func (u *User) TotpEnabled() bool {
	return u != nil && u.TotpSecret != nil && *u.TotpSecret != ""
}

// UserView is the public shape of a user.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileView adds account flags visible only to the owner.
type ProfileView struct {
	UserView
	TotpEnabled bool `json:"totp_enabled"`
}

// View converts the user into its public shape.
func (u *User) View() UserView {
	roles := u.Roles
	if roles == nil {
		roles = []Role{}
	}
	return UserView{ID: u.ID, Username: u.Username, Roles: roles, CreatedAt: u.CreatedAt}
}

// UpdateProfileRequest changes the caller's username and optionally password.
type UpdateProfileRequest struct {
	Username    string `json:"username" validate:"required,min=1,max=64"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
