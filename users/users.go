package users

import (
	"time"
)

// Role names are a closed set. The backend is the only authorizer; anything
// holding a User merely reflects what the store returned.
const (
	RoleBasicUser = "ROLE_BASIC_USER"
	RoleAdmin     = "ROLE_ADMIN"
)

// KnownRole reports whether name is one of the enumerated role names.
func KnownRole(name string) bool {
	return name == RoleBasicUser || name == RoleAdmin
}

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type User struct {
	ID         int64      `json:"id"`
	ExternalID string     `json:"external_id"` // subject claim at the identity provider
	Email      string     `json:"email"`
	FullName   string     `json:"full_name,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	Roles      []Role     `json:"roles"`
}

// HasRole reports whether the user holds the named role.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user holds ROLE_ADMIN.
func (u User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// RoleNames returns the user's role names in storage order.
func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
