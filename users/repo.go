package users

import "context"

// Repo is the storage contract for users and role assignments.
type Repo interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	List(ctx context.Context) ([]*User, error)

	// Provision creates the user with ROLE_BASIC_USER on first login, or
	// syncs email/full name drift when the user already exists. It returns
	// the stored user either way.
	Provision(ctx context.Context, externalID, email, fullName string) (*User, error)

	// SetRole replaces the user's role assignments with the single named
	// role and returns the updated user.
	SetRole(ctx context.Context, id int64, roleName string) (*User, error)
}
