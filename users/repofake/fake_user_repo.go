package fakeuserrepo

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/skylineops/costview/internal/errors"
	"github.com/skylineops/costview/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	byID        map[int64]*users.User
	externalIds map[string]int64 // provider subject to user id
	emailIds    map[string]int64 // email to user id
	nextID      int64
	lock        sync.RWMutex

	// ProvisionErr, when set, is returned by Provision to simulate storage
	// failures in tests.
	ProvisionErr error
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		byID:        make(map[int64]*users.User),
		externalIds: make(map[string]int64),
		emailIds:    make(map[string]int64),
		nextID:      1,
	}
}

// Seed inserts a user directly, assigning an ID when missing.
func (ur *FakeUserRepo) Seed(user *users.User) *users.User {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == 0 {
		user.ID = ur.nextID
		ur.nextID++
	} else if user.ID >= ur.nextID {
		ur.nextID = user.ID + 1
	}
	ur.byID[user.ID] = user
	ur.externalIds[user.ExternalID] = user.ID
	ur.emailIds[user.Email] = user.ID
	return user
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id int64) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.byID[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneUser(ur.byID[id]), nil
}

func (ur *FakeUserRepo) GetByExternalID(_ context.Context, externalID string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.externalIds[externalID]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneUser(ur.byID[id]), nil
}

func (ur *FakeUserRepo) List(_ context.Context) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*users.User, 0, len(ur.byID))
	for _, u := range ur.byID {
		list = append(list, cloneUser(u))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (ur *FakeUserRepo) Provision(_ context.Context, externalID, email, fullName string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if ur.ProvisionErr != nil {
		return nil, ur.ProvisionErr
	}

	if id, ok := ur.externalIds[externalID]; ok {
		user := ur.byID[id]
		if user.Email != email || (fullName != "" && user.FullName != fullName) {
			delete(ur.emailIds, user.Email)
			user.Email = email
			if fullName != "" {
				user.FullName = fullName
			}
			ur.emailIds[email] = id
		}
		return cloneUser(user), nil
	}

	user := &users.User{
		ID:         ur.nextID,
		ExternalID: externalID,
		Email:      email,
		FullName:   fullName,
		IsActive:   true,
		Roles:      []users.Role{{ID: 1, Name: users.RoleBasicUser, Description: "Basic user role"}},
	}
	ur.nextID++
	ur.byID[user.ID] = user
	ur.externalIds[externalID] = user.ID
	ur.emailIds[email] = user.ID
	return cloneUser(user), nil
}

func (ur *FakeUserRepo) SetRole(_ context.Context, id int64, roleName string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if !users.KnownRole(roleName) {
		return nil, apperrors.ErrInvalidRole
	}
	user, ok := ur.byID[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	roleID := int64(1)
	if roleName == users.RoleAdmin {
		roleID = 2
	}
	user.Roles = []users.Role{{ID: roleID, Name: roleName}}
	return cloneUser(user), nil
}

func cloneUser(u *users.User) *users.User {
	copied := *u
	copied.Roles = append([]users.Role(nil), u.Roles...)
	return &copied
}
