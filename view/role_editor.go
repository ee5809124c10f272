package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/skylineops/costview/apiclient"
	"github.com/skylineops/costview/users"
)

// RoleEditor changes one user's role. A rejected change reverts the
// selection to the role held before the attempt and shows the error the
// backend returned; a successful change applies the backend's answer and
// invokes the refresh callback exactly once.
type RoleEditor struct {
	api     *apiclient.Client
	userID  int64
	refresh func()

	mu       sync.Mutex
	selected string
	errMsg   string
}

func NewRoleEditor(api *apiclient.Client, userID int64, currentRole string, refresh func()) *RoleEditor {
	return &RoleEditor{
		api:      api,
		userID:   userID,
		refresh:  refresh,
		selected: currentRole,
	}
}

// Selected returns the currently selected role name.
func (e *RoleEditor) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Err returns the message of the last failed submit, or "".
func (e *RoleEditor) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errMsg
}

// Submit sends the role change. The request body is the bare role-name
// string; the backend answers with the updated assignment.
func (e *RoleEditor) Submit(ctx context.Context, role string) error {
	e.mu.Lock()
	previous := e.selected
	e.selected = role
	e.mu.Unlock()

	var updated users.User
	err := e.api.Put(ctx, fmt.Sprintf("/api/users/%d/role", e.userID), role, &updated)
	if err != nil {
		e.mu.Lock()
		e.selected = previous
		e.errMsg = submitMessage(err)
		e.mu.Unlock()
		return err
	}

	selected := role
	if len(updated.Roles) > 0 {
		selected = updated.Roles[0].Name
	}

	e.mu.Lock()
	e.selected = selected
	e.errMsg = ""
	e.mu.Unlock()

	if e.refresh != nil {
		e.refresh()
	}
	return nil
}

func submitMessage(err error) string {
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message()
	}
	return err.Error()
}
