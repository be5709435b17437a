package service

import (
	"context"
	"slices"
	"strings"

	"luigui/internal/core"
)

// AccessEditor holds the checkbox state of the database users page.
type AccessEditor struct {
	DatabaseID int64
	employees  []core.User
	access     map[int64]bool
}

// NewAccessEditor starts from the server's view: an employee has access when
// the database is in their list. Admins are not listed.
func NewAccessEditor(databaseID int64, users []core.User) *AccessEditor {
	e := &AccessEditor{DatabaseID: databaseID, access: make(map[int64]bool)}
	for _, u := range users {
		if u.Role != core.RoleEmployee {
			continue
		}
		e.employees = append(e.employees, u)
		e.access[u.ID] = slices.Contains(u.Databases, databaseID)
	}
	return e
}

func (e *AccessEditor) HasAccess(userID int64) bool { return e.access[userID] }

func (e *AccessEditor) Toggle(userID int64) {
	if _, ok := e.access[userID]; ok {
		e.access[userID] = !e.access[userID]
	}
}

// SetChecked replaces the whole selection, as a submitted form does.
func (e *AccessEditor) SetChecked(userIDs []int64) {
	for id := range e.access {
		e.access[id] = slices.Contains(userIDs, id)
	}
}

// Employees returns the listed users whose email contains filter.
func (e *AccessEditor) Employees(filter string) []core.User {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return e.employees
	}
	var out []core.User
	for _, u := range e.employees {
		if strings.Contains(strings.ToLower(u.Email), filter) {
			out = append(out, u)
		}
	}
	return out
}

// Lists splits the employees by their final state.
func (e *AccessEditor) Lists() (grant, revoke []int64) {
	for _, u := range e.employees {
		if e.access[u.ID] {
			grant = append(grant, u.ID)
		} else {
			revoke = append(revoke, u.ID)
		}
	}
	return grant, revoke
}

// Save sends the grant list, then the revoke list, skipping empty ones.
func (e *AccessEditor) Save(ctx context.Context, gw core.AccessGateway) error {
	grant, revoke := e.Lists()
	if len(grant) > 0 {
		if err := gw.GrantAccess(ctx, e.DatabaseID, grant); err != nil {
			return err
		}
	}
	if len(revoke) > 0 {
		if err := gw.RevokeAccess(ctx, e.DatabaseID, revoke); err != nil {
			return err
		}
	}
	return nil
}
