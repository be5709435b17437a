package service

import (
	"context"
	"errors"
	"testing"

	"luigui/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accessUsers() []core.User {
	return []core.User{
		{ID: 1, Email: "admin@example.com", Role: core.RoleAdmin, Databases: []int64{3}},
		{ID: 2, Email: "bea@example.com", Role: core.RoleEmployee, Databases: []int64{3, 4}},
		{ID: 3, Email: "caio@example.com", Role: core.RoleEmployee},
		{ID: 4, Email: "dani@corp.example", Role: core.RoleEmployee, Databases: []int64{4}},
	}
}

func TestAccessEditor_InitialState(t *testing.T) {
	e := NewAccessEditor(3, accessUsers())

	assert.Len(t, e.Employees(""), 3)
	assert.True(t, e.HasAccess(2))
	assert.False(t, e.HasAccess(3))
	assert.False(t, e.HasAccess(1), "admins are not listed")
}

func TestAccessEditor_OnlyFinalStateIsSent(t *testing.T) {
	e := NewAccessEditor(3, accessUsers())
	e.Toggle(3)
	e.Toggle(3)
	e.Toggle(4)
	e.Toggle(99)

	gw := &fakeAccess{}
	require.NoError(t, e.Save(context.Background(), gw))
	require.Len(t, gw.calls, 2)
	assert.Equal(t, accessCall{"grant", []int64{2, 4}}, gw.calls[0])
	assert.Equal(t, accessCall{"revoke", []int64{3}}, gw.calls[1])
}

func TestAccessEditor_SkipsEmptyLists(t *testing.T) {
	e := NewAccessEditor(3, accessUsers())
	e.SetChecked([]int64{2, 3, 4})

	gw := &fakeAccess{}
	require.NoError(t, e.Save(context.Background(), gw))
	require.Len(t, gw.calls, 1)
	assert.Equal(t, "grant", gw.calls[0].Method)

	e.SetChecked(nil)
	gw = &fakeAccess{}
	require.NoError(t, e.Save(context.Background(), gw))
	require.Len(t, gw.calls, 1)
	assert.Equal(t, accessCall{"revoke", []int64{2, 3, 4}}, gw.calls[0])
}

func TestAccessEditor_GrantFailureStopsSave(t *testing.T) {
	e := NewAccessEditor(3, accessUsers())
	gw := &fakeAccess{grantErr: errors.New("nope")}

	require.Error(t, e.Save(context.Background(), gw))
	assert.Len(t, gw.calls, 1)
}

func TestAccessEditor_EmailFilter(t *testing.T) {
	e := NewAccessEditor(3, accessUsers())

	got := e.Employees("CORP")
	require.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].ID)
	assert.Empty(t, e.Employees("nobody"))
}
