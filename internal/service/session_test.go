package service

import (
	"context"
	"errors"
	"testing"

	"luigui/internal/core"
	"luigui/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Silence()
}

func TestSession_InitWithoutToken(t *testing.T) {
	s := NewSession(newFakeAuth(), &memStorage{})
	assert.True(t, s.IsLoading())

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.False(t, s.IsLoading())
}

func TestSession_InitWithCachedUser(t *testing.T) {
	gw := newFakeAuth()
	store := &memStorage{token: "tok-ana", user: &core.User{ID: 1, Email: "ana@example.com"}}
	s := NewSession(gw, store)

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "tok-ana", s.Token())
	assert.Equal(t, "ana@example.com", s.User().Email)
}

func TestSession_InitFetchesProfile(t *testing.T) {
	store := &memStorage{token: "tok-ana"}
	s := NewSession(newFakeAuth(), store)

	require.NoError(t, s.Init(context.Background()))
	assert.True(t, s.IsAuthenticated())
	require.NotNil(t, store.user)
	assert.Equal(t, "Ana Souza", store.user.Name)
}

func TestSession_InitClearsRejectedToken(t *testing.T) {
	store := &memStorage{token: "expired"}
	s := NewSession(newFakeAuth(), store)

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Empty(t, store.token)
	assert.Equal(t, 1, store.cleared)
}

func TestSession_LoginSuccess(t *testing.T) {
	store := &memStorage{}
	s := NewSession(newFakeAuth(), store)
	require.NoError(t, s.Init(context.Background()))

	require.NoError(t, s.Login(context.Background(), " ana@example.com ", "pw"))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok-ana", store.token)
	assert.NotEmpty(t, store.token)
	assert.Equal(t, int64(1), s.User().ID)
}

func TestSession_LoginInvalidCredentials(t *testing.T) {
	store := &memStorage{}
	s := NewSession(newFakeAuth(), store)
	require.NoError(t, s.Init(context.Background()))

	err := s.Login(context.Background(), "ana@example.com", "nope")
	require.Error(t, err)
	assert.Equal(t, "Unable to log in with provided credentials.", core.UserMessage(err))
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Empty(t, store.token)
}

func TestSession_LoginRequiresFields(t *testing.T) {
	gw := newFakeAuth()
	s := NewSession(gw, &memStorage{})

	require.Error(t, s.Login(context.Background(), "  ", "pw"))
	assert.Zero(t, gw.loginCalls)
}

func TestSession_LoginProfileFailureKeepsNoToken(t *testing.T) {
	gw := newFakeAuth()
	gw.tokens["ghost@example.com"] = "tok-ghost"
	store := &memStorage{}
	s := NewSession(gw, store)

	err := s.Login(context.Background(), "ghost@example.com", "pw")
	require.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Empty(t, store.token)
	assert.False(t, s.IsAuthenticated())
}

func TestSession_Logout(t *testing.T) {
	gw := newFakeAuth()
	store := &memStorage{}
	s := NewSession(gw, store)
	require.NoError(t, s.Login(context.Background(), "ana@example.com", "pw"))

	s.Logout(context.Background())
	assert.Equal(t, []string{"tok-ana"}, gw.logoutTokens)
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Empty(t, store.token)
	assert.Nil(t, store.user)
}

func TestSession_LogoutIgnoresServerError(t *testing.T) {
	gw := newFakeAuth()
	gw.logoutErr = errors.New("boom")
	store := &memStorage{}
	s := NewSession(gw, store)
	require.NoError(t, s.Login(context.Background(), "ana@example.com", "pw"))

	s.Logout(context.Background())
	assert.Empty(t, store.token)
	assert.Nil(t, s.User())
}

func TestSession_RegisterWithToken(t *testing.T) {
	gw := newFakeAuth()
	gw.registerKey = "tok-Bea"
	store := &memStorage{}
	s := NewSession(gw, store)

	require.NoError(t, s.Register(context.Background(), "Bea", "bea@example.com", "pw"))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok-Bea", store.token)
	assert.Zero(t, gw.loginCalls)
}

func TestSession_RegisterFallsBackToLogin(t *testing.T) {
	gw := newFakeAuth()
	store := &memStorage{}
	s := NewSession(gw, store)

	require.NoError(t, s.Register(context.Background(), "Bea", "bea@example.com", "pw"))
	assert.Equal(t, 1, gw.loginCalls)
	assert.Equal(t, "bea@example.com", s.User().Email)
}

func TestSession_RegisterDuplicate(t *testing.T) {
	gw := newFakeAuth()
	s := NewSession(gw, &memStorage{})

	err := s.Register(context.Background(), "Ana", "ana@example.com", "pw")
	require.Error(t, err)
	assert.Contains(t, core.UserMessage(err), "already registered")
	assert.False(t, s.IsAuthenticated())
}

func TestSessionState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
}
