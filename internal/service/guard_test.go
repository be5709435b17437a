package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name  string
		path  string
		state SessionState
		want  Decision
	}{
		{"loading hides protected page", "/databases", StateLoading, Decision{Rendering: RenderLoading}},
		{"uninitialized hides login", LoginPath, StateUninitialized, Decision{Rendering: RenderLoading}},
		{"anonymous on protected path", "/databases/3/users", StateUnauthenticated, Decision{Rendering: RenderRedirect, Target: LoginPath}},
		{"anonymous on home", HomePath, StateUnauthenticated, Decision{Rendering: RenderRedirect, Target: LoginPath}},
		{"anonymous on login", LoginPath, StateUnauthenticated, Decision{Rendering: RenderAuthLayout}},
		{"anonymous on register", RegisterPath + "/", StateUnauthenticated, Decision{Rendering: RenderAuthLayout}},
		{"signed in on login", LoginPath, StateAuthenticated, Decision{Rendering: RenderRedirect, Target: HomePath}},
		{"signed in on register", RegisterPath, StateAuthenticated, Decision{Rendering: RenderRedirect, Target: HomePath}},
		{"signed in on protected path", "/queries", StateAuthenticated, Decision{Rendering: RenderShell}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.path, tc.state))
		})
	}
}

func TestIsAuthPath(t *testing.T) {
	assert.True(t, IsAuthPath("/auth/login"))
	assert.True(t, IsAuthPath("/auth/register/"))
	assert.False(t, IsAuthPath("/auth/logout"))
	assert.False(t, IsAuthPath("/"))
}
