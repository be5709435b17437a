package service

import "strings"

const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	HomePath     = "/"
)

type Rendering int

const (
	RenderLoading Rendering = iota
	RenderAuthLayout
	RenderShell
	RenderRedirect
)

// Decision is what the guard wants rendered for a path.
type Decision struct {
	Rendering Rendering
	Target    string
}

func IsAuthPath(path string) bool {
	path = strings.TrimRight(path, "/")
	return path == LoginPath || path == RegisterPath
}

// Decide maps a path and session state to a rendering. Protected content is
// never chosen while the session is still loading.
func Decide(path string, state SessionState) Decision {
	switch state {
	case StateUninitialized, StateLoading:
		return Decision{Rendering: RenderLoading}
	case StateAuthenticated:
		if IsAuthPath(path) {
			return Decision{Rendering: RenderRedirect, Target: HomePath}
		}
		return Decision{Rendering: RenderShell}
	}

	if IsAuthPath(path) {
		return Decision{Rendering: RenderAuthLayout}
	}
	return Decision{Rendering: RenderRedirect, Target: LoginPath}
}
