package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"luigui/internal/core"
	"luigui/internal/logger"
)

type SessionState int

const (
	StateUninitialized SessionState = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "uninitialized"
}

// Session is the signed-in state of one client. It is created per browser
// request (over the cookie store) or once per CLI invocation (over sqlite).
type Session struct {
	gateway core.AuthGateway
	storage core.SessionStorage

	state SessionState
	token string
	user  *core.User
}

func NewSession(gateway core.AuthGateway, storage core.SessionStorage) *Session {
	return &Session{gateway: gateway, storage: storage}
}

func (s *Session) State() SessionState { return s.state }
func (s *Session) Token() string       { return s.token }
func (s *Session) User() *core.User    { return s.user }

func (s *Session) IsAuthenticated() bool { return s.state == StateAuthenticated }

// IsLoading is true until Init has settled the state.
func (s *Session) IsLoading() bool {
	return s.state == StateUninitialized || s.state == StateLoading
}

// Init reads the persisted token and resolves the identity behind it.
// A token the server no longer accepts is cleared.
func (s *Session) Init(ctx context.Context) error {
	s.state = StateLoading

	token, err := s.storage.LoadToken()
	if err != nil {
		s.state = StateUnauthenticated
		return fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		s.state = StateUnauthenticated
		return nil
	}

	if u, err := s.storage.LoadUser(); err == nil && u != nil {
		s.token, s.user = token, u
		s.state = StateAuthenticated
		return nil
	}

	u, err := s.gateway.CurrentUser(ctx, token)
	if err != nil {
		logger.Info.Printf("Stored token rejected, signing out: %v", err)
		s.reset()
		return nil
	}
	if err := s.storage.SaveUser(u); err != nil {
		logger.Error.Printf("Failed to cache user profile: %v", err)
	}
	s.token, s.user = token, u
	s.state = StateAuthenticated
	return nil
}

// Login exchanges credentials for a token. Nothing is persisted unless both
// the token and the profile were obtained.
func (s *Session) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	token, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		s.state = StateUnauthenticated
		return err
	}
	return s.establish(ctx, token)
}

// Register creates the account on the server and signs in. When the server
// answers without a token the credentials are used for a regular login.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return errors.New("name, email and password are required")
	}

	token, err := s.gateway.Register(ctx, name, email, password)
	if err != nil {
		s.state = StateUnauthenticated
		return err
	}
	if token == "" {
		return s.Login(ctx, email, password)
	}
	return s.establish(ctx, token)
}

// Logout tells the server to drop the token. Server errors are logged; the
// local state is always cleared.
func (s *Session) Logout(ctx context.Context) {
	if s.token != "" {
		if err := s.gateway.Logout(ctx, s.token); err != nil {
			logger.Error.Printf("Logout request failed: %v", err)
		}
	}
	s.reset()
}

func (s *Session) establish(ctx context.Context, token string) error {
	u, err := s.gateway.CurrentUser(ctx, token)
	if err != nil {
		s.state = StateUnauthenticated
		return fmt.Errorf("fetch profile: %w", err)
	}
	if err := s.storage.SaveToken(token); err != nil {
		s.state = StateUnauthenticated
		return fmt.Errorf("save token: %w", err)
	}
	if err := s.storage.SaveUser(u); err != nil {
		logger.Error.Printf("Failed to cache user profile: %v", err)
	}
	s.token, s.user = token, u
	s.state = StateAuthenticated
	return nil
}

func (s *Session) reset() {
	if err := s.storage.Clear(); err != nil {
		logger.Error.Printf("Failed to clear session storage: %v", err)
	}
	s.token, s.user = "", nil
	s.state = StateUnauthenticated
}
