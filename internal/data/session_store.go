package data

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"luigui/internal/core"
)

const (
	tokenKey      = "auth.token"
	userKey       = "auth.user"
	dbPasswordKey = "db.password."
)

// SessionStore persists the CLI session in client_state. The token and
// database passwords are sealed before they are written.
type SessionStore struct {
	repo   core.StateRepository
	sealer core.Sealer
	ctx    context.Context
}

func NewSessionStore(ctx context.Context, repo core.StateRepository, sealer core.Sealer) *SessionStore {
	return &SessionStore{repo: repo, sealer: sealer, ctx: ctx}
}

func (s *SessionStore) LoadToken() (string, error) {
	sealed, err := s.repo.Get(s.ctx, tokenKey)
	if errors.Is(err, core.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	token, err := s.sealer.Decrypt(sealed)
	if err != nil {
		// Sealed with another key; treat as signed out.
		_ = s.repo.Delete(s.ctx, tokenKey)
		return "", nil
	}
	return token, nil
}

func (s *SessionStore) SaveToken(token string) error {
	sealed, err := s.sealer.Encrypt(token)
	if err != nil {
		return err
	}
	return s.repo.Set(s.ctx, tokenKey, sealed)
}

func (s *SessionStore) LoadUser() (*core.User, error) {
	raw, err := s.repo.Get(s.ctx, userKey)
	if err != nil {
		return nil, err
	}
	var u core.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SessionStore) SaveUser(u *core.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.repo.Set(s.ctx, userKey, string(b))
}

// Clear drops the token, the identity and every remembered database
// password.
func (s *SessionStore) Clear() error {
	if err := s.repo.Delete(s.ctx, tokenKey); err != nil {
		return err
	}
	if err := s.repo.Delete(s.ctx, userKey); err != nil {
		return err
	}
	return s.repo.DeletePrefix(s.ctx, dbPasswordKey)
}

func (s *SessionStore) Password(databaseID int64) (string, bool) {
	sealed, err := s.repo.Get(s.ctx, dbPasswordKey+strconv.FormatInt(databaseID, 10))
	if err != nil {
		return "", false
	}
	pw, err := s.sealer.Decrypt(sealed)
	if err != nil {
		return "", false
	}
	return pw, true
}

func (s *SessionStore) SetPassword(databaseID int64, password string) error {
	sealed, err := s.sealer.Encrypt(password)
	if err != nil {
		return err
	}
	return s.repo.Set(s.ctx, dbPasswordKey+strconv.FormatInt(databaseID, 10), sealed)
}

func (s *SessionStore) ForgetPassword(databaseID int64) error {
	return s.repo.Delete(s.ctx, dbPasswordKey+strconv.FormatInt(databaseID, 10))
}
