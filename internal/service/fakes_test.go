package service

import (
	"context"
	"errors"

	"luigui/internal/core"
)

type fakeAuth struct {
	tokens      map[string]string // email -> token
	users       map[string]*core.User
	registerKey string
	logoutErr   error

	loginCalls    int
	logoutTokens  []string
	registerCalls int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		tokens: map[string]string{"ana@example.com": "tok-ana"},
		users: map[string]*core.User{
			"tok-ana": {ID: 1, Name: "Ana Souza", Email: "ana@example.com", Role: core.RoleAdmin},
		},
	}
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, error) {
	f.loginCalls++
	tok, ok := f.tokens[email]
	if !ok || password != "pw" {
		return "", &core.APIError{Status: 400, Message: "Unable to log in with provided credentials."}
	}
	return tok, nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.logoutTokens = append(f.logoutTokens, token)
	return f.logoutErr
}

func (f *fakeAuth) Register(_ context.Context, name, email, password string) (string, error) {
	f.registerCalls++
	if _, exists := f.tokens[email]; exists {
		return "", &core.APIError{Status: 400, Message: "A user is already registered with this e-mail address."}
	}
	tok := "tok-" + name
	f.tokens[email] = tok
	f.users[tok] = &core.User{ID: 2, Name: name, Email: email, Role: core.RoleEmployee}
	return f.registerKey, nil
}

func (f *fakeAuth) CurrentUser(_ context.Context, token string) (*core.User, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, core.ErrUnauthorized
	}
	return u, nil
}

type memStorage struct {
	token   string
	user    *core.User
	cleared int
}

func (m *memStorage) LoadToken() (string, error) { return m.token, nil }
func (m *memStorage) SaveToken(t string) error   { m.token = t; return nil }
func (m *memStorage) LoadUser() (*core.User, error) {
	if m.user == nil {
		return nil, core.ErrNotFound
	}
	return m.user, nil
}
func (m *memStorage) SaveUser(u *core.User) error { m.user = u; return nil }
func (m *memStorage) Clear() error {
	m.token, m.user = "", nil
	m.cleared++
	return nil
}

type fakeQuestions struct {
	requests []core.QuestionRequest
	reply    *core.QuestionAnswer
	err      error
}

func (f *fakeQuestions) AskQuestion(_ context.Context, databaseID int64, req core.QuestionRequest) (*core.QuestionAnswer, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	qa := *f.reply
	qa.DatabaseID = databaseID
	return &qa, nil
}

func (f *fakeQuestions) ListQuestions(context.Context, int64) ([]core.QuestionAnswer, error) {
	return nil, nil
}

type memPasswords map[int64]string

func (m memPasswords) Password(id int64) (string, bool) {
	pw, ok := m[id]
	return pw, ok
}
func (m memPasswords) SetPassword(id int64, pw string) error { m[id] = pw; return nil }
func (m memPasswords) ForgetPassword(id int64) error        { delete(m, id); return nil }

type memActivity struct {
	entries []core.ActivityLog
	err     error
}

func (m *memActivity) Create(_ context.Context, l *core.ActivityLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *l)
	return nil
}

func (m *memActivity) GetRecent(_ context.Context, limit int) ([]core.ActivityLog, error) {
	return m.entries, nil
}

type accessCall struct {
	Method  string
	UserIDs []int64
}

type fakeAccess struct {
	calls    []accessCall
	grantErr error
}

func (f *fakeAccess) GrantAccess(_ context.Context, _ int64, ids []int64) error {
	f.calls = append(f.calls, accessCall{"grant", ids})
	return f.grantErr
}

func (f *fakeAccess) RevokeAccess(_ context.Context, _ int64, ids []int64) error {
	f.calls = append(f.calls, accessCall{"revoke", ids})
	return nil
}

type fakeSaver struct {
	created []core.DatabasePayload
	updated map[int64]core.DatabasePayload
}

func (f *fakeSaver) CreateDatabase(_ context.Context, p core.DatabasePayload) (*core.Database, error) {
	f.created = append(f.created, p)
	return &core.Database{ID: int64(len(f.created)), Name: p.Name, Kind: core.KindFromWire(p.Type)}, nil
}

func (f *fakeSaver) UpdateDatabase(_ context.Context, id int64, p core.DatabasePayload) (*core.Database, error) {
	if f.updated == nil {
		f.updated = map[int64]core.DatabasePayload{}
	}
	if id == 0 {
		return nil, errors.New("no id")
	}
	f.updated[id] = p
	return &core.Database{ID: id, Name: p.Name, Kind: core.KindFromWire(p.Type)}, nil
}
