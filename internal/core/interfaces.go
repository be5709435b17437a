package core

import "context"

// AuthGateway wraps the remote login, logout, registration and profile calls.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Register(ctx context.Context, name, email, password string) (string, error)
	CurrentUser(ctx context.Context, token string) (*User, error)
}

// DatabaseGateway is the remote database, table and access API for one
// signed-in user.
type DatabaseGateway interface {
	ListDatabases(ctx context.Context) ([]Database, error)
	GetDatabase(ctx context.Context, id int64) (*Database, error)
	CreateDatabase(ctx context.Context, p DatabasePayload) (*Database, error)
	UpdateDatabase(ctx context.Context, id int64, p DatabasePayload) (*Database, error)
	ListTables(ctx context.Context, databaseID int64) ([]Table, error)
	CreateTable(ctx context.Context, databaseID int64, p TablePayload) error
	DeleteTable(ctx context.Context, databaseID, tableID int64) error
	ListUsers(ctx context.Context) ([]User, error)
	AccessGateway
}

// AccessGateway grants or revokes database access for a set of users.
type AccessGateway interface {
	GrantAccess(ctx context.Context, databaseID int64, userIDs []int64) error
	RevokeAccess(ctx context.Context, databaseID int64, userIDs []int64) error
}

// QuestionGateway submits questions and lists previous answers.
type QuestionGateway interface {
	AskQuestion(ctx context.Context, databaseID int64, req QuestionRequest) (*QuestionAnswer, error)
	ListQuestions(ctx context.Context, databaseID int64) ([]QuestionAnswer, error)
}

// SessionStorage persists the auth token and cached identity on the client.
type SessionStorage interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	LoadUser() (*User, error)
	SaveUser(u *User) error
	Clear() error
}

// StateRepository is a small key/value store for local client state.
type StateRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// ActivityRepository defines storage operations for the local activity log
type ActivityRepository interface {
	Create(ctx context.Context, log *ActivityLog) error
	GetRecent(ctx context.Context, limit int) ([]ActivityLog, error)
}

// Sealer encrypts secrets kept on the client.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
