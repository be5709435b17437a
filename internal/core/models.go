package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// User is the identity returned by the remote user endpoint.
type User struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Databases []int64 `json:"databases"`
}

// DisplayName falls back to the username, then the email
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// ConnectionKind selects which detail shape a Database carries.
type ConnectionKind string

const (
	KindDirect ConnectionKind = "direct"
	KindSchema ConnectionKind = "schema"
)

// Wire values used by the remote API for the two kinds.
const (
	wireComplete = "complete"
	wireMinimal  = "minimal"
)

// WireType maps the kind to the remote "type" field.
func (k ConnectionKind) WireType() string {
	if k == KindDirect {
		return wireComplete
	}
	return wireMinimal
}

// KindFromWire maps the remote "type" field back to a kind.
func KindFromWire(t string) ConnectionKind {
	if t == wireComplete || t == string(KindDirect) {
		return KindDirect
	}
	return KindSchema
}

func (k ConnectionKind) Valid() bool {
	return k == KindDirect || k == KindSchema
}

type Database struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	Kind     ConnectionKind `json:"-"`
	Host     string         `json:"host"`
	Port     string         `json:"port"`
	Username string         `json:"username"`
}

// UnmarshalJSON accepts the remote shape where port may be a number and
// the kind is carried in "type".
func (d *Database) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       int64           `json:"id"`
		Name     string          `json:"name"`
		Type     string          `json:"type"`
		Host     *string         `json:"host"`
		Port     json.RawMessage `json:"port"`
		Username *string         `json:"username"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.ID = raw.ID
	d.Name = raw.Name
	d.Kind = KindFromWire(raw.Type)
	if raw.Host != nil {
		d.Host = *raw.Host
	}
	if raw.Username != nil {
		d.Username = *raw.Username
	}
	d.Port = rawScalar(raw.Port)
	return nil
}

func (d *Database) IsDirect() bool {
	return d != nil && d.Kind == KindDirect
}

// DatabasePayload is the create/update body. Fields of the kind that was
// not chosen are sent as null.
type DatabasePayload struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Host     *string `json:"host"`
	Port     *string `json:"port"`
	Username *string `json:"username"`
	Password *string `json:"password,omitempty"`
	DBName   *string `json:"db_name"`
	Schemas  *string `json:"schemas,omitempty"`
}

type Table struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	DatabaseID int64  `json:"database"`
}

// TablePayload is the create body; direct databases send Name and
// DBPassword, schema-provided databases send Schemas.
type TablePayload struct {
	Name       string `json:"name,omitempty"`
	DBPassword string `json:"db_password,omitempty"`
	Schemas    string `json:"schemas,omitempty"`
}

type QuestionAnswer struct {
	ID         int64     `json:"id"`
	DatabaseID int64     `json:"database"`
	Question   string    `json:"question"`
	SQL        string    `json:"sql"`
	Answer     string    `json:"answer"`
	PromptType string    `json:"prompt_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// UnmarshalJSON accepts both the question endpoint response
// ({sql_query, natural_language_response}) and the stored record shape
// ({query, answer}).
func (q *QuestionAnswer) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID                      int64     `json:"id"`
		Database                int64     `json:"database"`
		Question                string    `json:"question"`
		Query                   *string   `json:"query"`
		Answer                  *string   `json:"answer"`
		SQLQuery                *string   `json:"sql_query"`
		NaturalLanguageResponse *string   `json:"natural_language_response"`
		PromptType              string    `json:"prompt_type"`
		CreatedAt               time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	q.ID = raw.ID
	q.DatabaseID = raw.Database
	q.Question = raw.Question
	q.PromptType = raw.PromptType
	q.CreatedAt = raw.CreatedAt
	q.SQL = firstNonNil(raw.SQLQuery, raw.Query)
	q.Answer = firstNonNil(raw.NaturalLanguageResponse, raw.Answer)
	return nil
}

// QuestionRequest is the body sent to the question endpoint.
type QuestionRequest struct {
	Question   string `json:"question"`
	PromptType string `json:"prompt_type"`
	DBPassword string `json:"db_password,omitempty"`
}

// AccessChange is the bulk grant/revoke body.
type AccessChange struct {
	UserIDs []int64 `json:"user_ids"`
}

// ActivityLog is a local record of one question submission.
type ActivityLog struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	UserEmail    string    `json:"user_email"`
	DatabaseID   int64     `json:"database_id"`
	PromptType   string    `json:"prompt_type"`
	DurationMs   int64     `json:"duration_ms"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message"`
}

const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

func firstNonNil(vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return ""
}

func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return strings.Trim(string(raw), `"`)
}
