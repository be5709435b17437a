package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"luigui/internal/core"
	"luigui/internal/logger"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "luigui-session"
	tokenCookie = "token"

	valToken   = "token"
	valUser    = "user"
	valSidebar = "sidebar_collapsed"
	valDBPass  = "dbpw:"
)

// SessionManager keeps the browser's persistent client state (token, cached
// identity, sidebar preference, sealed database passwords) in an encrypted
// cookie.
type SessionManager struct {
	store  *sessions.CookieStore
	sealer core.Sealer
	secure bool
}

func NewSessionManager(hashKey, blockKey []byte, sealer core.Sealer, secure bool) *SessionManager {
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, sealer: sealer, secure: secure}
}

// Open loads the session for one request. An undecodable cookie yields an
// empty session.
func (m *SessionManager) Open(w http.ResponseWriter, r *http.Request) *CookieSession {
	sess, err := m.store.Get(r, sessionName)
	if err != nil {
		logger.Info.Printf("Discarding unreadable session cookie: %v", err)
	}
	return &CookieSession{m: m, w: w, r: r, sess: sess}
}

// CookieSession implements core.SessionStorage and service.PasswordStore for
// one request.
type CookieSession struct {
	m    *SessionManager
	w    http.ResponseWriter
	r    *http.Request
	sess *sessions.Session
}

func (c *CookieSession) save() error {
	return c.sess.Save(c.r, c.w)
}

func (c *CookieSession) LoadToken() (string, error) {
	token, _ := c.sess.Values[valToken].(string)
	return token, nil
}

func (c *CookieSession) SaveToken(token string) error {
	c.sess.Values[valToken] = token
	if err := c.save(); err != nil {
		return err
	}
	// Readable mirror of the token for scripts talking to the API directly.
	http.SetCookie(c.w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   c.m.store.Options.MaxAge,
		Secure:   c.m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c *CookieSession) LoadUser() (*core.User, error) {
	raw, _ := c.sess.Values[valUser].(string)
	if raw == "" {
		return nil, core.ErrNotFound
	}
	var u core.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *CookieSession) SaveUser(u *core.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	c.sess.Values[valUser] = string(b)
	return c.save()
}

// Clear drops the token, identity and remembered passwords. The sidebar
// preference survives a logout.
func (c *CookieSession) Clear() error {
	for k := range c.sess.Values {
		name, _ := k.(string)
		if name == valToken || name == valUser || strings.HasPrefix(name, valDBPass) {
			delete(c.sess.Values, k)
		}
	}
	http.SetCookie(c.w, &http.Cookie{Name: tokenCookie, Value: "", Path: "/", MaxAge: -1})
	return c.save()
}

func (c *CookieSession) SidebarCollapsed() bool {
	v, _ := c.sess.Values[valSidebar].(string)
	return v == "1"
}

func (c *CookieSession) SetSidebarCollapsed(collapsed bool) error {
	if collapsed {
		c.sess.Values[valSidebar] = "1"
	} else {
		delete(c.sess.Values, valSidebar)
	}
	return c.save()
}

func passwordKey(databaseID int64) string {
	return valDBPass + strconv.FormatInt(databaseID, 10)
}

func (c *CookieSession) Password(databaseID int64) (string, bool) {
	sealed, _ := c.sess.Values[passwordKey(databaseID)].(string)
	if sealed == "" {
		return "", false
	}
	pw, err := c.m.sealer.Decrypt(sealed)
	if err != nil {
		return "", false
	}
	return pw, true
}

func (c *CookieSession) SetPassword(databaseID int64, password string) error {
	sealed, err := c.m.sealer.Encrypt(password)
	if err != nil {
		return err
	}
	c.sess.Values[passwordKey(databaseID)] = sealed
	return c.save()
}

func (c *CookieSession) ForgetPassword(databaseID int64) error {
	delete(c.sess.Values, passwordKey(databaseID))
	return c.save()
}
