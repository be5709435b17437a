// Package backend is the HTTP gateway to the remote NL-to-SQL API.
//
// A Client holds the base URL and transport settings. Calls made on behalf of
// a signed-in user go through a Conn, which carries the user's token, its own
// cookie jar and the CSRF token the API expects on mutating requests.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"luigui/internal/core"
	"luigui/internal/logger"
)

const (
	csrfPath         = "/dj-rest-auth/csrf/"
	loginPath        = "/dj-rest-auth/login/"
	logoutPath       = "/dj-rest-auth/logout/"
	userPath         = "/dj-rest-auth/user/"
	registrationPath = "/dj-rest-auth/registration/"

	csrfHeader = "X-CSRFToken"
	csrfCookie = "csrftoken"

	maxErrorBody = 64 << 10
)

type Client struct {
	baseURL string
	timeout time.Duration
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns a connection bound to token. An empty token is allowed
// for the unauthenticated calls (CSRF, login, registration).
func (c *Client) Session(token string) *Conn {
	jar, _ := cookiejar.New(nil)
	return &Conn{
		client: c,
		http:   &http.Client{Timeout: c.timeout, Jar: jar},
		token:  token,
	}
}

type loginResponse struct {
	Key string `json:"key"`
}

// Login posts the credentials and returns the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	conn := c.Session("")
	var out loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := conn.do(ctx, http.MethodPost, loginPath, body, &out); err != nil {
		return "", err
	}
	if out.Key == "" {
		return "", core.ErrNoToken
	}
	return out.Key, nil
}

// Logout invalidates token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.Session(token).do(ctx, http.MethodPost, logoutPath, nil, nil)
}

// Register creates an account. The returned token is empty when the server
// requires a separate login (e.g. pending e-mail verification).
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	conn := c.Session("")
	var out loginResponse
	body := map[string]string{
		"username":   usernameFromEmail(email),
		"first_name": name,
		"email":      email,
		"password1":  password,
		"password2":  password,
	}
	if err := conn.do(ctx, http.MethodPost, registrationPath, body, &out); err != nil {
		return "", err
	}
	return out.Key, nil
}

// usernameFromEmail is the part of the address before the "@". The server's
// username validator rejects the spaces a display name usually has.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// CurrentUser fetches the profile that token belongs to.
func (c *Client) CurrentUser(ctx context.Context, token string) (*core.User, error) {
	if token == "" {
		return nil, core.ErrUnauthorized
	}
	var u core.User
	if err := c.Session(token).do(ctx, http.MethodGet, userPath, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Conn is one user's view of the API.
type Conn struct {
	client *Client
	http   *http.Client
	token  string
	csrf   string
}

// Token returns the bearer token the connection was created with.
func (c *Conn) Token() string {
	return c.token
}

func (c *Conn) ensureCSRF(ctx context.Context) error {
	if c.csrf != "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.client.baseURL+csrfPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error.Printf("Error fetching CSRF token: %v", err)
		return fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if token := resp.Header.Get(csrfHeader); token != "" {
		c.csrf = token
		return nil
	}
	if u, err := url.Parse(c.client.baseURL); err == nil {
		for _, ck := range c.http.Jar.Cookies(u) {
			if ck.Name == csrfCookie {
				c.csrf = ck.Value
				return nil
			}
		}
	}
	// The API accepts token-authenticated requests without CSRF; carry on.
	return nil
}

func (c *Conn) do(ctx context.Context, method, path string, body, out any) error {
	if method != http.MethodGet && method != http.MethodHead {
		if err := c.ensureCSRF(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.client.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	if c.csrf != "" {
		req.Header.Set(csrfHeader, c.csrf)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error.Printf("%s %s failed: %v", method, path, err)
		return fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return core.ErrUnauthorized
	case http.StatusForbidden:
		return core.ErrForbidden
	}
	return &core.APIError{Status: status, Message: extractMessage(body)}
}

// extractMessage pulls a human-readable message out of an error body.
// Known keys win; otherwise the first field error (in key order) is used.
func extractMessage(body []byte) string {
	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		return ""
	}

	switch v := generic.(type) {
	case []any:
		return firstString(v)
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"non_field_errors", "ERROR", "error", "detail", "message"} {
			if msg := stringOf(v[key]); msg != "" {
				return msg
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if msg := stringOf(v[k]); msg != "" {
				return k + ": " + msg
			}
		}
	}
	return ""
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		return firstString(t)
	}
	return ""
}

func firstString(list []any) string {
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
