package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"luigui/internal/core"
	"luigui/internal/logger"
	"luigui/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	logger.Silence()
	rl := NewRateLimiter(1, 2)

	ok, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, retry := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, retry.Seconds(), 0.0)

	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok, "other clients keep their own bucket")
}

func TestRateLimiter_MiddlewareReturns429(t *testing.T) {
	logger.Silence()
	h := NewRateLimiter(1, 1).Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "192.0.2.7:4000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestCSRF_EnsureSetsCookieOnce(t *testing.T) {
	h := CSRF{}.Ensure(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, csrfCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())
}

func TestCSRF_Require(t *testing.T) {
	logger.Silence()
	h := CSRF{}.Require(okHandler())
	cookie := &http.Cookie{Name: csrfCookieName, Value: "tok"}

	tests := []struct {
		name   string
		cookie bool
		form   string
		header string
		want   int
	}{
		{name: "matching form field", cookie: true, form: "tok", want: http.StatusOK},
		{name: "matching header", cookie: true, header: "tok", want: http.StatusOK},
		{name: "mismatch", cookie: true, form: "other", want: http.StatusForbidden},
		{name: "no cookie", form: "tok", want: http.StatusForbidden},
		{name: "empty field", cookie: true, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := url.Values{"csrf_token": {tt.form}}.Encode()
			req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}
			if tt.cookie {
				req.AddCookie(cookie)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "safe methods pass")
}

func TestCookieSession_ClearKeepsSidebarPreference(t *testing.T) {
	logger.Silence()
	sealer, err := service.NewEncryptionService([]byte(strings.Repeat("s", 32)))
	require.NoError(t, err)
	m := NewSessionManager([]byte(strings.Repeat("h", 64)), []byte(strings.Repeat("b", 32)), sealer, false)

	rec := httptest.NewRecorder()
	s := m.Open(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, s.SaveToken("tok-ana"))
	require.NoError(t, s.SaveUser(&core.User{ID: 1, Email: "ana@example.com"}))
	require.NoError(t, s.SetPassword(1, "secret"))
	require.NoError(t, s.SetSidebarCollapsed(true))

	// Every save re-sets the cookie; the browser keeps the last one.
	var last *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			last = c
		}
	}
	require.NotNil(t, last)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(last)
	s = m.Open(httptest.NewRecorder(), req)

	token, err := s.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-ana", token)
	pw, ok := s.Password(1)
	assert.True(t, ok)
	assert.Equal(t, "secret", pw)

	require.NoError(t, s.Clear())
	token, _ = s.LoadToken()
	assert.Empty(t, token)
	_, ok = s.Password(1)
	assert.False(t, ok)
	assert.True(t, s.SidebarCollapsed())
}
