package config

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(keyEnv, testKey)
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "http://api.example.com/")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("REQUEST_TIMEOUT", "15s")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "10")
	t.Setenv("LOGIN_BURST", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, testKey, cfg.Key)
	assert.Equal(t, "http://api.example.com", cfg.APIBaseURL)
	assert.True(t, cfg.SecureCookies)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.InDelta(t, 10.0, cfg.LoginRatePerMinute, 0.001)
	assert.Equal(t, 4, cfg.LoginBurst)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(keyEnv, testKey)
	t.Setenv("PORT", "not-a-number")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "luigui.db", cfg.StateDB)
}

func TestDeriveKeys_DistinctAndStable(t *testing.T) {
	cfg := &Config{Key: testKey}

	a, err := cfg.DeriveKeys()
	require.NoError(t, err)
	b, err := cfg.DeriveKeys()
	require.NoError(t, err)

	assert.Len(t, a.CookieHash, 64)
	assert.Len(t, a.CookieBlock, 32)
	assert.Len(t, a.Seal, 32)
	assert.Equal(t, a.Seal, b.Seal)
	assert.NotEqual(t, a.CookieBlock, a.Seal)

	other, err := (&Config{Key: strings.Repeat("z", 32)}).DeriveKeys()
	require.NoError(t, err)
	assert.NotEqual(t, a.Seal, other.Seal)
}

func TestSaveKeyToEnv_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, saveKeyToEnv(path, "new-key"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), keyEnv+"=new-key")
	assert.Contains(t, string(content), "PORT=8080")
}

func TestSaveKeyToEnv_ReplacesExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9000\r\n"+keyEnv+"=old\r\nAPI_BASE_URL=http://x\r\n"), 0600))

	require.NoError(t, saveKeyToEnv(path, "fresh"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PORT=9000\n"+keyEnv+"=fresh\nAPI_BASE_URL=http://x\n", string(content))
}

func TestSaveKeyToEnv_DecodesUTF16(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	units := utf16.Encode([]rune("PORT=7000\n"))
	raw := []byte{0xff, 0xfe}
	for _, u := range units {
		raw = binary.LittleEndian.AppendUint16(raw, u)
	}
	require.NoError(t, os.WriteFile(path, raw, 0600))

	require.NoError(t, saveKeyToEnv(path, "k"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PORT=7000\n"+keyEnv+"=k\n", string(content))
}
