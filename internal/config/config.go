package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
)

const keyEnv = "LUIGUI_KEY"

type Config struct {
	Port               int
	Key                string
	APIBaseURL         string
	StateDB            string
	LogDir             string
	SecureCookies      bool
	RequestTimeout     time.Duration
	LoginRatePerMinute float64
	LoginBurst         int
}

// Keys are derived from Config.Key so one secret serves every purpose.
type Keys struct {
	CookieHash  []byte
	CookieBlock []byte
	Seal        []byte
}

func Load() (*Config, error) {
	// Try loading .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	key := os.Getenv(keyEnv)
	if len(key) < 32 {
		fmt.Fprintln(os.Stderr, keyEnv+" not found or too short. Generating a new secure key...")
		newKey, err := generateRandomKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}

		if err := saveKeyToEnv(".env", newKey); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to save generated key to .env: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "New "+keyEnv+" saved to .env file.")
		}
		key = newKey
	}

	cfg := &Config{
		Port:               envInt("PORT", 8080),
		Key:                key,
		APIBaseURL:         strings.TrimRight(envString("API_BASE_URL", "http://localhost:8080"), "/"),
		StateDB:            envString("STATE_DB", "luigui.db"),
		LogDir:             envString("LOG_DIR", "logs"),
		SecureCookies:      envBool("SECURE_COOKIES", false),
		RequestTimeout:     envDuration("REQUEST_TIMEOUT", 60*time.Second),
		LoginRatePerMinute: envFloat("LOGIN_RATE_PER_MINUTE", 5),
		LoginBurst:         envInt("LOGIN_BURST", 3),
	}
	return cfg, nil
}

// DeriveKeys expands the configured secret into independent keys for
// cookie signing, cookie encryption and password sealing.
func (c *Config) DeriveKeys() (*Keys, error) {
	derive := func(info string, size int) ([]byte, error) {
		out := make([]byte, size)
		r := hkdf.New(sha256.New, []byte(c.Key), nil, []byte("luigui/"+info))
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, fmt.Errorf("derive %s key: %w", info, err)
		}
		return out, nil
	}

	hash, err := derive("cookie-hash", 64)
	if err != nil {
		return nil, err
	}
	block, err := derive("cookie-block", 32)
	if err != nil {
		return nil, err
	}
	seal, err := derive("seal", 32)
	if err != nil {
		return nil, err
	}
	return &Keys{CookieHash: hash, CookieBlock: block, Seal: seal}, nil
}

func envString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return v
	}
	return def
}

func envFloat(name string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(name), 64); err == nil && v > 0 {
		return v
	}
	return def
}

func envBool(name string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return v
	}
	return def
}

func envDuration(name string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(name)); err == nil && v > 0 {
		return v
	}
	return def
}

func generateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	// Return base64 encoded string to ensure it's printable and handles bytes correctly
	return base64.StdEncoding.EncodeToString(b), nil
}

func saveKeyToEnv(filename, key string) error {
	content, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return os.WriteFile(filename, []byte(fmt.Sprintf("%s=%s\nPORT=8080\n", keyEnv, key)), 0600)
	} else if err != nil {
		return err
	}

	lines := strings.Split(decodeEnvFile(content), "\n")
	found := false
	newLines := []string{}

	for _, line := range lines {
		trimmed := strings.TrimSpace(strings.ReplaceAll(line, "\x00", ""))
		if strings.HasPrefix(trimmed, keyEnv+"=") {
			newLines = append(newLines, fmt.Sprintf("%s=%s", keyEnv, key))
			found = true
		} else if trimmed != "" {
			newLines = append(newLines, trimmed)
		}
	}

	if !found {
		newLines = append(newLines, fmt.Sprintf("%s=%s", keyEnv, key))
	}

	return os.WriteFile(filename, []byte(strings.Join(newLines, "\n")+"\n"), 0600)
}

// decodeEnvFile converts UTF-16LE content (with a BOM, or detected by a
// high share of NUL bytes) to UTF-8. Editors on Windows like to save .env
// files that way.
func decodeEnvFile(content []byte) string {
	hasBOM := len(content) >= 2 && content[0] == 0xff && content[1] == 0xfe

	nullCount := 0
	if !hasBOM && len(content) > 10 {
		for _, b := range content {
			if b == 0 {
				nullCount++
			}
		}
	}
	isImplicitUTF16 := !hasBOM && len(content) > 0 && float64(nullCount)/float64(len(content)) > 0.3

	if !hasBOM && !isImplicitUTF16 {
		return string(content)
	}

	start := 0
	if hasBOM {
		start = 2
	}
	data := content[start:]
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}

	u16s := make([]uint16, len(data)/2)
	for i := range u16s {
		u16s[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return string(utf16.Decode(u16s))
}
