package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionService(t *testing.T) {
	_, err := NewEncryptionService([]byte("short"))
	require.Error(t, err)

	svc, err := NewEncryptionService(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	a, err := svc.Encrypt("secret123")
	require.NoError(t, err)
	b, err := svc.Encrypt("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonce must differ per call")

	plain, err := svc.Decrypt(a)
	require.NoError(t, err)
	assert.Equal(t, "secret123", plain)

	other, err := NewEncryptionService(bytes.Repeat([]byte{8}, 32))
	require.NoError(t, err)
	_, err = other.Decrypt(a)
	require.Error(t, err)

	_, err = svc.Decrypt("!!")
	require.Error(t, err)
}
