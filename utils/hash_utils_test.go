package utils

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestPBKDF2Format(t *testing.T) {
	hash, salt, err := HashPassword(SchemePBKDF2, "admin123")
	require.NoError(t, err)
	assert.Len(t, salt, 32)
	assert.Len(t, hash, 128)

	assert.True(t, CheckPasswordHash("admin123", hash, salt))
	assert.False(t, CheckPasswordHash("admin124", hash, salt))
	assert.False(t, CheckPasswordHash("admin123", hash, "00"+salt[2:]))
}

func TestPBKDF2MatchesStoredCredentials(t *testing.T) {
	salt := "0123456789abcdef0123456789abcdef"
	stored := hex.EncodeToString(pbkdf2.Key([]byte("secret"), []byte(salt), 1000, 64, sha512.New))
	assert.True(t, CheckPasswordHash("secret", stored, salt))
}

func TestBcrypt(t *testing.T) {
	hash, salt, err := HashPassword(SchemeBcrypt, "secret")
	require.NoError(t, err)
	assert.Empty(t, salt)
	assert.True(t, CheckPasswordHash("secret", hash, ""))
	assert.False(t, CheckPasswordHash("wrong", hash, ""))
}

func TestUnknownScheme(t *testing.T) {
	_, _, err := HashPassword("md5", "secret")
	assert.Error(t, err)
	assert.False(t, CheckPasswordHash("secret", "", ""))
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(16)
	require.NoError(t, err)
	b, err := RandomHex(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
