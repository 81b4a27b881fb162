package utils

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Password schemes
const (
	SchemePBKDF2 = "pbkdf2"
	SchemeBcrypt = "bcrypt"
)

// PBKDF2 parameters of the stored credential format
const (
	pbkdf2Iterations = 1000
	pbkdf2KeyLen     = 64
	saltBytes        = 16
)

// HashPassword hashes password with scheme and returns the stored hash and salt.
// pbkdf2 yields a hex key and a hex salt; bcrypt embeds its salt and returns "" for it.
func HashPassword(scheme, password string) (hash string, salt string, err error) {
	switch scheme {
	case SchemeBcrypt:
		bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", "", err
		}
		return string(bytes), "", nil
	case SchemePBKDF2, "":
		salt, err = RandomHex(saltBytes)
		if err != nil {
			return "", "", err
		}
		return pbkdf2Hex(password, salt), salt, nil
	default:
		return "", "", fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// CheckPasswordHash compares password with a stored hash of either scheme
func CheckPasswordHash(password, hash, salt string) bool {
	if hash == "" {
		return false
	}
	if salt == "" && strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	want := pbkdf2Hex(password, salt)
	return subtle.ConstantTimeCompare([]byte(want), []byte(hash)) == 1
}

// the salt is used as its hex text, not decoded
func pbkdf2Hex(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha512.New)
	return hex.EncodeToString(key)
}
