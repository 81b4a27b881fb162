package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex returns n secure random bytes hex-encoded
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
