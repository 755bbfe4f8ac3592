package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

const secretBytes = 32

// GenerateSecret returns a new random bearer secret, 0x-prefixed hex.
func GenerateSecret() (string, error) {
	bytes := make([]byte, secretBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(bytes), nil
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
