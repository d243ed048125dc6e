// Package cryptox hashes and checks the PIN that locks the client settings.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

const saltSize = 16

var ErrMalformedHash = errors.New("malformed pin hash")

func derive(pin, salt []byte) []byte {
	return argon2.IDKey(pin, salt, 1, 64*1024, 4, 32)
}

// HashPIN returns "salt$key", both hex encoded.
func HashPIN(pin string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := derive([]byte(pin), salt)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(key), nil
}

// VerifyPIN checks pin against a value produced by HashPIN.
func VerifyPIN(pin, stored string) (bool, error) {
	saltHex, keyHex, ok := strings.Cut(stored, "$")
	if !ok {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil {
		return false, ErrMalformedHash
	}
	got := derive([]byte(pin), salt)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
