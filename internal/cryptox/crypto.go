// Package cryptox holds the password and one-time code primitives used by
// the self-hosted identity backend.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize   = 16
	hashPrefix = "argon2id"
)

var ErrMalformedHash = errors.New("malformed password hash")

// DeriveKey stretches password with argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier is a fast digest for short-lived secrets such as OTP codes.
func MakeVerifier(secret []byte) []byte {
	hash := sha256.Sum256(secret)
	return hash[:]
}

// VerifierHex is MakeVerifier rendered as hex for text columns.
func VerifierHex(secret string) string {
	return hex.EncodeToString(MakeVerifier([]byte(secret)))
}

// HashPassword returns "argon2id$<salt>$<key>" with base64 parts.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := DeriveKey([]byte(password), salt)
	enc := base64.RawStdEncoding
	return hashPrefix + "$" + enc.EncodeToString(salt) + "$" + enc.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches an encoded hash.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != hashPrefix {
		return false, ErrMalformedHash
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := enc.DecodeString(parts[2])
	if err != nil {
		return false, ErrMalformedHash
	}
	got := DeriveKey([]byte(password), salt)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// RandomDigits returns n uniformly random decimal digits.
func RandomDigits(n int) (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

// ConstantTimeEqual compares two strings without leaking their common
// prefix length.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
