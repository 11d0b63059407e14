// Package codegen produces entity identifiers and shareable referral codes.
package codegen

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const (
	CodeLength  = 8
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator is consulted by the store whenever a new id or code is needed.
type Generator interface {
	NewID() string
	NewReferralCode() string
}

type random struct{}

// Random returns the production generator: v4 UUIDs and crypto/rand codes
func Random() Generator {
	return random{}
}

func (random) NewID() string {
	return NewID()
}

func (random) NewReferralCode() string {
	return NewReferralCode()
}

// NewID returns a random 128-bit identifier in canonical UUID form
func NewID() string {
	return uuid.New().String()
}

// NewReferralCode returns CodeLength characters drawn from [A-Z0-9].
// Uniqueness is not guaranteed here, the caller must check and retry.
func NewReferralCode() string {
	result := make([]byte, CodeLength)
	size := big.NewInt(int64(len(codeCharset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		result[i] = codeCharset[n.Int64()]
	}
	return string(result)
}

// IsReferralCode reports whether s has the shape of a generated code
func IsReferralCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
