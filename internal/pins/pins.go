// Package pins generates the short codes that identify shared games.
package pins

import (
	"errors"
	"math/rand"
	"strings"
)

// Length is the number of characters in a game code.
const Length = 6

// Alphabet leaves out characters that are easy to misread (I, O, 0, 1).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	ErrDuplicatePin = errors.New("duplicate pin")
	ErrInvalidPin   = errors.New("invalid pin")
)

// maxAttempts bounds retries on collision.
const maxAttempts = 10

func Generate() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = Alphabet[rand.Intn(len(Alphabet))]
	}
	return string(b)
}

// Unique generates codes until exists reports one as free.
func Unique(exists func(pin string) (bool, error)) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		pin := Generate()
		taken, err := exists(pin)
		if err != nil {
			return "", err
		}
		if !taken {
			return pin, nil
		}
	}
	return "", ErrDuplicatePin
}

// Normalize upper-cases and trims a user supplied code.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Valid reports whether s is a well-formed code after normalization.
func Valid(s string) bool {
	s = Normalize(s)
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

// Parse normalizes s and rejects malformed codes.
func Parse(s string) (string, error) {
	if !Valid(s) {
		return "", ErrInvalidPin
	}
	return Normalize(s), nil
}
