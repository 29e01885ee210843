package room

import (
	"context"
	"crypto/rand"
	"fmt"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8

	maxCodeAttempts = 10
)

// GenerateCode returns a random 8 character room code made of
// uppercase letters and digits.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	return string(buf), nil
}

// GenerateUniqueCode retries until it finds a code no existing room uses.
func GenerateUniqueCode(ctx context.Context, store Store) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}

		exists, err := store.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique room code after %d attempts", maxCodeAttempts)
}
