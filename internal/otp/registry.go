// Package otp holds time-bounded single-use codes keyed by email. A key has
// at most one live code; storing a new one invalidates whatever was pending.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	ErrNotRequested = errors.New("no code requested for this key")
	ErrExpired      = errors.New("code expired")
	ErrMismatch     = errors.New("code mismatch")
)

type Registry interface {
	// Put stores a code under key, replacing any pending code for that key.
	Put(ctx context.Context, key, code string, ttl time.Duration) error
	// Consume verifies code against the pending record for key. On a match
	// the record is removed (single use). On expiry the record is removed
	// and ErrExpired returned. On mismatch the record is retained so the
	// caller may retry within the window, and ErrMismatch returned.
	Consume(ctx context.Context, key, code string) error
}

const codeDigits = 6

// GenerateCode draws a uniformly random 6-digit numeric code.
func GenerateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
