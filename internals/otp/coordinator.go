// Package otp holds the login challenge coordinator: one-time codes keyed by
// email, delivered out-of-band and consumed by a single successful verify.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrNoChallenge means no active challenge exists for the email,
	// either because none was issued or because it was already consumed.
	ErrNoChallenge = errors.New("no active login challenge")
	// ErrChallengeExpired means the challenge's code window has passed.
	ErrChallengeExpired = errors.New("login challenge expired")
	// ErrCodeMismatch means the submitted code does not match the challenge.
	ErrCodeMismatch = errors.New("login code mismatch")
	// ErrTooManyAttempts means the challenge was discarded after repeated bad codes.
	ErrTooManyAttempts = errors.New("too many failed attempts")
	// ErrStoreUnavailable means the challenge store could not be reached.
	// Unlike the errors above it is an outage, not an authentication failure.
	ErrStoreUnavailable = errors.New("challenge store unavailable")
)

// Coordinator issues and verifies one-time login challenges.
// At most one challenge is active per email: Issue replaces any prior one,
// and the first successful Verify consumes it.
type Coordinator interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
}

// Sender delivers a login code out-of-band.
type Sender interface {
	SendLoginOTP(toEmail string, code string) error
}

// IsChallengeFailure reports whether err is an authentication failure rather
// than an outage. Callers surface all challenge failures with one generic
// message; the specific reason is for internal logging only.
func IsChallengeFailure(err error) bool {
	return errors.Is(err, ErrNoChallenge) ||
		errors.Is(err, ErrChallengeExpired) ||
		errors.Is(err, ErrCodeMismatch) ||
		errors.Is(err, ErrTooManyAttempts)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashCode salts the code with the email so equal codes for different
// addresses store different hashes.
func hashCode(email, code string) string {
	sum := sha256.Sum256([]byte(email + ":" + code))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
