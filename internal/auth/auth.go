// Package auth issues and validates the bearer tokens that protect the
// image API. Tokens are opaque HMAC-SHA256-signed strings carrying the
// user ID and an expiry timestamp; validation needs only the shared
// secret, no datastore round trip.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ValidationError represents a specific type of token validation failure.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
}

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	// ErrTypeMissing indicates no token was supplied.
	ErrTypeMissing ValidationErrorType = iota
	// ErrTypeMalformed indicates the token does not parse.
	ErrTypeMalformed
	// ErrTypeBadSignature indicates the signature does not verify.
	ErrTypeBadSignature
	// ErrTypeExpired indicates a valid token past its expiry.
	ErrTypeExpired
)

func (e *ValidationError) Error() string {
	return e.Message
}

// Authority mints and validates tokens with a shared secret.
// Safe for concurrent use.
type Authority struct {
	secret []byte
}

// NewAuthority creates an Authority from the shared signing secret.
func NewAuthority(secret string) *Authority {
	return &Authority{secret: []byte(secret)}
}

// Mint creates a signed token for the given user ID, valid for ttl.
func (a *Authority) Mint(userID string, ttl time.Duration) string {
	payload := userID + "|" + strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)
	sig := a.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + "|" + sig))
}

// Validate checks a token and returns the embedded user ID. Failures are
// *ValidationError with a Type describing what went wrong; the message is
// safe to return to clients.
func (a *Authority) Validate(token string) (string, error) {
	if token == "" {
		return "", &ValidationError{Type: ErrTypeMissing, Message: "missing token"}
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", &ValidationError{Type: ErrTypeMalformed, Message: "malformed token"}
	}

	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return "", &ValidationError{Type: ErrTypeMalformed, Message: "malformed token"}
	}
	userID, expiryStr, sig := parts[0], parts[1], parts[2]

	expected := a.sign(userID + "|" + expiryStr)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		log.Warn().Str("user", userID).Msg("Token signature mismatch")
		return "", &ValidationError{Type: ErrTypeBadSignature, Message: "invalid token"}
	}

	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return "", &ValidationError{Type: ErrTypeMalformed, Message: "malformed token"}
	}
	if time.Now().Unix() > expiry {
		return "", &ValidationError{Type: ErrTypeExpired, Message: "token expired"}
	}

	return userID, nil
}

// FromHeader extracts the bearer token from an Authorization header value.
func FromHeader(header string) (string, error) {
	if header == "" {
		return "", &ValidationError{Type: ErrTypeMissing, Message: "missing Authorization header"}
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", &ValidationError{Type: ErrTypeMalformed, Message: fmt.Sprintf("Authorization header must use the %q scheme", strings.TrimSpace(prefix))}
	}
	return strings.TrimPrefix(header, prefix), nil
}

// sign computes the base64url HMAC-SHA256 signature of the payload.
func (a *Authority) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
