package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

const resetTokenBytes = 32

var (
	ErrMissingSecret = errors.New("reset token secret is not configured")
)

// ResetTokens issues password-reset tokens. Only the keyed digest of a token
// is persisted; the raw token travels in the email link.
type ResetTokens struct {
	secret []byte
}

// NewResetTokens returns an issuer keyed with secret.
func NewResetTokens(secret []byte) *ResetTokens {
	return &ResetTokens{secret: secret}
}

// Issue mints a random hex token and returns it with its digest.
func (t *ResetTokens) Issue() (token, digest string, err error) {
	if len(t.secret) == 0 {
		return "", "", ErrMissingSecret
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}

	token = hex.EncodeToString(raw)
	return token, t.Digest(token), nil
}

// Digest returns the value stored alongside the user for token.
func (t *ResetTokens) Digest(token string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte("password-reset|"))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
