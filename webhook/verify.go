// ABOUTME: HMAC-SHA256 verification of board webhook request bodies
// ABOUTME: Accepts hex signatures with or without a sha256= prefix
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	SignatureHeader = "X-Monday-Signature-256"
	signaturePrefix = "sha256="
)

// ErrSignature means the request signature is missing or does not match.
var ErrSignature = errors.New("invalid webhook signature")

type Verifier struct {
	secret []byte
}

// NewVerifier returns a verifier for secret. An empty secret disables verification.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify checks signature against the raw body.
func (v *Verifier) Verify(signature string, body []byte) error {
	if !v.Enabled() {
		return nil
	}

	sig := strings.TrimPrefix(strings.TrimSpace(signature), signaturePrefix)
	if sig == "" {
		return fmt.Errorf("%w: missing %s header", ErrSignature, SignatureHeader)
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("%w: invalid encoding: %v", ErrSignature, err)
	}

	if !hmac.Equal(v.sum(body), got) {
		return fmt.Errorf("%w: mismatch", ErrSignature)
	}
	return nil
}

// Sign returns the hex signature of body.
func (v *Verifier) Sign(body []byte) string {
	return hex.EncodeToString(v.sum(body))
}

func (v *Verifier) sum(body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}
