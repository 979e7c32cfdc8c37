package webhook

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
)

// Signature headers set by Discord.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// ErrInvalidSignature is returned when a request signature does not verify.
var ErrInvalidSignature = errors.New("invalid request signature")

// ParsePublicKey decodes the hex-encoded application public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("parse public key: got %d bytes, want %d", len(key), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(key), nil
}

// Verify checks a hex-encoded signature over timestamp || body. A key of the
// wrong length verifies nothing.
func Verify(key ed25519.PublicKey, signature, timestamp string, body []byte) error {
	if len(key) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key is %d bytes, want %d", ErrInvalidSignature, len(key), ed25519.PublicKeySize)
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	if !ed25519.Verify(key, msg, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the hex-encoded signature Discord would send for body. It
// exists for tests and local tooling.
func Sign(key ed25519.PrivateKey, timestamp string, body []byte) string {
	msg := append([]byte(timestamp), body...)
	return hex.EncodeToString(ed25519.Sign(key, msg))
}
