package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// MinSecretSize is the smallest accepted secret, in decoded bytes.
const MinSecretSize = 32

var ErrSecretTooShort = errors.New("cryptox: secret too short")

// DecodeSecret decodes a standard (padded) base64 secret and checks that it
// carries at least MinSecretSize bytes.
func DecodeSecret(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("cryptox: decode secret: %w", err)
	}
	if len(raw) < MinSecretSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrSecretTooShort, len(raw), MinSecretSize)
	}
	return raw, nil
}

// NewSecret returns a random secret of size bytes in the encoding
// DecodeSecret accepts.
func NewSecret(size int) (string, error) {
	raw, err := RandomBytes(size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DeriveKey expands secret into a size byte key bound to info using
// HKDF-SHA256. Distinct info strings yield independent keys.
func DeriveKey(secret []byte, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("cryptox: derive %q key: %w", info, err)
	}
	return key, nil
}
