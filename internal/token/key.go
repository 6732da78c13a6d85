package token

import (
	"errors"
	"fmt"
)

// Minimal signing secret length in bytes. HS256 MACs with shorter keys
// are brute-forceable offline, so startup refuses them.
const MinSecretLen = 32

// Key is the process-wide symmetric signing key. It is derived once from
// the configured secret and never changes at runtime; rotating the secret
// requires a restart.
type Key struct {
	secret []byte
}

func NewKey(secret string) (Key, error) {
	if secret == "" {
		return Key{}, errors.New("signing secret must not be empty")
	}
	if len(secret) < MinSecretLen {
		return Key{}, fmt.Errorf("signing secret must be at least %d bytes, got %d", MinSecretLen, len(secret))
	}

	return Key{secret: []byte(secret)}, nil
}

func (k Key) Bytes() []byte {
	return k.secret
}
