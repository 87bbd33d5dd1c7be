package testfixtures

import (
	"fmt"
	"sync"

	"github.com/example/calendar-share/internal/sharelink"
)

// FastArgon2idParams keep share-secret hashing cheap in tests.
var FastArgon2idParams = sharelink.Argon2idParams{
	Memory:      64,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// HashSecret hashes with FastArgon2idParams.
func HashSecret(secret string) (string, error) {
	return sharelink.HashSecret(secret, FastArgon2idParams)
}

// SecretSequence produces predictable share secrets.
type SecretSequence struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewSecretSequence yields "<prefix>-1", "<prefix>-2", ... An empty prefix
// means "secret".
func NewSecretSequence(prefix string) *SecretSequence {
	if prefix == "" {
		prefix = "secret"
	}
	return &SecretSequence{prefix: prefix}
}

// Next returns the next secret in the sequence.
func (s *SecretSequence) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("%s-%d", s.prefix, s.counter), nil
}
