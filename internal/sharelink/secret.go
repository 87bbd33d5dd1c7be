package sharelink

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrInvalidSecretHash         = errors.New("invalid secret hash format")
	ErrIncompatibleSecretVersion = errors.New("incompatible secret hash version")
	ErrSecretMismatch            = errors.New("secret does not match hash")
)

// Argon2idParams tunes HashSecret.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams are used by the CLI when issuing links. Share secrets
// are high entropy, so the cost is lower than for user passwords.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

const (
	lookupKeyBytes = 16
	secretBytes    = 32
)

// HashSecret returns an argon2id PHC string for secret.
func HashSecret(secret string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(secret), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Key := base64.RawStdEncoding.EncodeToString(key)

	// $argon2id$v=19$m=...,t=...,p=...$salt$key
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Key), nil
}

// VerifySecret reports whether secret matches hashedSecret. A nil error means
// the secret matches.
func VerifySecret(hashedSecret, secret string) error {
	parts := strings.Split(hashedSecret, "$")
	if len(parts) != 6 {
		return ErrInvalidSecretHash
	}
	if parts[1] != "argon2id" {
		return ErrInvalidSecretHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return err
	}
	if version != argon2.Version {
		return ErrIncompatibleSecretVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return err
	}
	params.SaltLength = uint32(len(salt))

	decoded, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return err
	}
	params.KeyLength = uint32(len(decoded))

	comparison := argon2.IDKey([]byte(secret), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	if subtle.ConstantTimeCompare(decoded, comparison) == 1 {
		return nil
	}
	return ErrSecretMismatch
}

// Digest returns the BLAKE2b-256 digest of secret as hex. It is used as a
// cache key so the raw secret is never held in memory structures.
func Digest(secret string) string {
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// LookupKey returns the index key for secret: a prefix of its BLAKE2b-256
// digest. Several links may share a key; candidates are always verified.
func LookupKey(secret string) string {
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:lookupKeyBytes])
}

// GenerateSecret returns a new URL-safe bearer secret.
func GenerateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
