package envelope

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations matches the browser-side decryptor.
	DefaultIterations = 100000

	// DefaultSaltLength is the salt prepended to password-derived blobs.
	DefaultSaltLength = 16

	// MinSaltLength is the shortest salt accepted for derivation.
	MinSaltLength = 16
)

// KDFParams are the work factor and salt size for password-based keys.
// Decryption must use the same Iterations; the salt travels in the blob.
type KDFParams struct {
	Iterations int
	SaltLength int
}

// DefaultKDFParams returns 100000 iterations and a 16-byte salt.
func DefaultKDFParams() KDFParams {
	return KDFParams{Iterations: DefaultIterations, SaltLength: DefaultSaltLength}
}

// Validate rejects parameters that would weaken or break derivation.
func (p KDFParams) Validate() error {
	if p.Iterations < 1 {
		return fmt.Errorf("%w: encryption_iterations must be positive, got %d", kerrors.ErrInvalidProjectConfig, p.Iterations)
	}
	if p.SaltLength < MinSaltLength {
		return fmt.Errorf("%w: encryption_salt_length must be at least %d, got %d", kerrors.ErrInvalidProjectConfig, MinSaltLength, p.SaltLength)
	}
	return nil
}

// DeriveKey stretches password with PBKDF2-HMAC-SHA256. The result is always
// KeySize bytes and is deterministic in its inputs.
func DeriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New)
}

// NewSalt returns n bytes from the system random source.
func NewSalt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// SaltFromBlob returns the salt prefix of a salted blob without decrypting it.
func SaltFromBlob(blob []byte, enc Encoding, saltLen int) ([]byte, error) {
	raw, err := decodeBlob(blob, enc)
	if err != nil {
		return nil, err
	}
	if saltLen <= 0 || len(raw) < saltLen+BlockSize {
		return nil, fmt.Errorf("%w: blob too short for a %d-byte salt", kerrors.ErrMalformedBlob, saltLen)
	}
	salt := make([]byte, saltLen)
	copy(salt, raw[:saltLen])
	return salt, nil
}

// PasswordSealer encrypts with a key derived from a password and a fresh salt.
type PasswordSealer struct {
	Params  KDFParams
	Options Options
}

// Seal derives a key under a new salt and returns the blob salt || IV || ct
// along with the derived key, so the caller can distribute it.
func (s PasswordSealer) Seal(password string, plaintext []byte) ([]byte, []byte, error) {
	if password == "" {
		return nil, nil, fmt.Errorf("%w: password must not be empty", kerrors.ErrMissingSetting)
	}
	if err := s.Params.Validate(); err != nil {
		return nil, nil, err
	}

	salt, err := NewSalt(s.Params.SaltLength)
	if err != nil {
		return nil, nil, err
	}

	key := DeriveKey(password, salt, s.Params.Iterations)
	engine, err := NewEngine(key, s.Options)
	if err != nil {
		Zero(key)
		return nil, nil, err
	}

	blob, err := engine.EncryptSalted(salt, plaintext)
	if err != nil {
		Zero(key)
		return nil, nil, err
	}
	return blob, key, nil
}

// Open re-derives the key from password and the blob's salt, then decrypts.
func (s PasswordSealer) Open(password string, blob []byte) ([]byte, error) {
	if err := s.Params.Validate(); err != nil {
		return nil, err
	}

	opts := s.Options.withDefaults()
	salt, err := SaltFromBlob(blob, opts.Encoding, s.Params.SaltLength)
	if err != nil {
		return nil, err
	}

	key := DeriveKey(password, salt, s.Params.Iterations)
	defer Zero(key)

	engine, err := NewEngine(key, opts)
	if err != nil {
		return nil, err
	}

	_, plaintext, err := engine.DecryptSalted(blob, s.Params.SaltLength)
	return plaintext, err
}
