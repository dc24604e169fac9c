package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
)

// KeyEncoding is the text form of a symmetric key at the storage boundary.
type KeyEncoding string

const (
	// KeyEncodingBase64 is standard padded base64, the default.
	KeyEncodingBase64 KeyEncoding = "base64"
	// KeyEncodingHex is lowercase or uppercase hex, 64 characters.
	KeyEncodingHex KeyEncoding = "hex"
)

// ParseKeyEncoding converts a configuration string into a KeyEncoding.
func ParseKeyEncoding(s string) (KeyEncoding, error) {
	switch e := KeyEncoding(strings.ToLower(strings.TrimSpace(s))); e {
	case KeyEncodingBase64, KeyEncodingHex:
		return e, nil
	case "":
		return KeyEncodingBase64, nil
	default:
		return "", fmt.Errorf("%w: unknown key encoding %q (want base64 or hex)", kerrors.ErrInvalidProjectConfig, s)
	}
}

// GenerateKey returns a fresh random 32-byte key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generating symmetric key: %w", err)
	}
	return key, nil
}

// DecodeKey decodes s and requires exactly KeySize bytes.
func DecodeKey(s string, enc KeyEncoding) ([]byte, error) {
	s = strings.TrimSpace(s)

	var (
		key []byte
		err error
	)
	switch enc {
	case KeyEncodingHex:
		key, err = hex.DecodeString(s)
	case KeyEncodingBase64, "":
		key, err = base64.StdEncoding.DecodeString(s)
	default:
		return nil, fmt.Errorf("%w: unknown key encoding %q", kerrors.ErrInvalidKeyEncoding, enc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidKeyEncoding, err)
	}

	if len(key) != KeySize {
		Zero(key)
		return nil, fmt.Errorf("%w: got %d, want %d", kerrors.ErrInvalidKeyLength, len(key), KeySize)
	}
	return key, nil
}

// EncodeKey is the inverse of DecodeKey.
func EncodeKey(key []byte, enc KeyEncoding) string {
	if enc == KeyEncodingHex {
		return hex.EncodeToString(key)
	}
	return base64.StdEncoding.EncodeToString(key)
}

// Zero overwrites b in place.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
