package keywrap

import (
	"encoding/base64"
	"fmt"
	"strings"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
)

// Family is the asymmetric scheme a recipient key belongs to. The set is closed:
// a registry entry must declare its family, it is never guessed from the key text.
type Family string

const (
	// FamilyRSA is RSA-OAEP with SHA-256 for both the hash and MGF1, no label.
	FamilyRSA Family = "rsa"
	// FamilyECIES is ECIES over secp256k1 with HKDF-SHA256 and AES-256-GCM.
	FamilyECIES Family = "ecies"
	// FamilySealedBox is the anonymous Curve25519 sealed box.
	FamilySealedBox Family = "sealedbox"
)

// Families lists every supported family.
func Families() []Family {
	return []Family{FamilyRSA, FamilyECIES, FamilySealedBox}
}

// ParseFamily accepts the canonical names and a few common spellings.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rsa", "rsa-oaep":
		return FamilyRSA, nil
	case "ecies", "secp256k1":
		return FamilyECIES, nil
	case "sealedbox", "sealed-box", "sealed_box", "nacl", "x25519":
		return FamilySealedBox, nil
	default:
		return "", fmt.Errorf("%w: %q (want rsa, ecies or sealedbox)", kerrors.ErrUnknownKeyFamily, s)
	}
}

// PublicKey is a recipient's encoded public key and its declared family.
type PublicKey struct {
	Family  Family
	Encoded string
}

// PrivateKey is an encoded private key and its declared family.
// Passphrase is only used for encrypted OpenSSH RSA keys.
type PrivateKey struct {
	Family     Family
	Encoded    string
	Passphrase []byte
}

// KeyPair is a freshly generated, encoded key pair.
type KeyPair struct {
	Family  Family
	Public  string
	Private string
}

type scheme interface {
	checkPublic(encoded string) error
	wrap(encoded string, key []byte) ([]byte, error)
	unwrap(priv PrivateKey, wrapped []byte) ([]byte, error)
	generate() (*KeyPair, error)
}

func schemeFor(f Family) (scheme, error) {
	switch f {
	case FamilyRSA:
		return rsaScheme{}, nil
	case FamilyECIES:
		return eciesScheme{}, nil
	case FamilySealedBox:
		return sealedBoxScheme{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", kerrors.ErrUnknownKeyFamily, f)
	}
}

// WrappedKeySize is the length of the symmetric key every scheme carries.
const WrappedKeySize = 32

// Wrap encrypts key for pub and returns the result as standard base64.
// Key parsing happens first; a malformed key never reaches the cipher.
func Wrap(pub PublicKey, key []byte) (string, error) {
	if len(key) != WrappedKeySize {
		return "", fmt.Errorf("%w: got %d, want %d", kerrors.ErrInvalidKeyLength, len(key), WrappedKeySize)
	}
	s, err := schemeFor(pub.Family)
	if err != nil {
		return "", err
	}
	if err := s.checkPublic(pub.Encoded); err != nil {
		return "", err
	}
	out, err := s.wrap(pub.Encoded, key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// Unwrap reverses Wrap. It fails rather than return a key of the wrong size.
func Unwrap(priv PrivateKey, wrapped string) ([]byte, error) {
	s, err := schemeFor(priv.Family)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(wrapped))
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped key is not base64: %v", kerrors.ErrUnwrapFailed, err)
	}
	key, err := s.unwrap(priv, raw)
	if err != nil {
		return nil, err
	}
	if len(key) != WrappedKeySize {
		return nil, fmt.Errorf("%w: recovered %d bytes, want %d", kerrors.ErrUnwrapFailed, len(key), WrappedKeySize)
	}
	return key, nil
}

// ValidatePublicKey parses pub without wrapping anything.
func ValidatePublicKey(pub PublicKey) error {
	s, err := schemeFor(pub.Family)
	if err != nil {
		return err
	}
	return s.checkPublic(pub.Encoded)
}

// GenerateKeyPair creates a new key pair for family.
func GenerateKeyPair(family Family) (*KeyPair, error) {
	s, err := schemeFor(family)
	if err != nil {
		return nil, err
	}
	return s.generate()
}
