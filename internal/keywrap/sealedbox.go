package keywrap

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const curve25519KeyLen = 32

type sealedBoxScheme struct{}

func (sealedBoxScheme) checkPublic(encoded string) error {
	_, err := parseCurve25519Key(encoded, kerrors.ErrInvalidPublicKey)
	return err
}

func (sealedBoxScheme) wrap(encoded string, key []byte) ([]byte, error) {
	pub, err := parseCurve25519Key(encoded, kerrors.ErrInvalidPublicKey)
	if err != nil {
		return nil, err
	}
	out, err := box.SealAnonymous(nil, key, pub, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: sealed box: %v", kerrors.ErrWrapFailed, err)
	}
	return out, nil
}

func (sealedBoxScheme) unwrap(priv PrivateKey, wrapped []byte) ([]byte, error) {
	secret, err := parseCurve25519Key(priv.Encoded, kerrors.ErrInvalidPrivateKey)
	if err != nil {
		return nil, err
	}

	pubBytes, err := curve25519.X25519(secret[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}
	var pub [curve25519KeyLen]byte
	copy(pub[:], pubBytes)

	out, ok := box.OpenAnonymous(nil, wrapped, &pub, secret)
	if !ok {
		return nil, fmt.Errorf("%w: sealed box could not be opened", kerrors.ErrUnwrapFailed)
	}
	return out, nil
}

func (sealedBoxScheme) generate() (*KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate curve25519 key: %w", err)
	}
	return &KeyPair{
		Family:  FamilySealedBox,
		Public:  hex.EncodeToString(pub[:]),
		Private: hex.EncodeToString(priv[:]),
	}, nil
}

func parseCurve25519Key(encoded string, kind error) (*[curve25519KeyLen]byte, error) {
	raw, err := decodeBytes(encoded, curve25519KeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: curve25519 key: %v", kind, err)
	}
	var key [curve25519KeyLen]byte
	copy(key[:], raw)
	return &key, nil
}
