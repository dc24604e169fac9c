package keywrap

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"strings"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/crypto/hkdf"
)

// Layout of an ECIES ciphertext: ephemeral pubkey || nonce || tag || ciphertext.
const (
	eciesPubLen   = 65
	eciesNonceLen = 16
	eciesTagLen   = 16
)

type eciesScheme struct{}

func (eciesScheme) checkPublic(encoded string) error {
	_, err := parseECIESPublicKey(encoded)
	return err
}

func (eciesScheme) wrap(encoded string, key []byte) ([]byte, error) {
	pub, err := parseECIESPublicKey(encoded)
	if err != nil {
		return nil, err
	}

	eph, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: generating ephemeral key: %v", kerrors.ErrWrapFailed, err)
	}
	defer eph.Zero()

	ephPub := eph.PubKey().SerializeUncompressed()
	aead, err := eciesAEAD(ephPub, sharedPoint(eph, pub))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrWrapFailed, err)
	}

	nonce := make([]byte, eciesNonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", kerrors.ErrWrapFailed, err)
	}

	sealed := aead.Seal(nil, nonce, key, nil)
	ct, tag := sealed[:len(sealed)-eciesTagLen], sealed[len(sealed)-eciesTagLen:]

	out := make([]byte, 0, eciesPubLen+eciesNonceLen+eciesTagLen+len(ct))
	out = append(out, ephPub...)
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

func (eciesScheme) unwrap(priv PrivateKey, wrapped []byte) ([]byte, error) {
	key, err := parseECIESPrivateKey(priv.Encoded)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	if len(wrapped) < eciesPubLen+eciesNonceLen+eciesTagLen {
		return nil, fmt.Errorf("%w: ecies ciphertext is %d bytes", kerrors.ErrUnwrapFailed, len(wrapped))
	}

	ephPubBytes := wrapped[:eciesPubLen]
	nonce := wrapped[eciesPubLen : eciesPubLen+eciesNonceLen]
	tag := wrapped[eciesPubLen+eciesNonceLen : eciesPubLen+eciesNonceLen+eciesTagLen]
	ct := wrapped[eciesPubLen+eciesNonceLen+eciesTagLen:]

	ephPub, err := secp256k1.ParsePubKey(ephPubBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %v", kerrors.ErrUnwrapFailed, err)
	}

	aead, err := eciesAEAD(ephPubBytes, sharedPoint(key, ephPub))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrUnwrapFailed, err)
	}

	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	out, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: ecies authentication failed", kerrors.ErrUnwrapFailed)
	}
	return out, nil
}

func (eciesScheme) generate() (*KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	defer priv.Zero()

	return &KeyPair{
		Family:  FamilyECIES,
		Public:  hex.EncodeToString(priv.PubKey().SerializeUncompressed()),
		Private: hex.EncodeToString(priv.Serialize()),
	}, nil
}

// sharedPoint returns the uncompressed encoding of priv * pub.
func sharedPoint(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) []byte {
	var point, result secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&priv.Key, &point, &result)
	result.ToAffine()
	return secp256k1.NewPublicKey(&result.X, &result.Y).SerializeUncompressed()
}

// eciesAEAD derives the AES-256-GCM key as HKDF-SHA256(ephPub || shared).
func eciesAEAD(ephPub, shared []byte) (cipher.AEAD, error) {
	master := make([]byte, 0, len(ephPub)+len(shared))
	master = append(master, ephPub...)
	master = append(master, shared...)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, nil), key); err != nil {
		return nil, fmt.Errorf("deriving ecies key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, eciesNonceLen)
}

var (
	oidECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// eciesRawPointLen is an uncompressed point without its 0x04 prefix, the
// form Ethereum tooling prints.
const eciesRawPointLen = 64

// parseECIESPublicKey accepts a secp256k1 point as hex or base64 (33, 64 or
// 65 bytes), or a SubjectPublicKeyInfo as PEM, base64 DER or hex DER.
func parseECIESPublicKey(encoded string) (*secp256k1.PublicKey, error) {
	raw, err := eciesPublicBytes(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: ecies public key: %v", kerrors.ErrInvalidPublicKey, err)
	}
	if len(raw) == eciesRawPointLen {
		raw = append([]byte{0x04}, raw...)
	}
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: ecies public key: %v", kerrors.ErrInvalidPublicKey, err)
	}
	return pub, nil
}

func eciesPublicBytes(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if strings.HasPrefix(s, "-----BEGIN") {
		block, _ := pem.Decode([]byte(s))
		if block == nil {
			return nil, fmt.Errorf("failed to decode PEM block")
		}
		if block.Type != "PUBLIC KEY" {
			return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
		}
		return parseSecp256k1SPKI(block.Bytes)
	}

	raw, err := decodeBytes(s, secp256k1.PubKeyBytesLenCompressed, eciesRawPointLen, secp256k1.PubKeyBytesLenUncompressed)
	if err == nil {
		return raw, nil
	}
	if der, ok := decodeDER(s); ok {
		return parseSecp256k1SPKI(der)
	}
	return nil, err
}

// parseSecp256k1SPKI extracts the point from a DER SubjectPublicKeyInfo
// whose curve is secp256k1.
func parseSecp256k1SPKI(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var spki, algo cryptobyte.String
	var algOID, curveOID asn1.ObjectIdentifier
	var point asn1.BitString
	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() ||
		!spki.ReadASN1(&algo, cbasn1.SEQUENCE) ||
		!spki.ReadASN1BitString(&point) || !spki.Empty() ||
		!algo.ReadASN1ObjectIdentifier(&algOID) {
		return nil, fmt.Errorf("malformed SubjectPublicKeyInfo")
	}
	if !algOID.Equal(oidECPublicKey) {
		return nil, fmt.Errorf("not an EC public key (algorithm %s)", algOID)
	}
	if !algo.ReadASN1ObjectIdentifier(&curveOID) || !curveOID.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("curve is not secp256k1")
	}
	if point.BitLength%8 != 0 {
		return nil, fmt.Errorf("malformed EC point")
	}
	return point.Bytes, nil
}

// parseECIESPrivateKey accepts a 32-byte scalar as hex or base64, or a
// secp256k1 key in SEC 1 ("EC PRIVATE KEY") or PKCS #8 ("PRIVATE KEY") PEM.
func parseECIESPrivateKey(encoded string) (*secp256k1.PrivateKey, error) {
	var raw []byte
	s := strings.TrimSpace(encoded)
	if strings.HasPrefix(s, "-----BEGIN") {
		block, _ := pem.Decode([]byte(s))
		if block == nil {
			return nil, fmt.Errorf("%w: failed to decode PEM block containing ecies private key", kerrors.ErrInvalidPrivateKey)
		}
		var err error
		switch block.Type {
		case "EC PRIVATE KEY":
			raw, err = parseSecp256k1SEC1(block.Bytes)
		case "PRIVATE KEY":
			raw, err = parseSecp256k1PKCS8(block.Bytes)
		default:
			err = fmt.Errorf("unexpected PEM block %q", block.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: ecies private key: %v", kerrors.ErrInvalidPrivateKey, err)
		}
	} else {
		var err error
		raw, err = decodeBytes(s, secp256k1.PrivKeyBytesLen)
		if err != nil {
			return nil, fmt.Errorf("%w: ecies private key: %v", kerrors.ErrInvalidPrivateKey, err)
		}
	}

	var scalar secp256k1.ModNScalar
	if len(raw) > secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: ecies private key is %d bytes", kerrors.ErrInvalidPrivateKey, len(raw))
	}
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("%w: ecies private key is out of range", kerrors.ErrInvalidPrivateKey)
	}
	return secp256k1.NewPrivateKey(&scalar), nil
}

// parseSecp256k1SEC1 reads the scalar from an ECPrivateKey structure. A
// named curve, when present, must be secp256k1.
func parseSecp256k1SEC1(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var key, priv cryptobyte.String
	var version int
	if !input.ReadASN1(&key, cbasn1.SEQUENCE) ||
		!key.ReadASN1Integer(&version) || version != 1 ||
		!key.ReadASN1(&priv, cbasn1.OCTET_STRING) {
		return nil, fmt.Errorf("malformed ECPrivateKey")
	}

	var params cryptobyte.String
	var hasParams bool
	if !key.ReadOptionalASN1(&params, &hasParams, cbasn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, fmt.Errorf("malformed ECPrivateKey parameters")
	}
	if hasParams {
		var curve asn1.ObjectIdentifier
		if !params.ReadASN1ObjectIdentifier(&curve) || !curve.Equal(oidSecp256k1) {
			return nil, fmt.Errorf("curve is not secp256k1")
		}
	}
	return []byte(priv), nil
}

// parseSecp256k1PKCS8 unwraps a PKCS #8 PrivateKeyInfo holding a SEC 1 key.
func parseSecp256k1PKCS8(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var info, algo, inner cryptobyte.String
	var version int
	var algOID, curveOID asn1.ObjectIdentifier
	if !input.ReadASN1(&info, cbasn1.SEQUENCE) ||
		!info.ReadASN1Integer(&version) || version != 0 ||
		!info.ReadASN1(&algo, cbasn1.SEQUENCE) ||
		!info.ReadASN1(&inner, cbasn1.OCTET_STRING) ||
		!algo.ReadASN1ObjectIdentifier(&algOID) {
		return nil, fmt.Errorf("malformed PrivateKeyInfo")
	}
	if !algOID.Equal(oidECPublicKey) {
		return nil, fmt.Errorf("not an EC private key (algorithm %s)", algOID)
	}
	if !algo.ReadASN1ObjectIdentifier(&curveOID) || !curveOID.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("curve is not secp256k1")
	}
	return parseSecp256k1SEC1(inner)
}
