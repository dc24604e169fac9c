package keywrap

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"

	"golang.org/x/crypto/ssh"
)

// MinRSABits is the smallest modulus accepted for a recipient.
const MinRSABits = 2048

type rsaScheme struct{}

func (rsaScheme) checkPublic(encoded string) error {
	_, err := parseRSAPublicKey(encoded)
	return err
}

func (rsaScheme) wrap(encoded string, key []byte) ([]byte, error) {
	pub, err := parseRSAPublicKey(encoded)
	if err != nil {
		return nil, err
	}
	out, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: rsa-oaep: %v", kerrors.ErrWrapFailed, err)
	}
	return out, nil
}

func (rsaScheme) unwrap(priv PrivateKey, wrapped []byte) ([]byte, error) {
	key, err := parseRSAPrivateKey(priv.Encoded, priv.Passphrase)
	if err != nil {
		return nil, err
	}
	out, err := rsa.DecryptOAEP(sha256.New(), nil, key, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: rsa-oaep: %v", kerrors.ErrUnwrapFailed, err)
	}
	return out, nil
}

func (rsaScheme) generate() (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, MinRSABits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	privPem := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	pubASN1, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	pubPem := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubASN1,
	})

	return &KeyPair{Family: FamilyRSA, Public: string(pubPem), Private: string(privPem)}, nil
}

// parseRSAPublicKey accepts PEM (PKIX or PKCS#1), an OpenSSH authorized_keys
// line, or base64 DER.
func parseRSAPublicKey(encoded string) (*rsa.PublicKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty rsa public key", kerrors.ErrInvalidPublicKey)
	}

	var (
		parsed any
		err    error
	)
	switch {
	case strings.HasPrefix(encoded, "-----BEGIN"):
		block, _ := pem.Decode([]byte(encoded))
		if block == nil {
			return nil, fmt.Errorf("%w: failed to decode PEM block containing public key", kerrors.ErrInvalidPublicKey)
		}
		switch block.Type {
		case "PUBLIC KEY":
			parsed, err = x509.ParsePKIXPublicKey(block.Bytes)
		case "RSA PUBLIC KEY":
			parsed, err = x509.ParsePKCS1PublicKey(block.Bytes)
		default:
			return nil, fmt.Errorf("%w: unexpected PEM block %q", kerrors.ErrInvalidPublicKey, block.Type)
		}

	case strings.HasPrefix(encoded, "ssh-rsa "):
		sshKey, _, _, _, perr := ssh.ParseAuthorizedKey([]byte(encoded))
		if perr != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, perr)
		}
		cryptoKey, ok := sshKey.(ssh.CryptoPublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported ssh key", kerrors.ErrInvalidPublicKey)
		}
		parsed = cryptoKey.CryptoPublicKey()

	default:
		der, derr := base64.StdEncoding.DecodeString(encoded)
		if derr != nil {
			return nil, fmt.Errorf("%w: not PEM and not base64 DER", kerrors.ErrInvalidPublicKey)
		}
		parsed, err = x509.ParsePKIXPublicKey(der)
		if err != nil {
			parsed, err = x509.ParsePKCS1PublicKey(der)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", kerrors.ErrInvalidPublicKey)
	}
	if pub.N.BitLen() < MinRSABits {
		return nil, fmt.Errorf("%w: rsa key is %d bits, want at least %d", kerrors.ErrInvalidPublicKey, pub.N.BitLen(), MinRSABits)
	}
	return pub, nil
}

// parseRSAPrivateKey accepts PEM PKCS#1, PKCS#8, OpenSSH, or base64 DER.
func parseRSAPrivateKey(encoded string, passphrase []byte) (*rsa.PrivateKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty rsa private key", kerrors.ErrInvalidPrivateKey)
	}

	var der []byte
	if strings.HasPrefix(encoded, "-----BEGIN") {
		block, _ := pem.Decode([]byte(encoded))
		if block == nil {
			return nil, fmt.Errorf("%w: failed to decode PEM block containing private key", kerrors.ErrInvalidPrivateKey)
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
			}
			return key, nil
		case "OPENSSH PRIVATE KEY":
			return parseOpenSSHPrivateKey([]byte(encoded), passphrase)
		case "PRIVATE KEY":
			der = block.Bytes
		default:
			return nil, fmt.Errorf("%w: unexpected PEM block %q", kerrors.ErrInvalidPrivateKey, block.Type)
		}
	} else {
		var err error
		der, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: not PEM and not base64 DER", kerrors.ErrInvalidPrivateKey)
		}
		if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
			return key, nil
		}
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", kerrors.ErrInvalidPrivateKey)
	}
	return key, nil
}

func parseOpenSSHPrivateKey(data []byte, passphrase []byte) (*rsa.PrivateKey, error) {
	var (
		raw any
		err error
	)
	if len(passphrase) > 0 {
		raw, err = ssh.ParseRawPrivateKeyWithPassphrase(data, passphrase)
	} else {
		raw, err = ssh.ParseRawPrivateKey(data)
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, kerrors.ErrPassphraseRequired
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}

	key, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported OpenSSH key type %T, only RSA is supported", kerrors.ErrInvalidPrivateKey, raw)
	}
	return key, nil
}
