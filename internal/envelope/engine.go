package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
)

const (
	// KeySize is the only accepted symmetric key length (AES-256).
	KeySize = 32

	// BlockSize is the AES block size, which is also the IV length for every mode.
	BlockSize = aes.BlockSize

	// gcmTagSize is the authentication tag appended by GCM.
	gcmTagSize = 16
)

// Mode selects how the block cipher is applied.
type Mode string

const (
	// ModeGCM is authenticated AES-GCM with a block-sized nonce.
	ModeGCM Mode = "gcm"
	// ModeCFB is the unpadded streaming mode used by the browser consumer.
	// It is not authenticated: a wrong key or a tampered blob decrypts to
	// garbage without an error.
	ModeCFB Mode = "cfb"
	// ModeCBC is the padded block mode (PKCS#7).
	ModeCBC Mode = "cbc"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeGCM, ModeCFB, ModeCBC:
		return m, nil
	case "":
		return ModeGCM, nil
	default:
		return "", fmt.Errorf("%w: unknown cipher mode %q (want gcm, cfb or cbc)", kerrors.ErrInvalidProjectConfig, s)
	}
}

// Encoding selects how a blob is stored.
type Encoding string

const (
	// EncodingBase64 stores the blob as standard base64 text.
	EncodingBase64 Encoding = "base64"
	// EncodingRaw stores the blob as raw bytes.
	EncodingRaw Encoding = "raw"
)

// ParseEncoding converts a configuration string into an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(s))); e {
	case EncodingBase64, EncodingRaw:
		return e, nil
	case "":
		return EncodingBase64, nil
	default:
		return "", fmt.Errorf("%w: unknown blob encoding %q (want base64 or raw)", kerrors.ErrInvalidProjectConfig, s)
	}
}

// Options configures an Engine. Zero fields take their defaults.
type Options struct {
	Mode     Mode
	Encoding Encoding
	IVLength int
}

// DefaultOptions returns GCM, base64 and a block-sized IV.
func DefaultOptions() Options {
	return Options{
		Mode:     ModeGCM,
		Encoding: EncodingBase64,
		IVLength: BlockSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Mode == "" {
		o.Mode = d.Mode
	}
	if o.Encoding == "" {
		o.Encoding = d.Encoding
	}
	if o.IVLength == 0 {
		o.IVLength = d.IVLength
	}
	return o
}

// Validate checks that the options describe a supported configuration.
func (o Options) Validate() error {
	o = o.withDefaults()
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if _, err := ParseEncoding(string(o.Encoding)); err != nil {
		return err
	}
	if o.IVLength != BlockSize {
		return fmt.Errorf("%w: encryption_iv_length must be %d, got %d", kerrors.ErrInvalidProjectConfig, BlockSize, o.IVLength)
	}
	return nil
}

// Engine encrypts and decrypts manifests under a single 32-byte key.
// It performs no I/O beyond drawing IVs from the system random source.
type Engine struct {
	block cipher.Block
	opts  Options
	rand  io.Reader
}

// NewEngine creates an Engine for key. The key must be exactly KeySize bytes.
func NewEngine(key []byte, opts Options) (*Engine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", kerrors.ErrInvalidKeyLength, len(key), KeySize)
	}

	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidKeyLength, err)
	}

	return &Engine{block: block, opts: opts, rand: rand.Reader}, nil
}

// Options returns the effective options of the engine.
func (e *Engine) Options() Options {
	return e.opts
}

// Encrypt returns the encoded blob IV || ciphertext. A fresh IV is drawn on
// every call.
func (e *Engine) Encrypt(plaintext []byte) ([]byte, error) {
	return e.seal(nil, plaintext)
}

// EncryptSalted returns the encoded blob salt || IV || ciphertext.
func (e *Engine) EncryptSalted(salt, plaintext []byte) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: salt must not be empty", kerrors.ErrInvalidProjectConfig)
	}
	return e.seal(salt, plaintext)
}

// Decrypt reverses Encrypt. It never returns partial plaintext.
//
// Only gcm detects a wrong key or a modified blob, and cbc catches most of
// them through the padding check. In cfb mode Decrypt succeeds and returns
// garbage, so callers must validate the plaintext themselves.
func (e *Engine) Decrypt(blob []byte) ([]byte, error) {
	raw, err := decodeBlob(blob, e.opts.Encoding)
	if err != nil {
		return nil, err
	}
	_, plaintext, err := e.open(raw, 0)
	return plaintext, err
}

// DecryptSalted reverses EncryptSalted and also returns the embedded salt.
func (e *Engine) DecryptSalted(blob []byte, saltLen int) ([]byte, []byte, error) {
	raw, err := decodeBlob(blob, e.opts.Encoding)
	if err != nil {
		return nil, nil, err
	}
	return e.open(raw, saltLen)
}

func (e *Engine) seal(prefix, plaintext []byte) ([]byte, error) {
	iv := make([]byte, e.opts.IVLength)
	if _, err := io.ReadFull(e.rand, iv); err != nil {
		return nil, fmt.Errorf("generating IV: %w", err)
	}

	var ciphertext []byte
	switch e.opts.Mode {
	case ModeGCM:
		aead, err := cipher.NewGCMWithNonceSize(e.block, len(iv))
		if err != nil {
			return nil, fmt.Errorf("creating GCM: %w", err)
		}
		ciphertext = aead.Seal(nil, iv, plaintext, nil)
	case ModeCFB:
		ciphertext = make([]byte, len(plaintext))
		cipher.NewCFBEncrypter(e.block, iv).XORKeyStream(ciphertext, plaintext)
	case ModeCBC:
		padded := pkcs7Pad(plaintext, BlockSize)
		ciphertext = make([]byte, len(padded))
		cipher.NewCBCEncrypter(e.block, iv).CryptBlocks(ciphertext, padded)
	}

	raw := make([]byte, 0, len(prefix)+len(iv)+len(ciphertext))
	raw = append(raw, prefix...)
	raw = append(raw, iv...)
	raw = append(raw, ciphertext...)

	return encodeBlob(raw, e.opts.Encoding), nil
}

func (e *Engine) open(raw []byte, saltLen int) ([]byte, []byte, error) {
	ivLen := e.opts.IVLength
	minLen := saltLen + ivLen
	switch e.opts.Mode {
	case ModeGCM:
		minLen += gcmTagSize
	case ModeCBC:
		minLen += BlockSize
	}
	if saltLen < 0 || len(raw) < minLen {
		return nil, nil, fmt.Errorf("%w: got %d bytes, want at least %d", kerrors.ErrMalformedBlob, len(raw), minLen)
	}

	salt := raw[:saltLen]
	iv := raw[saltLen : saltLen+ivLen]
	ciphertext := raw[saltLen+ivLen:]

	switch e.opts.Mode {
	case ModeGCM:
		aead, err := cipher.NewGCMWithNonceSize(e.block, ivLen)
		if err != nil {
			return nil, nil, fmt.Errorf("creating GCM: %w", err)
		}
		plaintext, err := aead.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: authentication failed", kerrors.ErrDecryptionFailed)
		}
		return salt, plaintext, nil

	case ModeCFB:
		plaintext := make([]byte, len(ciphertext))
		cipher.NewCFBDecrypter(e.block, iv).XORKeyStream(plaintext, ciphertext)
		return salt, plaintext, nil

	case ModeCBC:
		if len(ciphertext)%BlockSize != 0 {
			return nil, nil, fmt.Errorf("%w: ciphertext is not a multiple of the block size", kerrors.ErrMalformedBlob)
		}
		padded := make([]byte, len(ciphertext))
		cipher.NewCBCDecrypter(e.block, iv).CryptBlocks(padded, ciphertext)
		plaintext, err := pkcs7Unpad(padded, BlockSize)
		if err != nil {
			return nil, nil, err
		}
		return salt, plaintext, nil
	}

	return nil, nil, fmt.Errorf("%w: unsupported mode %q", kerrors.ErrInvalidProjectConfig, e.opts.Mode)
}

func encodeBlob(raw []byte, enc Encoding) []byte {
	if enc == EncodingRaw {
		return raw
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out
}

func decodeBlob(blob []byte, enc Encoding) ([]byte, error) {
	if enc == EncodingRaw {
		return blob, nil
	}
	trimmed := bytes.TrimSpace(blob)
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(trimmed)))
	n, err := base64.StdEncoding.Decode(raw, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", kerrors.ErrMalformedBlob, err)
	}
	return raw[:n], nil
}
