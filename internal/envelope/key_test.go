package envelope

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
)

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	b, _ := GenerateKey()
	if len(a) != KeySize {
		t.Errorf("key length = %d, want %d", len(a), KeySize)
	}
	if bytes.Equal(a, b) {
		t.Errorf("two generated keys are equal")
	}
}

func TestEncodeDecodeKey(t *testing.T) {
	key, _ := GenerateKey()
	for _, enc := range []KeyEncoding{KeyEncodingBase64, KeyEncodingHex} {
		s := EncodeKey(key, enc)
		got, err := DecodeKey(s+"\n", enc)
		if err != nil {
			t.Fatalf("Failed to decode %s key: %v", enc, err)
		}
		if !bytes.Equal(got, key) {
			t.Errorf("%s round trip mismatch", enc)
		}
	}
}

func TestDecodeKeyErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		enc   KeyEncoding
		want  error
	}{
		{"hex too short", strings.Repeat("ab", 16), KeyEncodingHex, kerrors.ErrInvalidKeyLength},
		{"hex invalid", strings.Repeat("zz", 32), KeyEncodingHex, kerrors.ErrInvalidKeyEncoding},
		{"base64 too long", EncodeKey(make([]byte, 48), KeyEncodingBase64), KeyEncodingBase64, kerrors.ErrInvalidKeyLength},
		{"base64 invalid", "%%%", KeyEncodingBase64, kerrors.ErrInvalidKeyEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeKey(tt.input, tt.enc)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	if !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Errorf("Zero left %v", b)
	}
}
