package envelope

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
)

// Low iteration counts keep the suite fast; determinism does not depend on the count.
const testIterations = 1000

func TestDeriveKeyIsDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, 16)

	a := DeriveKey("correct horse", salt, testIterations)
	b := DeriveKey("correct horse", salt, testIterations)
	if !bytes.Equal(a, b) {
		t.Errorf("same inputs produced different keys")
	}
	if len(a) != KeySize {
		t.Errorf("derived key length = %d, want %d", len(a), KeySize)
	}

	other := DeriveKey("correct horse", bytes.Repeat([]byte{2}, 16), testIterations)
	if bytes.Equal(a, other) {
		t.Errorf("different salts produced the same key")
	}
}

func TestDeriveKeyKnownVector(t *testing.T) {
	// RFC 7914 section 11, PBKDF2-HMAC-SHA256 with c=1, truncated to 32 bytes.
	got := DeriveKey("passwd", []byte("salt"), 1)
	want := "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc"
	if hex.EncodeToString(got) != want {
		t.Errorf("DeriveKey = %x, want %s", got, want)
	}
}

func TestDeriveKeyLengthIndependentOfPassword(t *testing.T) {
	salt := bytes.Repeat([]byte{3}, 16)
	for _, pw := range []string{"", "x", string(bytes.Repeat([]byte("long"), 200))} {
		if n := len(DeriveKey(pw, salt, testIterations)); n != KeySize {
			t.Errorf("password of %d bytes gave %d-byte key", len(pw), n)
		}
	}
}

func TestKDFParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  KDFParams
		wantErr bool
	}{
		{"defaults", DefaultKDFParams(), false},
		{"zero iterations", KDFParams{Iterations: 0, SaltLength: 16}, true},
		{"short salt", KDFParams{Iterations: 10, SaltLength: 8}, true},
		{"long salt", KDFParams{Iterations: 10, SaltLength: 32}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, kerrors.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestPasswordSealerRoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeGCM, ModeCFB, ModeCBC} {
		sealer := PasswordSealer{
			Params:  KDFParams{Iterations: testIterations, SaltLength: 16},
			Options: Options{Mode: mode},
		}

		blob, key, err := sealer.Seal("hunter2", []byte("listing"))
		if err != nil {
			t.Fatalf("Failed to seal with %s: %v", mode, err)
		}

		got, err := sealer.Open("hunter2", blob)
		if err != nil {
			t.Fatalf("Failed to open with %s: %v", mode, err)
		}
		if string(got) != "listing" {
			t.Errorf("mode %s: got %q", mode, got)
		}

		// The returned key must be the one derivable from the embedded salt.
		salt, err := SaltFromBlob(blob, EncodingBase64, 16)
		if err != nil {
			t.Fatalf("Failed to read salt: %v", err)
		}
		if !bytes.Equal(key, DeriveKey("hunter2", salt, testIterations)) {
			t.Errorf("mode %s: returned key does not match re-derived key", mode)
		}
	}
}

func TestPasswordSealerUsesFreshSalt(t *testing.T) {
	sealer := PasswordSealer{Params: KDFParams{Iterations: testIterations, SaltLength: 16}}
	a, keyA, _ := sealer.Seal("pw", []byte("x"))
	b, keyB, _ := sealer.Seal("pw", []byte("x"))

	saltA, _ := SaltFromBlob(a, EncodingBase64, 16)
	saltB, _ := SaltFromBlob(b, EncodingBase64, 16)
	if bytes.Equal(saltA, saltB) {
		t.Errorf("salt reused across seals")
	}
	if bytes.Equal(keyA, keyB) {
		t.Errorf("key reused across seals")
	}
}

func TestPasswordSealerWrongPassword(t *testing.T) {
	sealer := PasswordSealer{Params: KDFParams{Iterations: testIterations, SaltLength: 16}}
	blob, _, err := sealer.Seal("right", []byte("x"))
	if err != nil {
		t.Fatalf("Failed to seal: %v", err)
	}
	if _, err := sealer.Open("wrong", blob); !errors.Is(err, kerrors.ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestPasswordSealerRejectsEmptyPassword(t *testing.T) {
	sealer := PasswordSealer{Params: DefaultKDFParams()}
	if _, _, err := sealer.Seal("", []byte("x")); !errors.Is(err, kerrors.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
