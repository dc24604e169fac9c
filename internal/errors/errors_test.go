package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"key length", ErrInvalidKeyLength, KindInvalidKey},
		{"wrapped public key", fmt.Errorf("recipient bob: %w", ErrInvalidPublicKey), KindInvalidKey},
		{"registry", ErrRegistryInvalid, KindConfiguration},
		{"no recipients", ErrNoRecipients, KindConfiguration},
		{"decrypt", ErrDecryptionFailed, KindDecryption},
		{"malformed", ErrMalformedBlob, KindDecryption},
		{"wrap", ErrWrapFailed, KindWrap},
		{"unwrap", ErrUnwrapFailed, KindUnwrap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestSpecificErrorsMatchTheirKindRoot(t *testing.T) {
	if !errors.Is(ErrInvalidKeyLength, ErrInvalidKey) {
		t.Errorf("ErrInvalidKeyLength should wrap ErrInvalidKey")
	}
	if errors.Is(ErrInvalidKeyLength, ErrConfiguration) {
		t.Errorf("ErrInvalidKeyLength should not wrap ErrConfiguration")
	}
	if !errors.Is(ErrUnwrapFailed, ErrUnwrap) {
		t.Errorf("ErrUnwrapFailed should wrap ErrUnwrap")
	}
}
