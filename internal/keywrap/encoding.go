package keywrap

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// decodeBytes reads hex when the text is plausibly hex of one of the expected
// sizes, and standard base64 otherwise.
func decodeBytes(s string, sizes ...int) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, fmt.Errorf("empty key")
	}

	for _, n := range sizes {
		if len(s) == 2*n {
			if b, err := hex.DecodeString(s); err == nil {
				return b, nil
			}
		}
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("key is neither hex nor base64")
	}
	for _, n := range sizes {
		if len(b) == n {
			return b, nil
		}
	}
	return nil, fmt.Errorf("decoded key is %d bytes, want one of %v", len(b), sizes)
}

// decodeDER reads hex or base64 text that holds a DER SEQUENCE.
func decodeDER(s string) ([]byte, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if b, err := hex.DecodeString(s); err == nil && len(b) > 0 && b[0] == 0x30 {
		return b, true
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) > 0 && b[0] == 0x30 {
		return b, true
	}
	return nil, false
}
