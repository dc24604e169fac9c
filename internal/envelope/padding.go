package envelope

import (
	"bytes"
	"fmt"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
)

// pkcs7Pad always adds between 1 and blockSize bytes.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length %d", kerrors.ErrDecryptionFailed, len(data))
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: invalid padding", kerrors.ErrDecryptionFailed)
	}

	// Check every pad byte, not just the count.
	var bad byte
	for _, b := range data[len(data)-n:] {
		bad |= b ^ byte(n)
	}
	if bad != 0 {
		return nil, fmt.Errorf("%w: invalid padding", kerrors.ErrDecryptionFailed)
	}

	return data[:len(data)-n], nil
}
