package distribute

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/utils"
)

// WriteWrappedKeys writes {user: base64} as indented JSON with sorted keys.
func WriteWrappedKeys(path string, wrapped map[string]string) error {
	data, err := json.MarshalIndent(wrapped, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling wrapped keys: %w", err)
	}
	data = append(data, '\n')

	// #nosec G306 -- wrapped keys are only readable with a recipient's private key.
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("writing wrapped keys: %w", err)
	}
	return nil
}

// ReadWrappedKeys reads a file written by WriteWrappedKeys.
func ReadWrappedKeys(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading wrapped keys: %w", err)
	}

	var wrapped map[string]string
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object of strings: %v", kerrors.ErrInvalidProjectConfig, path, err)
	}
	return wrapped, nil
}

// Lookup returns the wrapped key for user.
func Lookup(wrapped map[string]string, user string) (string, error) {
	v, ok := wrapped[user]
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: no wrapped key for %s", kerrors.ErrUserNotFound, user)
	}
	return v, nil
}
