package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProjectDirName is the per-project directory holding config, registry and audit log.
const ProjectDirName = ".wfb"

// FindProjectRoot walks up from start looking for a ProjectDirName directory.
// Returns "" without error when none is found before the filesystem root or
// the parent of the user's home directory.
func FindProjectRoot(start string) (string, error) {
	currentDir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	stop := ""
	if homeDir, err := os.UserHomeDir(); err == nil {
		stop = filepath.Dir(homeDir)
	}

	for {
		if stop != "" && currentDir == stop {
			return "", nil
		}

		info, err := os.Stat(filepath.Join(currentDir, ProjectDirName))
		if err == nil {
			if info.IsDir() {
				return currentDir, nil
			}
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("error checking for %s directory at %s: %w", ProjectDirName, currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

// WriteFileAtomic writes data to a temporary sibling of path and renames it
// into place, creating parent directories as needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
