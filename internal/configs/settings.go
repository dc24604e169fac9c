package configs

import (
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/utils"
)

// ProjectDirName is the directory that marks a project root.
const ProjectDirName = utils.ProjectDirName

// UserSettings are per-user paths, independent of the current project.
type UserSettings struct {
	KeysPath    string
	ConfigsPath string
	Username    string
}

// ProjectSettings locate the files of the project containing the working directory.
type ProjectSettings struct {
	Name       string
	Root       string
	ConfigPath string
	AuditPath  string
}

// LoadUserSettings resolves the keys directory under $XDG_DATA_HOME
// (default ~/.local/share/wfb/keys) and the user config directory.
func LoadUserSettings() (*UserSettings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error getting home directory: %w", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error getting config directory: %w", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	username, err := utils.GetUsername()
	if err != nil {
		return nil, fmt.Errorf("error getting username: %w", err)
	}

	return &UserSettings{
		KeysPath:    filepath.Join(dataDir, "wfb", "keys"),
		ConfigsPath: filepath.Join(configDir, "wfb"),
		Username:    username,
	}, nil
}

// NewProjectSettings returns the settings for a project rooted at root.
func NewProjectSettings(root string) *ProjectSettings {
	return &ProjectSettings{
		Name:       filepath.Base(root),
		Root:       root,
		ConfigPath: filepath.Join(root, ProjectDirName, "config.toml"),
		AuditPath:  filepath.Join(root, ProjectDirName, "audit.jsonl"),
	}
}

// FindProjectSettings walks up from start to the nearest project.
// Returns ErrProjectNotInitialized when there is none.
func FindProjectSettings(start string) (*ProjectSettings, error) {
	root, err := utils.FindProjectRoot(start)
	if err != nil {
		return nil, fmt.Errorf("error getting project root: %w", err)
	}
	if root == "" {
		return nil, kerrors.ErrProjectNotInitialized
	}
	return NewProjectSettings(root), nil
}

// Resolve makes a configured path absolute relative to the project root.
func (p *ProjectSettings) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}

// LoadConfig reads the project config, applies WFB_* overrides from the
// process environment and validates the result.
func (p *ProjectSettings) LoadConfig() (*Config, error) {
	cfg, err := Load(p.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
