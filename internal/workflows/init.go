package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/QB2027/WebFileBrowser/internal/audit"
	"github.com/QB2027/WebFileBrowser/internal/configs"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/registry"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// ProjectDir is the directory to initialize. Defaults to the working directory.
	ProjectDir string

	// ProjectName defaults to the directory name.
	ProjectName string

	// BucketName is written to [bucket] when set.
	BucketName string

	// SourceKind is "bucket" (default) or "local".
	SourceKind string

	// KeySource is "random" (default), "env" or "password".
	KeySource string

	// RegistryFormat picks the registry file extension: json (default), yaml or toml.
	RegistryFormat string
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	ProjectName  string
	ProjectUUID  string
	ProjectPath  string
	ConfigPath   string
	RegistryPath string
}

// Init creates .wfb/ with a default config.toml and an empty registry.
//
// Returns ErrProjectAlreadyInitialized if .wfb/config.toml already exists.
// Returns ErrInvalidProjectConfig if the chosen options do not validate.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	dir := opts.ProjectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	settings := configs.NewProjectSettings(dir)
	if _, err := os.Stat(settings.ConfigPath); err == nil {
		return nil, kerrors.ErrProjectAlreadyInitialized
	}

	name := opts.ProjectName
	if name == "" {
		name = settings.Name
	}
	cfg := configs.NewProjectConfig(name)
	cfg.Bucket.Name = opts.BucketName
	if opts.SourceKind != "" {
		cfg.Source.Kind = opts.SourceKind
	}
	if opts.KeySource != "" {
		cfg.Encryption.KeySource = opts.KeySource
	}
	switch opts.RegistryFormat {
	case "", "json":
	case "yaml", "yml", "toml":
		cfg.Recipients.Registry = filepath.Join(configs.ProjectDirName, "users."+opts.RegistryFormat)
	default:
		return nil, fmt.Errorf("%w: registry format %q (want json, yaml or toml)", kerrors.ErrInvalidProjectConfig, opts.RegistryFormat)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	projectDir := filepath.Join(dir, configs.ProjectDirName)
	_, statErr := os.Stat(projectDir)
	createdDir := os.IsNotExist(statErr)
	cleanupNeeded := false
	defer func() {
		if cleanupNeeded && createdDir {
			os.RemoveAll(projectDir)
		}
	}()
	cleanupNeeded = true

	if err := configs.Save(settings.ConfigPath, cfg); err != nil {
		return nil, err
	}

	registryPath := settings.Resolve(cfg.Recipients.Registry)
	if _, err := os.Stat(registryPath); os.IsNotExist(err) {
		if err := registry.New().Save(registryPath); err != nil {
			return nil, fmt.Errorf("creating registry: %w", err)
		}
	}

	entry := audit.NewEntry("init")
	entry.Artifacts = []string{settings.ConfigPath, registryPath}
	audit.Log(settings.AuditPath, entry)

	cleanupNeeded = false

	return &InitResult{
		ProjectName:  name,
		ProjectUUID:  cfg.Project.UUID,
		ProjectPath:  dir,
		ConfigPath:   settings.ConfigPath,
		RegistryPath: registryPath,
	}, nil
}
