package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/QB2027/WebFileBrowser/internal/envelope"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/manifest"

	"github.com/google/uuid"
)

// Key sources for the manifest's symmetric key.
const (
	KeySourceRandom   = "random"
	KeySourceEnv      = "env"
	KeySourcePassword = "password"
)

// Source kinds for the manifest tree.
const (
	SourceBucket = "bucket"
	SourceLocal  = "local"
)

// MaxURLExpiry is the longest lifetime S3 accepts for a SigV4 presigned URL.
const MaxURLExpiry = 7 * 24 * time.Hour

// Config is the project file, .wfb/config.toml.
type Config struct {
	EncryptionIterations int `toml:"encryption_iterations"`
	EncryptionSaltLength int `toml:"encryption_salt_length"`
	EncryptionIVLength   int `toml:"encryption_iv_length"`

	Project    Project          `toml:"project"`
	Bucket     BucketConfig     `toml:"bucket"`
	Source     SourceConfig     `toml:"source"`
	Encryption EncryptionConfig `toml:"encryption"`
	Recipients RecipientsConfig `toml:"recipients"`
	Output     OutputConfig     `toml:"output"`
}

type Project struct {
	UUID      string    `toml:"project_uuid"`
	Name      string    `toml:"name"`
	CreatedAt time.Time `toml:"created_at"`
}

type BucketConfig struct {
	Name             string `toml:"name"`
	Region           string `toml:"region"`
	Endpoint         string `toml:"endpoint"`
	Prefix           string `toml:"prefix"`
	PathStyle        bool   `toml:"path_style"`
	URLExpirySeconds int    `toml:"url_expiry_seconds"`
	AccessKeyEnv     string `toml:"access_key_env"`
	SecretKeyEnv     string `toml:"secret_key_env"`
	Upload           bool   `toml:"upload"`
	UploadPrefix     string `toml:"upload_prefix"`
}

type SourceConfig struct {
	Kind         string   `toml:"kind"`
	Root         string   `toml:"root"`
	URLPrefix    string   `toml:"url_prefix"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

type EncryptionConfig struct {
	Mode        string `toml:"mode"`
	Encoding    string `toml:"encoding"`
	KeySource   string `toml:"key_source"`
	KeyEnv      string `toml:"key_env"`
	KeyEncoding string `toml:"key_encoding"`
	PasswordEnv string `toml:"password_env"`
}

type RecipientsConfig struct {
	Registry string `toml:"registry"`
	Workers  int    `toml:"workers"`
}

type OutputConfig struct {
	Manifest       string `toml:"manifest"`
	WritePlaintext bool   `toml:"write_plaintext"`
	Encrypted      string `toml:"encrypted"`
	WrappedKeys    string `toml:"wrapped_keys"`
}

// Defaults returns a configuration with every setting at its default.
func Defaults() *Config {
	return &Config{
		EncryptionIterations: envelope.DefaultIterations,
		EncryptionSaltLength: envelope.DefaultSaltLength,
		EncryptionIVLength:   envelope.BlockSize,
		Bucket: BucketConfig{
			URLExpirySeconds: 3600,
			AccessKeyEnv:     "AWS_ACCESS_KEY_ID",
			SecretKeyEnv:     "AWS_SECRET_ACCESS_KEY",
		},
		Source: SourceConfig{
			Kind:         SourceBucket,
			Root:         ".",
			ExcludeDirs:  append([]string(nil), manifest.DefaultExcludeDirs...),
			ExcludeFiles: append([]string(nil), manifest.DefaultExcludeFiles...),
		},
		Encryption: EncryptionConfig{
			Mode:        string(envelope.ModeGCM),
			Encoding:    string(envelope.EncodingBase64),
			KeySource:   KeySourceRandom,
			KeyEnv:      "WFB_MANIFEST_KEY",
			KeyEncoding: string(envelope.KeyEncodingBase64),
			PasswordEnv: "WFB_MANIFEST_PASSWORD",
		},
		Recipients: RecipientsConfig{
			Registry: filepath.Join(ProjectDirName, "users.json"),
			Workers:  4,
		},
		Output: OutputConfig{
			Manifest:    "files.json",
			Encrypted:   "files.json.enc",
			WrappedKeys: "keys.json",
		},
	}
}

// NewProjectConfig returns defaults stamped with a fresh project identity.
func NewProjectConfig(name string) *Config {
	cfg := Defaults()
	cfg.Project = Project{
		UUID:      uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	return cfg
}

// Load reads path over the defaults. Unknown keys are rejected so that a
// typo never silently falls back to a default.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	unknown, err := LoadTOML(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", kerrors.ErrProjectNotInitialized, path)
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidProjectConfig, err)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", kerrors.ErrInvalidProjectConfig, path, strings.Join(unknown, ", "))
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	header := "# wfb project configuration. Settings can be overridden with WFB_* environment variables.\n\n"
	if err := SaveTOML(path, cfg, header); err != nil {
		return fmt.Errorf("failed to save project config: %w", err)
	}
	return nil
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(string) (string, bool)

type override struct {
	name string
	set  func(c *Config, v string) error
}

func setString(dst func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func setInt(dst func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func setBool(dst func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

var overrides = []override{
	{"WFB_ENCRYPTION_ITERATIONS", setInt(func(c *Config) *int { return &c.EncryptionIterations })},
	{"WFB_ENCRYPTION_SALT_LENGTH", setInt(func(c *Config) *int { return &c.EncryptionSaltLength })},
	{"WFB_ENCRYPTION_IV_LENGTH", setInt(func(c *Config) *int { return &c.EncryptionIVLength })},
	{"WFB_ENCRYPTION_MODE", setString(func(c *Config) *string { return &c.Encryption.Mode })},
	{"WFB_ENCRYPTION_ENCODING", setString(func(c *Config) *string { return &c.Encryption.Encoding })},
	{"WFB_ENCRYPTION_KEY_SOURCE", setString(func(c *Config) *string { return &c.Encryption.KeySource })},
	{"WFB_BUCKET_NAME", setString(func(c *Config) *string { return &c.Bucket.Name })},
	{"WFB_BUCKET_REGION", setString(func(c *Config) *string { return &c.Bucket.Region })},
	{"WFB_BUCKET_ENDPOINT", setString(func(c *Config) *string { return &c.Bucket.Endpoint })},
	{"WFB_BUCKET_PREFIX", setString(func(c *Config) *string { return &c.Bucket.Prefix })},
	{"WFB_BUCKET_PATH_STYLE", setBool(func(c *Config) *bool { return &c.Bucket.PathStyle })},
	{"WFB_BUCKET_URL_EXPIRY_SECONDS", setInt(func(c *Config) *int { return &c.Bucket.URLExpirySeconds })},
	{"WFB_BUCKET_UPLOAD", setBool(func(c *Config) *bool { return &c.Bucket.Upload })},
	{"WFB_SOURCE_KIND", setString(func(c *Config) *string { return &c.Source.Kind })},
	{"WFB_SOURCE_ROOT", setString(func(c *Config) *string { return &c.Source.Root })},
	{"WFB_SOURCE_URL_PREFIX", setString(func(c *Config) *string { return &c.Source.URLPrefix })},
	{"WFB_RECIPIENTS_REGISTRY", setString(func(c *Config) *string { return &c.Recipients.Registry })},
	{"WFB_RECIPIENTS_WORKERS", setInt(func(c *Config) *int { return &c.Recipients.Workers })},
	{"WFB_OUTPUT_WRITE_PLAINTEXT", setBool(func(c *Config) *bool { return &c.Output.WritePlaintext })},
}

// ApplyEnv overrides settings from WFB_* variables found by lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, o := range overrides {
		v, ok := lookup(o.name)
		if !ok {
			continue
		}
		if err := o.set(c, v); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", kerrors.ErrInvalidProjectConfig, o.name, v, err)
		}
	}
	return nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.KDFParams().Validate(); err != nil {
		return err
	}
	if _, err := c.EngineOptions(); err != nil {
		return err
	}
	if _, err := envelope.ParseKeyEncoding(c.Encryption.KeyEncoding); err != nil {
		return err
	}

	switch c.Encryption.KeySource {
	case KeySourceRandom:
	case KeySourceEnv:
		if c.Encryption.KeyEnv == "" {
			return fmt.Errorf("%w: encryption.key_env", kerrors.ErrMissingSetting)
		}
	case KeySourcePassword:
		if c.Encryption.PasswordEnv == "" {
			return fmt.Errorf("%w: encryption.password_env", kerrors.ErrMissingSetting)
		}
	default:
		return fmt.Errorf("%w: encryption.key_source %q (want random, env or password)", kerrors.ErrInvalidProjectConfig, c.Encryption.KeySource)
	}

	switch c.Source.Kind {
	case SourceBucket, SourceLocal:
	default:
		return fmt.Errorf("%w: source.kind %q (want bucket or local)", kerrors.ErrInvalidProjectConfig, c.Source.Kind)
	}
	if err := (manifest.ScanOptions{ExcludeDirs: c.Source.ExcludeDirs, ExcludeFiles: c.Source.ExcludeFiles}).Validate(); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrInvalidProjectConfig, err)
	}

	expiry := c.URLExpiry()
	if expiry <= 0 || expiry > MaxURLExpiry {
		return fmt.Errorf("%w: bucket.url_expiry_seconds must be between 1 and %d", kerrors.ErrInvalidProjectConfig, int(MaxURLExpiry.Seconds()))
	}
	if c.Bucket.Upload && c.Bucket.Name == "" {
		return fmt.Errorf("%w: bucket.name is required when bucket.upload is set", kerrors.ErrMissingSetting)
	}

	if c.Recipients.Registry == "" {
		return fmt.Errorf("%w: recipients.registry", kerrors.ErrMissingSetting)
	}
	if c.Recipients.Workers < 1 {
		return fmt.Errorf("%w: recipients.workers must be at least 1", kerrors.ErrInvalidProjectConfig)
	}
	for key, v := range map[string]string{
		"output.manifest":     c.Output.Manifest,
		"output.encrypted":    c.Output.Encrypted,
		"output.wrapped_keys": c.Output.WrappedKeys,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s", kerrors.ErrMissingSetting, key)
		}
	}
	return nil
}

// KDFParams returns the password derivation parameters.
func (c *Config) KDFParams() envelope.KDFParams {
	return envelope.KDFParams{Iterations: c.EncryptionIterations, SaltLength: c.EncryptionSaltLength}
}

// EngineOptions returns the validated cipher options.
func (c *Config) EngineOptions() (envelope.Options, error) {
	mode, err := envelope.ParseMode(c.Encryption.Mode)
	if err != nil {
		return envelope.Options{}, err
	}
	enc, err := envelope.ParseEncoding(c.Encryption.Encoding)
	if err != nil {
		return envelope.Options{}, err
	}
	opts := envelope.Options{Mode: mode, Encoding: enc, IVLength: c.EncryptionIVLength}
	if err := opts.Validate(); err != nil {
		return envelope.Options{}, err
	}
	return opts, nil
}

// URLExpiry is the presigned URL lifetime.
func (c *Config) URLExpiry() time.Duration {
	return time.Duration(c.Bucket.URLExpirySeconds) * time.Second
}

// BucketCredentials reads the access key pair from the configured variables.
// Both empty means "use the default AWS chain"; one without the other is an error.
func (c *Config) BucketCredentials(lookup LookupFunc) (string, string, error) {
	id, _ := lookup(c.Bucket.AccessKeyEnv)
	secret, _ := lookup(c.Bucket.SecretKeyEnv)
	if (id == "") != (secret == "") {
		return "", "", fmt.Errorf("%w: set both %s and %s, or neither", kerrors.ErrMissingCredentials, c.Bucket.AccessKeyEnv, c.Bucket.SecretKeyEnv)
	}
	return id, secret, nil
}
