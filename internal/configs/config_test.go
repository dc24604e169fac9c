package configs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/QB2027/WebFileBrowser/internal/envelope"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ProjectDirName, "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 100000, cfg.EncryptionIterations)
	assert.Equal(t, 16, cfg.EncryptionSaltLength)
	assert.Equal(t, 16, cfg.EncryptionIVLength)
	assert.Equal(t, time.Hour, cfg.URLExpiry())
	assert.Equal(t, KeySourceRandom, cfg.Encryption.KeySource)
	require.NoError(t, cfg.Validate())

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, envelope.DefaultOptions(), opts)
	assert.Equal(t, envelope.DefaultKDFParams(), cfg.KDFParams())
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `
encryption_iterations = 200000

[bucket]
name = "class-files"
region = "oss-cn-hangzhou"

[encryption]
mode = "cbc"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200000, cfg.EncryptionIterations)
	assert.Equal(t, 16, cfg.EncryptionSaltLength)
	assert.Equal(t, "class-files", cfg.Bucket.Name)
	assert.Equal(t, 3600, cfg.Bucket.URLExpirySeconds)
	assert.Equal(t, "cbc", cfg.Encryption.Mode)
	assert.Equal(t, "base64", cfg.Encryption.Encoding)
	require.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	assert.True(t, errors.Is(err, kerrors.ErrProjectNotInitialized), "got %v", err)

	_, err = Load(writeConfig(t, "encryption_iterations = ["))
	assert.True(t, errors.Is(err, kerrors.ErrInvalidProjectConfig), "got %v", err)

	_, err = Load(writeConfig(t, "encryption_iteration = 5\n"))
	assert.True(t, errors.Is(err, kerrors.ErrInvalidProjectConfig), "got %v", err)
	assert.Contains(t, err.Error(), "encryption_iteration")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProjectDirName, "config.toml")
	cfg := NewProjectConfig("course-site")
	cfg.Bucket.Name = "class-files"
	cfg.Source.ExcludeFiles = append(cfg.Source.ExcludeFiles, "*.tmp")

	require.NoError(t, Save(path, cfg))
	back, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Project.UUID, back.Project.UUID)
	assert.Len(t, back.Project.UUID, 36)
	assert.True(t, cfg.Project.CreatedAt.Equal(back.Project.CreatedAt))
	assert.Equal(t, cfg.Source, back.Source)
	assert.Equal(t, cfg.Encryption, back.Encryption)
	assert.Equal(t, cfg.Output, back.Output)
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(envFrom(map[string]string{
		"WFB_ENCRYPTION_ITERATIONS": "5000",
		"WFB_BUCKET_NAME":           "from-env",
		"WFB_BUCKET_PATH_STYLE":     "true",
		"WFB_RECIPIENTS_WORKERS":    "8",
		"UNRELATED":                 "x",
	}))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.EncryptionIterations)
	assert.Equal(t, "from-env", cfg.Bucket.Name)
	assert.True(t, cfg.Bucket.PathStyle)
	assert.Equal(t, 8, cfg.Recipients.Workers)

	err = cfg.ApplyEnv(envFrom(map[string]string{"WFB_ENCRYPTION_SALT_LENGTH": "sixteen"}))
	assert.True(t, errors.Is(err, kerrors.ErrInvalidProjectConfig), "got %v", err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"zero iterations", func(c *Config) { c.EncryptionIterations = 0 }, kerrors.ErrInvalidProjectConfig},
		{"short salt", func(c *Config) { c.EncryptionSaltLength = 8 }, kerrors.ErrInvalidProjectConfig},
		{"iv length", func(c *Config) { c.EncryptionIVLength = 12 }, kerrors.ErrInvalidProjectConfig},
		{"unknown mode", func(c *Config) { c.Encryption.Mode = "ecb" }, kerrors.ErrInvalidProjectConfig},
		{"unknown key source", func(c *Config) { c.Encryption.KeySource = "kms" }, kerrors.ErrInvalidProjectConfig},
		{"env source without variable", func(c *Config) {
			c.Encryption.KeySource = KeySourceEnv
			c.Encryption.KeyEnv = ""
		}, kerrors.ErrMissingSetting},
		{"unknown source kind", func(c *Config) { c.Source.Kind = "ftp" }, kerrors.ErrInvalidProjectConfig},
		{"bad exclude pattern", func(c *Config) { c.Source.ExcludeDirs = []string{"[x"} }, kerrors.ErrInvalidProjectConfig},
		{"expiry too long", func(c *Config) { c.Bucket.URLExpirySeconds = 8 * 24 * 3600 }, kerrors.ErrInvalidProjectConfig},
		{"upload without bucket", func(c *Config) { c.Bucket.Upload = true }, kerrors.ErrMissingSetting},
		{"no workers", func(c *Config) { c.Recipients.Workers = 0 }, kerrors.ErrInvalidProjectConfig},
		{"no output", func(c *Config) { c.Output.Encrypted = "" }, kerrors.ErrMissingSetting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, kerrors.KindConfiguration, kerrors.KindOf(err))
		})
	}
}

func TestBucketCredentials(t *testing.T) {
	cfg := Defaults()

	id, secret, err := cfg.BucketCredentials(envFrom(nil))
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, secret)

	id, secret, err = cfg.BucketCredentials(envFrom(map[string]string{
		"AWS_ACCESS_KEY_ID":     "AKID",
		"AWS_SECRET_ACCESS_KEY": "SECRET",
	}))
	require.NoError(t, err)
	assert.Equal(t, "AKID", id)
	assert.Equal(t, "SECRET", secret)

	_, _, err = cfg.BucketCredentials(envFrom(map[string]string{"AWS_ACCESS_KEY_ID": "AKID"}))
	assert.True(t, errors.Is(err, kerrors.ErrMissingCredentials), "got %v", err)
}
