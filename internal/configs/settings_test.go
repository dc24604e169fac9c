package configs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUserSettings(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)
	t.Setenv("WFB_USER", "alice")

	s, err := LoadUserSettings()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "wfb", "keys"), s.KeysPath)
	assert.Equal(t, "alice", s.Username)
}

func TestFindProjectSettings(t *testing.T) {
	root := t.TempDir()
	_, err := FindProjectSettings(root)
	assert.True(t, errors.Is(err, kerrors.ErrProjectNotInitialized), "got %v", err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, ProjectDirName), 0755))
	nested := filepath.Join(root, "site", "assets")
	require.NoError(t, os.MkdirAll(nested, 0755))

	p, err := FindProjectSettings(nested)
	require.NoError(t, err)
	abs, _ := filepath.Abs(root)
	assert.Equal(t, abs, p.Root)
	assert.Equal(t, filepath.Join(abs, ".wfb", "config.toml"), p.ConfigPath)
	assert.Equal(t, filepath.Join(abs, ".wfb", "audit.jsonl"), p.AuditPath)
	assert.Equal(t, filepath.Join(abs, "keys.json"), p.Resolve("keys.json"))
	assert.Equal(t, "/abs/path", p.Resolve("/abs/path"))
}

func TestLoadConfigAppliesEnvAndValidates(t *testing.T) {
	root := t.TempDir()
	p := NewProjectSettings(root)
	require.NoError(t, Save(p.ConfigPath, Defaults()))

	t.Setenv("WFB_BUCKET_NAME", "env-bucket")
	cfg, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-bucket", cfg.Bucket.Name)

	t.Setenv("WFB_ENCRYPTION_IV_LENGTH", "12")
	_, err = p.LoadConfig()
	assert.True(t, errors.Is(err, kerrors.ErrInvalidProjectConfig), "got %v", err)
}
