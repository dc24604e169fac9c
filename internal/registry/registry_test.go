package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/keywrap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "users.json",
			content: `{
  "alice": {"family": "rsa", "public_key": "pem-a"},
  "bob": {"family": "ecies", "public_key": "04ab"}
}`,
		},
		{
			name: "yaml",
			file: "users.yaml",
			content: `alice:
  family: rsa
  public_key: pem-a
bob:
  family: ecies
  public_key: "04ab"
`,
		},
		{
			name: "toml",
			file: "users.toml",
			content: `[users.alice]
family = "rsa"
public_key = "pem-a"

[users.bob]
family = "ecies"
public_key = "04ab"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, []string{"alice", "bob"}, r.Names())

			recipients := r.Recipients()
			assert.Equal(t, keywrap.PublicKey{Family: keywrap.FamilyRSA, Encoded: "pem-a"}, recipients["alice"])
			assert.Equal(t, keywrap.FamilyECIES, recipients["bob"].Family)
		})
	}
}

func TestLoadFileLevelErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad json", "u.json", `{"alice": `},
		{"bad yaml", "u.yaml", "alice: [unclosed"},
		{"bad toml", "u.toml", "[users.alice\nfamily = "},
		{"empty user id", "u.json", `{"": {"family": "rsa", "public_key": "k"}}`},
		{"unsupported extension", "u.ini", `alice=1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, kerrors.ErrRegistryInvalid), "got %v", err)
			assert.True(t, errors.Is(err, kerrors.ErrConfiguration), "got %v", err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, kerrors.ErrRegistryInvalid), "got %v", err)
}

func TestUnknownFamilyIsNotAFileError(t *testing.T) {
	r, err := Load(writeFile(t, "u.json", `{"carol": {"family": "dsa", "public_key": "k"}}`))
	require.NoError(t, err)

	pub := r.Recipients()["carol"]
	assert.Equal(t, keywrap.Family("dsa"), pub.Family)

	_, err = keywrap.Wrap(pub, make([]byte, keywrap.WrappedKeySize))
	assert.True(t, errors.Is(err, kerrors.ErrUnknownKeyFamily), "got %v", err)
}

func TestEmptyKeyIsNotAFileError(t *testing.T) {
	r, err := Load(writeFile(t, "u.json", `{"bob": {"family": "rsa", "public_key": "  "}}`))
	require.NoError(t, err)

	_, err = keywrap.Wrap(r.Recipients()["bob"], make([]byte, keywrap.WrappedKeySize))
	assert.True(t, errors.Is(err, kerrors.ErrInvalidPublicKey), "got %v", err)
}

func TestEmptyFilesLoad(t *testing.T) {
	for _, name := range []string{"u.json", "u.yaml", "u.toml"} {
		r, err := Load(writeFile(t, name, ""))
		require.NoError(t, err, name)
		assert.Empty(t, r.Names())
	}
}

func TestAddRemoveSave(t *testing.T) {
	pair, err := keywrap.GenerateKeyPair(keywrap.FamilySealedBox)
	require.NoError(t, err)
	pub := keywrap.PublicKey{Family: pair.Family, Encoded: pair.Public}

	r := New()
	require.NoError(t, r.Add("alice", pub, false))

	err = r.Add("alice", pub, false)
	assert.True(t, errors.Is(err, kerrors.ErrUserExists), "got %v", err)
	require.NoError(t, r.Add("alice", pub, true))

	err = r.Add("mallory", keywrap.PublicKey{Family: keywrap.FamilySealedBox, Encoded: "zz"}, false)
	assert.True(t, errors.Is(err, kerrors.ErrInvalidPublicKey), "got %v", err)

	err = r.Add(" ", pub, false)
	assert.True(t, errors.Is(err, kerrors.ErrRegistryInvalid), "got %v", err)

	for _, name := range []string{"users.json", "users.yml", "users.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, r.Save(path))

			back, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, r.Users, back.Users)
		})
	}

	require.NoError(t, r.Remove("alice"))
	err = r.Remove("alice")
	assert.True(t, errors.Is(err, kerrors.ErrUserNotFound), "got %v", err)

	_, err = r.Get("alice")
	assert.True(t, errors.Is(err, kerrors.ErrUserNotFound), "got %v", err)
}
