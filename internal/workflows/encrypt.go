package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/QB2027/WebFileBrowser/internal/audit"
	"github.com/QB2027/WebFileBrowser/internal/configs"
	"github.com/QB2027/WebFileBrowser/internal/envelope"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	logger "github.com/QB2027/WebFileBrowser/internal/logging"
	"github.com/QB2027/WebFileBrowser/internal/utils"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	ProjectDir string

	// Plaintext is the manifest to encrypt. When nil, output.manifest is read.
	Plaintext []byte

	// Password overrides the variable named by encryption.password_env.
	Password string

	Logger logger.Logger
}

// EncryptResult contains the outcome of an encrypt operation.
type EncryptResult struct {
	// Key is the symmetric key the blob was sealed with. Callers distribute
	// it and then zero it with envelope.Zero.
	Key []byte

	KeySource string
	Mode      envelope.Mode
	Size      int

	// OutputPath is the blob file. Written is false when a publish run
	// served nobody, in which case the existing blob is left untouched.
	OutputPath string
	Written    bool

	// StaleKeys is the wrapped-key file removed because the blob now uses
	// a key it does not hold.
	StaleKeys string

	blob []byte
}

// EncryptManifest seals a manifest and writes the blob to output.encrypted.
//
// The key comes from encryption.key_source: a fresh random key, a key
// decoded from an environment variable, or a key derived from a password
// whose salt is stored at the front of the blob.
//
// A random or password-derived key changes with every run, so an existing
// wrapped-key file no longer matches the new blob and is removed.
//
// Returns ErrFileNotFound if no plaintext is given and output.manifest is missing.
// Returns ErrMissingSetting if the key or password variable is unset.
// Returns ErrInvalidKeyEncoding or ErrInvalidKeyLength for a bad environment key.
func EncryptManifest(ctx context.Context, opts EncryptOptions) (*EncryptResult, error) {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	plaintext := opts.Plaintext
	if plaintext == nil {
		path := p.path(p.config.Output.Manifest)
		plaintext, err = os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (run `wfb manifest build` first)", kerrors.ErrFileNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading manifest: %w", err)
		}
	}

	result, err := p.seal(plaintext, opts.Password, opts.Logger)
	if err != nil {
		return nil, err
	}
	if err := p.writeBlob(result, opts.Logger); err != nil {
		envelope.Zero(result.Key)
		return nil, err
	}
	if result.KeySource != configs.KeySourceEnv {
		stale, err := p.removeWrappedKeys(opts.Logger)
		if err != nil {
			envelope.Zero(result.Key)
			return nil, err
		}
		result.StaleKeys = stale
	}

	entry := audit.NewEntry("encrypt")
	entry.Mode = string(result.Mode)
	entry.KeySource = result.KeySource
	entry.Artifacts = []string{result.OutputPath}
	audit.Log(p.settings.AuditPath, entry)

	return result, nil
}

// seal encrypts plaintext in memory. Nothing is written until writeBlob.
func (p *project) seal(plaintext []byte, password string, log logger.Logger) (*EncryptResult, error) {
	engineOpts, err := p.config.EngineOptions()
	if err != nil {
		return nil, err
	}

	var blob, key []byte
	switch p.config.Encryption.KeySource {
	case configs.KeySourcePassword:
		pw, err := p.password(password)
		if err != nil {
			return nil, err
		}
		log.Debugf("Deriving key with %d PBKDF2 iterations", p.config.EncryptionIterations)
		sealer := envelope.PasswordSealer{Params: p.config.KDFParams(), Options: engineOpts}
		blob, key, err = sealer.Seal(pw, plaintext)
		if err != nil {
			return nil, err
		}

	default:
		key, err = p.symmetricKey()
		if err != nil {
			return nil, err
		}
		engine, err := envelope.NewEngine(key, engineOpts)
		if err != nil {
			envelope.Zero(key)
			return nil, err
		}
		blob, err = engine.Encrypt(plaintext)
		if err != nil {
			envelope.Zero(key)
			return nil, err
		}
	}

	log.Debugf("Encrypted manifest (%d bytes, %s)", len(plaintext), engineOpts.Mode)

	return &EncryptResult{
		Key:        key,
		KeySource:  p.config.Encryption.KeySource,
		Mode:       engineOpts.Mode,
		OutputPath: p.path(p.config.Output.Encrypted),
		Size:       len(blob),
		blob:       blob,
	}, nil
}

func (p *project) writeBlob(result *EncryptResult, log logger.Logger) error {
	// #nosec G306 -- the blob is only readable with the manifest key.
	if err := utils.WriteFileAtomic(result.OutputPath, result.blob, 0644); err != nil {
		return err
	}
	result.Written = true
	log.Infof("Wrote encrypted manifest to %s", result.OutputPath)
	return nil
}

// removeWrappedKeys deletes output.wrapped_keys and returns its path, or ""
// when there was no file.
func (p *project) removeWrappedKeys(log logger.Logger) (string, error) {
	path := p.path(p.config.Output.WrappedKeys)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("removing stale wrapped keys: %w", err)
	}
	log.WarnfAlways("Removed %s: its wrapped keys belong to the previous blob", path)
	return path, nil
}

// symmetricKey returns the key for the random and env key sources.
func (p *project) symmetricKey() ([]byte, error) {
	enc := p.config.Encryption
	if enc.KeySource != configs.KeySourceEnv {
		return envelope.GenerateKey()
	}

	value := os.Getenv(enc.KeyEnv)
	if value == "" {
		return nil, fmt.Errorf("%w: environment variable %s is not set", kerrors.ErrMissingSetting, enc.KeyEnv)
	}
	keyEncoding, err := envelope.ParseKeyEncoding(enc.KeyEncoding)
	if err != nil {
		return nil, err
	}
	return envelope.DecodeKey(value, keyEncoding)
}

func (p *project) password(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	name := p.config.Encryption.PasswordEnv
	if pw := os.Getenv(name); pw != "" {
		return pw, nil
	}
	return "", fmt.Errorf("%w: environment variable %s is not set", kerrors.ErrMissingSetting, name)
}
