package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/QB2027/WebFileBrowser/internal/audit"
	"github.com/QB2027/WebFileBrowser/internal/configs"
	"github.com/QB2027/WebFileBrowser/internal/distribute"
	"github.com/QB2027/WebFileBrowser/internal/envelope"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/keywrap"
	logger "github.com/QB2027/WebFileBrowser/internal/logging"
	"github.com/QB2027/WebFileBrowser/internal/manifest"
	"github.com/QB2027/WebFileBrowser/internal/utils"
)

// Decryption methods reported in DecryptResult.
const (
	MethodWrappedKey = "wrapped-key"
	MethodPassword   = "password"
)

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	ProjectDir string

	// User selects the wrapped key. Defaults to the current user.
	User string

	// PrivateKey unwraps the user's key. An empty Family is taken from the
	// user's registry entry.
	PrivateKey keywrap.PrivateKey

	// Password opens a password-mode blob directly, with no wrapped key.
	Password string

	// BlobPath and KeysPath override output.encrypted and output.wrapped_keys.
	BlobPath string
	KeysPath string

	// OutputPath, when set, receives the plaintext manifest.
	OutputPath string

	Logger logger.Logger
}

// DecryptResult contains the outcome of a decrypt operation.
type DecryptResult struct {
	Plaintext  []byte
	Nodes      []*manifest.Node
	Files      int
	Dirs       int
	User       string
	Method     string
	OutputPath string
}

// DecryptManifest recovers the plaintext manifest, either by unwrapping the
// user's copy of the key with their private key or from the password.
//
// Returns ErrFileNotFound if the blob or the wrapped-key file is missing.
// Returns ErrUserNotFound if the wrapped-key file has no entry for the user.
// Returns ErrUnwrapFailed if the private key does not match the wrapped key.
// Returns ErrDecryptionFailed if the blob fails authentication or does not
// decrypt to a manifest.
func DecryptManifest(ctx context.Context, opts DecryptOptions) (*DecryptResult, error) {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	log := opts.Logger

	blobPath := opts.BlobPath
	if blobPath == "" {
		blobPath = p.path(p.config.Output.Encrypted)
	}
	blob, err := os.ReadFile(blobPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, blobPath)
	}
	if err != nil {
		return nil, fmt.Errorf("reading encrypted manifest: %w", err)
	}

	engineOpts, err := p.config.EngineOptions()
	if err != nil {
		return nil, err
	}

	result := &DecryptResult{}
	if opts.Password != "" {
		log.Debugf("Opening %s with a password", blobPath)
		sealer := envelope.PasswordSealer{Params: p.config.KDFParams(), Options: engineOpts}
		result.Plaintext, err = sealer.Open(opts.Password, blob)
		if err != nil {
			return nil, err
		}
		result.Method = MethodPassword
	} else {
		user, key, err := p.unwrapUserKey(opts)
		if err != nil {
			return nil, err
		}
		defer envelope.Zero(key)

		engine, err := envelope.NewEngine(key, engineOpts)
		if err != nil {
			return nil, err
		}
		if p.config.Encryption.KeySource == configs.KeySourcePassword {
			_, result.Plaintext, err = engine.DecryptSalted(blob, p.config.EncryptionSaltLength)
		} else {
			result.Plaintext, err = engine.Decrypt(blob)
		}
		if err != nil {
			return nil, err
		}
		result.User = user
		result.Method = MethodWrappedKey
	}

	nodes, err := manifest.Unmarshal(result.Plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypted data is not a manifest", kerrors.ErrDecryptionFailed)
	}
	result.Nodes = nodes
	result.Files, result.Dirs = manifest.Count(nodes)

	if opts.OutputPath != "" {
		if err := utils.WriteFileAtomic(opts.OutputPath, result.Plaintext, 0600); err != nil {
			return nil, err
		}
		result.OutputPath = opts.OutputPath
	}

	entry := audit.NewEntry("decrypt")
	entry.TargetUser = result.User
	entry.KeySource = result.Method
	entry.Files = result.Files
	if result.OutputPath != "" {
		entry.Artifacts = []string{result.OutputPath}
	}
	audit.Log(p.settings.AuditPath, entry)

	return result, nil
}

func (p *project) unwrapUserKey(opts DecryptOptions) (string, []byte, error) {
	user := opts.User
	if user == "" {
		name, err := utils.GetUsername()
		if err != nil {
			return "", nil, fmt.Errorf("getting username: %w", err)
		}
		user = name
	}

	if opts.PrivateKey.Encoded == "" {
		return "", nil, fmt.Errorf("%w: no private key given for %s", kerrors.ErrInvalidPrivateKey, user)
	}

	keysPath := opts.KeysPath
	if keysPath == "" {
		keysPath = p.path(p.config.Output.WrappedKeys)
	}
	wrapped, err := distribute.ReadWrappedKeys(keysPath)
	if err != nil {
		return "", nil, err
	}
	record, err := distribute.Lookup(wrapped, user)
	if err != nil {
		return "", nil, err
	}

	priv := opts.PrivateKey
	if priv.Family == "" {
		reg, err := p.loadRegistry()
		if err != nil {
			return "", nil, err
		}
		entry, err := reg.Get(user)
		if err != nil {
			return "", nil, fmt.Errorf("%w (pass the key family explicitly)", err)
		}
		priv.Family, err = keywrap.ParseFamily(entry.Family)
		if err != nil {
			return "", nil, err
		}
	}

	opts.Logger.Debugf("Unwrapping key for %s (%s)", user, priv.Family)
	key, err := keywrap.Unwrap(priv, record)
	if err != nil {
		return "", nil, err
	}
	return user, key, nil
}
