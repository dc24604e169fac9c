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
	logger "github.com/QB2027/WebFileBrowser/internal/logging"
)

// DistributeOptions configures the key distribution workflow.
type DistributeOptions struct {
	ProjectDir string

	// Key is the symmetric key to wrap. When nil it is recovered from the
	// key source: the environment key, or the password together with the
	// salt stored in the existing blob.
	Key []byte

	Password string

	Logger logger.Logger
}

// DistributeResult contains the outcome of a distribution run.
type DistributeResult struct {
	*distribute.Result

	Recipients int

	// OutputPath is the wrapped-key file. Written is false when no recipient
	// succeeded, in which case an existing file is left untouched.
	OutputPath string
	Written    bool
}

// DistributeKey wraps the manifest key for every registered recipient and
// writes the wrapped keys to output.wrapped_keys.
//
// A recipient whose key cannot be used is reported in the result's Failures;
// the others still receive their wrapped key. Callers inspect Outcome().
//
// Returns ErrRegistryInvalid if the registry file is missing or malformed.
// Returns ErrNoRecipients if the registry is empty.
// Returns ErrMissingSetting if no key can be recovered for the key source.
// Returns ErrDecryptionFailed if the password does not open the existing blob.
func DistributeKey(ctx context.Context, opts DistributeOptions) (*DistributeResult, error) {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	key := opts.Key
	if key == nil {
		key, err = p.recoverKey(opts.Password)
		if err != nil {
			return nil, err
		}
		defer envelope.Zero(key)
	}

	result, err := p.wrapKeys(ctx, key, opts.Logger)
	if err != nil {
		return nil, err
	}
	if err := p.writeWrappedKeys(result, opts.Logger); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("distribute")
	entry.KeySource = p.config.Encryption.KeySource
	recordDistribution(&entry, result)
	audit.Log(p.settings.AuditPath, entry)

	return result, nil
}

// wrapKeys wraps key for every registered recipient in memory.
func (p *project) wrapKeys(ctx context.Context, key []byte, log logger.Logger) (*DistributeResult, error) {
	reg, err := p.loadRegistry()
	if err != nil {
		return nil, err
	}
	recipients := reg.Recipients()

	res, err := distribute.Distribute(ctx, key, recipients, distribute.Options{
		Workers: p.config.Recipients.Workers,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	return &DistributeResult{
		Result:     res,
		Recipients: len(recipients),
		OutputPath: p.path(p.config.Output.WrappedKeys),
	}, nil
}

// writeWrappedKeys writes the wrapped keys unless no recipient succeeded.
func (p *project) writeWrappedKeys(result *DistributeResult, log logger.Logger) error {
	if len(result.Wrapped) == 0 {
		log.WarnfAlways("No recipient key could be wrapped; %s was not written", result.OutputPath)
		return nil
	}
	if err := distribute.WriteWrappedKeys(result.OutputPath, result.Wrapped); err != nil {
		return err
	}
	result.Written = true
	return nil
}

// recoverKey rebuilds the key outside a publish run.
func (p *project) recoverKey(password string) ([]byte, error) {
	switch p.config.Encryption.KeySource {
	case configs.KeySourceEnv:
		return p.symmetricKey()

	case configs.KeySourcePassword:
		pw, err := p.password(password)
		if err != nil {
			return nil, err
		}
		blobPath := p.path(p.config.Output.Encrypted)
		blob, err := os.ReadFile(blobPath)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (the salt is read from the encrypted manifest)", kerrors.ErrFileNotFound, blobPath)
		}
		if err != nil {
			return nil, fmt.Errorf("reading encrypted manifest: %w", err)
		}

		engineOpts, err := p.config.EngineOptions()
		if err != nil {
			return nil, err
		}
		sealer := envelope.PasswordSealer{Params: p.config.KDFParams(), Options: engineOpts}
		if _, err := sealer.Open(pw, blob); err != nil {
			return nil, err
		}
		salt, err := envelope.SaltFromBlob(blob, engineOpts.Encoding, p.config.EncryptionSaltLength)
		if err != nil {
			return nil, err
		}
		return envelope.DeriveKey(pw, salt, p.config.EncryptionIterations), nil

	default:
		return nil, fmt.Errorf("%w: encryption.key_source is random, so the key only exists during `wfb publish`", kerrors.ErrMissingSetting)
	}
}

func recordDistribution(entry *audit.Entry, r *DistributeResult) {
	if r == nil {
		return
	}
	entry.Recipients = r.Recipients
	entry.Succeeded = len(r.Wrapped)
	entry.Failed = len(r.Failures)
	entry.FailedUsers = r.FailedUsers()
	entry.Outcome = r.Outcome().String()
	if r.Written {
		entry.Artifacts = append(entry.Artifacts, r.OutputPath)
	}
}
