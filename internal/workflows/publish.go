package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/QB2027/WebFileBrowser/internal/audit"
	"github.com/QB2027/WebFileBrowser/internal/configs"
	"github.com/QB2027/WebFileBrowser/internal/distribute"
	"github.com/QB2027/WebFileBrowser/internal/envelope"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/keywrap"
	logger "github.com/QB2027/WebFileBrowser/internal/logging"
)

// PublishOptions configures the publish workflow.
type PublishOptions struct {
	ProjectDir string

	// DryRun builds the manifest and checks every recipient key without
	// writing, encrypting or uploading anything.
	DryRun bool

	Bucket   BucketClient
	Password string
	Logger   logger.Logger
}

// PublishResult contains the outcome of a publish run.
type PublishResult struct {
	Build   *BuildResult
	Encrypt *EncryptResult

	// Distribute is nil on a dry run, and in password mode with no recipients.
	Distribute *DistributeResult

	// Checked and Invalid describe the recipient keys inspected on a dry run.
	Checked int
	Invalid []distribute.Failure

	// Uploaded holds the object keys written to the bucket.
	Uploaded []string

	DryRun bool
}

// Outcome reports how many recipients were served. Runs that distribute
// to nobody by design count as OutcomeAll.
func (r *PublishResult) Outcome() distribute.Outcome {
	if r.DryRun {
		switch {
		case len(r.Invalid) == 0:
			return distribute.OutcomeAll
		case len(r.Invalid) < r.Checked:
			return distribute.OutcomePartial
		default:
			return distribute.OutcomeNone
		}
	}
	if r.Distribute == nil {
		return distribute.OutcomeAll
	}
	return r.Distribute.Outcome()
}

// Publish runs the whole pipeline: build the manifest, encrypt it, wrap the
// key for every recipient and, when bucket.upload is set, upload the blob
// and the wrapped keys. The plaintext manifest is never uploaded.
//
// Returns ErrProjectNotInitialized if there is no .wfb directory.
// Returns ErrNoRecipients if the registry is empty, except in password mode.
// Returns bucket, registry and key errors from the individual steps.
func Publish(ctx context.Context, opts PublishOptions) (*PublishResult, error) {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	cfg := p.config

	// Files are only written once every run-level check has passed.
	build, err := p.buildManifest(ctx, BuildOptions{Bucket: opts.Bucket, Logger: log})
	if err != nil {
		return nil, err
	}
	result := &PublishResult{Build: build, DryRun: opts.DryRun}

	if opts.DryRun {
		if err := p.checkRecipients(result); err != nil {
			return nil, err
		}
		return result, nil
	}

	reg, err := p.loadRegistry()
	if err != nil {
		return nil, err
	}
	if len(reg.Users) == 0 && cfg.Encryption.KeySource != configs.KeySourcePassword {
		return nil, kerrors.ErrNoRecipients
	}

	enc, err := p.seal(build.Data, opts.Password, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		envelope.Zero(enc.Key)
		enc.Key = nil
	}()
	result.Encrypt = enc

	dist, err := p.wrapKeys(ctx, enc.Key, log)
	switch {
	case errors.Is(err, kerrors.ErrNoRecipients) && cfg.Encryption.KeySource == configs.KeySourcePassword:
		log.Infof("No recipients registered; the manifest is only readable with the password")
	case err != nil:
		return nil, err
	default:
		result.Distribute = dist
	}

	// The blob and the wrapped keys on disk must always share one key, so a
	// run that served nobody leaves both of them as they were.
	if dist != nil && len(dist.Wrapped) == 0 {
		log.WarnfAlways("No recipient key could be wrapped; %s and %s were left unchanged", enc.OutputPath, dist.OutputPath)
	} else if err := p.commit(ctx, opts.Bucket, result, log); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("publish")
	entry.Source = build.Source
	entry.Files = build.Files
	entry.Mode = string(enc.Mode)
	entry.KeySource = enc.KeySource
	recordDistribution(&entry, result.Distribute)
	if build.OutputPath != "" {
		entry.Artifacts = append(entry.Artifacts, build.OutputPath)
	}
	if enc.Written {
		entry.Artifacts = append(entry.Artifacts, enc.OutputPath)
	}
	entry.Artifacts = append(entry.Artifacts, result.Uploaded...)
	audit.Log(p.settings.AuditPath, entry)

	return result, nil
}

// commit writes the blob and its wrapped keys, then the plaintext manifest,
// then uploads. With no recipients at all, a wrapped-key file left from an
// earlier run is removed.
func (p *project) commit(ctx context.Context, bucket BucketClient, result *PublishResult, log logger.Logger) error {
	if err := p.writeBlob(result.Encrypt, log); err != nil {
		return err
	}
	if result.Distribute != nil {
		if err := p.writeWrappedKeys(result.Distribute, log); err != nil {
			return err
		}
	} else {
		stale, err := p.removeWrappedKeys(log)
		if err != nil {
			return err
		}
		result.Encrypt.StaleKeys = stale
	}

	if p.config.Output.WritePlaintext {
		if err := p.writeManifest(result.Build, log); err != nil {
			return err
		}
	}

	if p.config.Bucket.Upload {
		return p.upload(ctx, bucket, result, log)
	}
	return nil
}

// checkRecipients parses every registered key without wrapping anything.
func (p *project) checkRecipients(result *PublishResult) error {
	reg, err := p.loadRegistry()
	if err != nil {
		return err
	}
	recipients := reg.Recipients()
	if len(recipients) == 0 && p.config.Encryption.KeySource != configs.KeySourcePassword {
		return kerrors.ErrNoRecipients
	}

	for _, user := range reg.Names() {
		if err := keywrap.ValidatePublicKey(recipients[user]); err != nil {
			result.Invalid = append(result.Invalid, distribute.Failure{User: user, Err: err})
		}
	}
	result.Checked = len(recipients)
	return nil
}

type artifact struct {
	local       string
	contentType string
}

// upload puts the blob and the wrapped keys under bucket.upload_prefix.
func (p *project) upload(ctx context.Context, override BucketClient, result *PublishResult, log logger.Logger) error {
	client, err := p.bucketClient(ctx, override)
	if err != nil {
		return err
	}

	contentType := "text/plain; charset=utf-8"
	if opts, _ := p.config.EngineOptions(); opts.Encoding == envelope.EncodingRaw {
		contentType = "application/octet-stream"
	}

	files := []artifact{{result.Encrypt.OutputPath, contentType}}
	if result.Distribute != nil {
		files = append(files, artifact{result.Distribute.OutputPath, "application/json"})
	}

	for _, f := range files {
		data, err := os.ReadFile(f.local)
		if err != nil {
			return fmt.Errorf("reading %s for upload: %w", f.local, err)
		}
		key := path.Join(p.config.Bucket.UploadPrefix, filepath.Base(f.local))
		if err := client.Put(ctx, key, data, f.contentType); err != nil {
			return err
		}
		log.Infof("Uploaded %s to %s/%s", f.local, client.Bucket(), key)
		result.Uploaded = append(result.Uploaded, key)
	}
	return nil
}
