package workflows

import (
	"context"
	"fmt"

	"github.com/QB2027/WebFileBrowser/internal/audit"
	"github.com/QB2027/WebFileBrowser/internal/configs"
	logger "github.com/QB2027/WebFileBrowser/internal/logging"
	"github.com/QB2027/WebFileBrowser/internal/manifest"
	"github.com/QB2027/WebFileBrowser/internal/utils"
)

// BuildOptions configures the manifest build workflow.
type BuildOptions struct {
	// ProjectDir is where to start looking for .wfb. Defaults to the working directory.
	ProjectDir string

	// Write saves the plaintext manifest to output.manifest.
	Write bool

	// Bucket replaces the configured S3 client.
	Bucket BucketClient

	Logger logger.Logger
}

// BuildResult contains the outcome of a manifest build.
type BuildResult struct {
	Nodes []*manifest.Node

	// Data is the serialized manifest.
	Data []byte

	Files int
	Dirs  int

	// Source is the bucket name or the scanned directory.
	Source string

	// OutputPath is where the plaintext was written, if it was.
	OutputPath string
}

// BuildManifest produces the file tree from the configured source.
//
// A bucket source lists source prefix objects and signs a URL for each file;
// a local source walks source.root and joins paths onto source.url_prefix.
//
// Returns ErrProjectNotInitialized if there is no .wfb directory.
// Returns ErrBucketNotFound or ErrBucketAccessDenied for bucket failures.
func BuildManifest(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	result, err := p.buildManifest(ctx, opts)
	if err != nil {
		return nil, err
	}

	entry := audit.NewEntry("build")
	entry.Source = result.Source
	entry.Files = result.Files
	if result.OutputPath != "" {
		entry.Artifacts = []string{result.OutputPath}
	}
	audit.Log(p.settings.AuditPath, entry)

	return result, nil
}

func (p *project) buildManifest(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	cfg := p.config
	scan := manifest.ScanOptions{
		ExcludeDirs:  cfg.Source.ExcludeDirs,
		ExcludeFiles: cfg.Source.ExcludeFiles,
		URLPrefix:    cfg.Source.URLPrefix,
		Logger:       opts.Logger,
	}

	result := &BuildResult{}
	switch cfg.Source.Kind {
	case configs.SourceLocal:
		root := p.path(cfg.Source.Root)
		opts.Logger.Infof("Scanning %s", root)
		nodes, err := manifest.ScanDirectory(root, scan)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		result.Nodes, result.Source = nodes, root

	default:
		client, err := p.bucketClient(ctx, opts.Bucket)
		if err != nil {
			return nil, err
		}
		opts.Logger.Infof("Listing bucket %s", client.Bucket())
		objects, err := client.Objects(ctx, cfg.Bucket.Prefix)
		if err != nil {
			return nil, err
		}
		opts.Logger.Debugf("Listed %d objects", len(objects))

		scan.StripPrefix = cfg.Bucket.Prefix
		nodes, err := manifest.BuildTree(objects, scan)
		if err != nil {
			return nil, err
		}
		result.Nodes, result.Source = nodes, client.Bucket()
	}

	result.Files, result.Dirs = manifest.Count(result.Nodes)
	data, err := manifest.Marshal(result.Nodes, true)
	if err != nil {
		return nil, fmt.Errorf("serializing manifest: %w", err)
	}
	result.Data = data

	if opts.Write {
		if err := p.writeManifest(result, opts.Logger); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// writeManifest stores the plaintext manifest with owner-only permissions.
func (p *project) writeManifest(result *BuildResult, log logger.Logger) error {
	out := p.path(p.config.Output.Manifest)
	if err := utils.WriteFileAtomic(out, append(result.Data, '\n'), 0600); err != nil {
		return err
	}
	result.OutputPath = out
	log.Infof("Wrote plaintext manifest to %s", out)
	return nil
}
