package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/QB2027/WebFileBrowser/internal/bucket"
	"github.com/QB2027/WebFileBrowser/internal/configs"
	"github.com/QB2027/WebFileBrowser/internal/manifest"
	"github.com/QB2027/WebFileBrowser/internal/registry"
)

// BucketClient is the part of bucket.Client the workflows use.
type BucketClient interface {
	Bucket() string
	Objects(ctx context.Context, prefix string) ([]manifest.Object, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// project is a located, loaded and validated project.
type project struct {
	settings *configs.ProjectSettings
	config   *configs.Config
}

// openProject finds the project containing dir (the working directory when
// empty) and loads its configuration.
func openProject(dir string) (*project, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}

	settings, err := configs.FindProjectSettings(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := settings.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &project{settings: settings, config: cfg}, nil
}

func (p *project) path(rel string) string {
	return p.settings.Resolve(rel)
}

func (p *project) registryPath() string {
	return p.path(p.config.Recipients.Registry)
}

func (p *project) loadRegistry() (*registry.Registry, error) {
	return registry.Load(p.registryPath())
}

// bucketClient returns override when set, otherwise a client for the configured bucket.
func (p *project) bucketClient(ctx context.Context, override BucketClient) (BucketClient, error) {
	if override != nil {
		return override, nil
	}

	id, secret, err := p.config.BucketCredentials(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	b := p.config.Bucket
	return bucket.NewClient(ctx, bucket.Options{
		Name:            b.Name,
		Region:          b.Region,
		Endpoint:        b.Endpoint,
		PathStyle:       b.PathStyle,
		URLExpiry:       p.config.URLExpiry(),
		AccessKeyID:     id,
		SecretAccessKey: secret,
	})
}
