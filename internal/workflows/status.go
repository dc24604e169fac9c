package workflows

import (
	"context"
	"os"
	"time"

	"github.com/QB2027/WebFileBrowser/internal/distribute"
	"github.com/QB2027/WebFileBrowser/internal/keywrap"
)

// RecipientState describes a recipient relative to the current artifacts.
type RecipientState string

const (
	// StateCurrent means the user has a wrapped key from the latest encryption.
	StateCurrent RecipientState = "current"
	// StateStale means the user's wrapped key predates the encrypted manifest.
	StateStale RecipientState = "stale"
	// StateMissing means the wrapped-key file has no entry for the user.
	StateMissing RecipientState = "missing"
	// StateInvalid means the registered public key does not parse.
	StateInvalid RecipientState = "invalid"
)

// RecipientStatus is one registry entry.
type RecipientStatus struct {
	User    string
	Family  string
	State   RecipientState
	Problem string
}

// ArtifactStatus is one output file.
type ArtifactStatus struct {
	Name    string
	Path    string
	Exists  bool
	ModTime time.Time
}

// StatusOptions configures the status workflow.
type StatusOptions struct {
	ProjectDir string
}

// StatusResult contains the project overview.
type StatusResult struct {
	ProjectName string
	ProjectRoot string
	Source      string
	Bucket      string
	KeySource   string
	Mode        string
	Registry    string
	Recipients  []RecipientStatus
	Artifacts   []ArtifactStatus
}

// Status reports every registered recipient, whether each holds a wrapped
// key for the current encrypted manifest, and when the artifacts were written.
//
// Returns ErrProjectNotInitialized if there is no .wfb directory.
// Returns ErrRegistryInvalid if the registry cannot be read.
func Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	cfg := p.config

	name := cfg.Project.Name
	if name == "" {
		name = p.settings.Name
	}
	result := &StatusResult{
		ProjectName: name,
		ProjectRoot: p.settings.Root,
		Source:      cfg.Source.Kind,
		Bucket:      cfg.Bucket.Name,
		KeySource:   cfg.Encryption.KeySource,
		Mode:        cfg.Encryption.Mode,
		Registry:    p.registryPath(),
	}

	for _, a := range []struct{ name, path string }{
		{"manifest", p.path(cfg.Output.Manifest)},
		{"encrypted", p.path(cfg.Output.Encrypted)},
		{"wrapped_keys", p.path(cfg.Output.WrappedKeys)},
	} {
		st := ArtifactStatus{Name: a.name, Path: a.path}
		if info, err := os.Stat(a.path); err == nil {
			st.Exists = true
			st.ModTime = info.ModTime()
		}
		result.Artifacts = append(result.Artifacts, st)
	}
	blob, keys := result.Artifacts[1], result.Artifacts[2]

	reg, err := p.loadRegistry()
	if err != nil {
		return nil, err
	}

	wrapped := map[string]string{}
	if keys.Exists {
		if wrapped, err = distribute.ReadWrappedKeys(keys.Path); err != nil {
			return nil, err
		}
	}
	stale := blob.Exists && keys.Exists && keys.ModTime.Before(blob.ModTime)

	recipients := reg.Recipients()
	for _, user := range reg.Names() {
		st := RecipientStatus{User: user, Family: reg.Users[user].Family}
		_, hasKey := wrapped[user]
		switch err := keywrap.ValidatePublicKey(recipients[user]); {
		case err != nil:
			st.State, st.Problem = StateInvalid, err.Error()
		case !hasKey:
			st.State = StateMissing
		case stale:
			st.State = StateStale
		default:
			st.State = StateCurrent
		}
		result.Recipients = append(result.Recipients, st)
	}

	return result, nil
}
