package workflows

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/QB2027/WebFileBrowser/internal/audit"
	"github.com/QB2027/WebFileBrowser/internal/configs"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/keywrap"
	logger "github.com/QB2027/WebFileBrowser/internal/logging"
	"github.com/QB2027/WebFileBrowser/internal/registry"
	"github.com/QB2027/WebFileBrowser/internal/utils"
)

// GenerateKeysOptions configures the key generation workflow.
type GenerateKeysOptions struct {
	ProjectDir string

	// User is the registry id for the new key. Defaults to the current user.
	User string

	Family keywrap.Family

	// OutputPath overrides where the private key is written.
	OutputPath string

	// Register adds the public key to the project registry.
	Register bool

	// Force replaces an existing registry entry and private key file.
	Force bool

	Logger logger.Logger
}

// GenerateKeysResult contains the outcome of key generation.
type GenerateKeysResult struct {
	User           string
	Family         keywrap.Family
	PublicKey      string
	PrivateKeyPath string
	PublicKeyPath  string
	Registered     bool
}

// GenerateKeys creates a key pair, stores the private half with mode 0600
// under the user's key directory, and optionally registers the public half.
//
// Returns ErrUnknownKeyFamily for an unsupported family.
// Returns ErrUserExists if the user is registered or the key file exists and Force is not set.
func GenerateKeys(ctx context.Context, opts GenerateKeysOptions) (*GenerateKeysResult, error) {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	family, err := keywrap.ParseFamily(string(opts.Family))
	if err != nil {
		return nil, err
	}
	user, err := userOrDefault(opts.User)
	if err != nil {
		return nil, err
	}

	var reg *registry.Registry
	if opts.Register {
		reg, err = p.loadRegistry()
		if err != nil {
			return nil, err
		}
		if _, err := reg.Get(user); err == nil && !opts.Force {
			return nil, fmt.Errorf("%w: %s (use --force to replace)", kerrors.ErrUserExists, user)
		}
	}

	privPath := opts.OutputPath
	if privPath == "" {
		settings, err := configs.LoadUserSettings()
		if err != nil {
			return nil, err
		}
		privPath = filepath.Join(settings.KeysPath, p.keyDirName(), fmt.Sprintf("%s.%s.key", user, family))
	}
	if utils.FileExists(privPath) && !opts.Force {
		return nil, fmt.Errorf("%w: private key %s already exists (use --force to replace)", kerrors.ErrUserExists, privPath)
	}

	pair, err := keywrap.GenerateKeyPair(family)
	if err != nil {
		return nil, err
	}

	if err := utils.WriteFileAtomic(privPath, []byte(pair.Private+"\n"), 0600); err != nil {
		return nil, err
	}
	pubPath := privPath + ".pub"
	if err := utils.WriteFileAtomic(pubPath, []byte(pair.Public+"\n"), 0644); err != nil {
		return nil, err
	}
	opts.Logger.Infof("Wrote %s key pair to %s", pair.Family, privPath)

	result := &GenerateKeysResult{
		User:           user,
		Family:         pair.Family,
		PublicKey:      pair.Public,
		PrivateKeyPath: privPath,
		PublicKeyPath:  pubPath,
	}

	if reg != nil {
		if err := reg.Add(user, keywrap.PublicKey{Family: pair.Family, Encoded: pair.Public}, opts.Force); err != nil {
			return nil, err
		}
		if err := reg.Save(p.registryPath()); err != nil {
			return nil, err
		}
		result.Registered = true
	}

	entry := audit.NewEntry("keygen")
	entry.TargetUser = user
	entry.Family = string(pair.Family)
	entry.Artifacts = []string{pubPath}
	audit.Log(p.settings.AuditPath, entry)

	return result, nil
}

// keyDirName separates keys of different projects for the same user.
func (p *project) keyDirName() string {
	if p.config.Project.UUID != "" {
		return p.config.Project.UUID
	}
	return p.settings.Name
}

// AddRecipientOptions configures adding a recipient to the registry.
type AddRecipientOptions struct {
	ProjectDir string
	User       string

	// Family is parsed with keywrap.ParseFamily, so aliases are accepted.
	Family    string
	PublicKey string
	Force     bool
}

// AddRecipientResult contains the outcome of adding a recipient.
type AddRecipientResult struct {
	User     string
	Family   keywrap.Family
	Replaced bool
}

// AddRecipient registers a public key after checking that it parses.
//
// Returns ErrUnknownKeyFamily, ErrInvalidPublicKey, or ErrUserExists when
// the user is already registered and Force is not set.
func AddRecipient(ctx context.Context, opts AddRecipientOptions) (*AddRecipientResult, error) {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	family, err := keywrap.ParseFamily(opts.Family)
	if err != nil {
		return nil, err
	}

	reg, err := p.loadRegistry()
	if err != nil {
		return nil, err
	}
	_, getErr := reg.Get(opts.User)
	replaced := getErr == nil

	if err := reg.Add(opts.User, keywrap.PublicKey{Family: family, Encoded: opts.PublicKey}, opts.Force); err != nil {
		return nil, err
	}
	if err := reg.Save(p.registryPath()); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("add")
	entry.TargetUser = opts.User
	entry.Family = string(family)
	audit.Log(p.settings.AuditPath, entry)

	return &AddRecipientResult{User: opts.User, Family: family, Replaced: replaced}, nil
}

// RemoveRecipientOptions configures removing a recipient.
type RemoveRecipientOptions struct {
	ProjectDir string
	User       string
}

// RemoveRecipient deletes a user from the registry. Copies of the key the
// user already holds stay valid; the next publish uses a key they never see.
//
// Returns ErrUserNotFound if the user is not registered.
func RemoveRecipient(ctx context.Context, opts RemoveRecipientOptions) error {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return err
	}
	reg, err := p.loadRegistry()
	if err != nil {
		return err
	}
	if err := reg.Remove(opts.User); err != nil {
		return err
	}
	if err := reg.Save(p.registryPath()); err != nil {
		return err
	}

	entry := audit.NewEntry("remove")
	entry.TargetUser = opts.User
	audit.Log(p.settings.AuditPath, entry)
	return nil
}

func userOrDefault(user string) (string, error) {
	if user != "" {
		return user, nil
	}
	name, err := utils.GetUsername()
	if err != nil {
		return "", fmt.Errorf("getting username: %w", err)
	}
	if name == "" {
		return "", errors.New("could not determine the current user; pass --user")
	}
	return name, nil
}
