package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/keywrap"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Entry is one recipient. Family is kept as written so that an unknown
// family surfaces as that recipient's wrap failure rather than a load error.
type Entry struct {
	Family    string `json:"family" yaml:"family" toml:"family"`
	PublicKey string `json:"public_key" yaml:"public_key" toml:"public_key"`
}

// Registry maps user ids to their public keys.
type Registry struct {
	Users map[string]Entry
}

// tomlFile is the on-disk TOML layout: one [users.<id>] table per user.
type tomlFile struct {
	Users map[string]Entry `toml:"users"`
}

type format int

const (
	formatJSON format = iota
	formatYAML
	formatTOML
)

func formatFor(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, fmt.Errorf("%w: unsupported registry extension %q (want .json, .yaml or .toml)", kerrors.ErrRegistryInvalid, filepath.Ext(path))
	}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{Users: make(map[string]Entry)}
}

// Load reads a registry from path. The format follows the file extension.
func Load(path string) (*Registry, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", kerrors.ErrRegistryInvalid, path)
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrRegistryInvalid, err)
	}

	r := New()
	switch f {
	case formatJSON:
		if len(bytes.TrimSpace(data)) > 0 {
			err = json.Unmarshal(data, &r.Users)
		}
	case formatYAML:
		err = yaml.Unmarshal(data, &r.Users)
	case formatTOML:
		var tf tomlFile
		_, err = toml.Decode(string(data), &tf)
		r.Users = tf.Users
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", kerrors.ErrRegistryInvalid, path, err)
	}
	if r.Users == nil {
		r.Users = make(map[string]Entry)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func (r *Registry) validate() error {
	for _, user := range r.Names() {
		if strings.TrimSpace(user) == "" {
			return fmt.Errorf("%w: empty user id", kerrors.ErrRegistryInvalid)
		}
	}
	return nil
}

// Names returns the user ids in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Users))
	for name := range r.Users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Recipients converts the registry into the form the distribution driver takes.
// Known family aliases are normalized; anything else is passed through untouched.
func (r *Registry) Recipients() map[string]keywrap.PublicKey {
	out := make(map[string]keywrap.PublicKey, len(r.Users))
	for user, e := range r.Users {
		family, err := keywrap.ParseFamily(e.Family)
		if err != nil {
			family = keywrap.Family(e.Family)
		}
		out[user] = keywrap.PublicKey{Family: family, Encoded: strings.TrimSpace(e.PublicKey)}
	}
	return out
}

// Get returns the entry for user.
func (r *Registry) Get(user string) (Entry, error) {
	e, ok := r.Users[user]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", kerrors.ErrUserNotFound, user)
	}
	return e, nil
}

// Add registers pub for user after checking that the key parses.
// An existing user is only replaced when overwrite is set.
func (r *Registry) Add(user string, pub keywrap.PublicKey, overwrite bool) error {
	user = strings.TrimSpace(user)
	if user == "" {
		return fmt.Errorf("%w: empty user id", kerrors.ErrRegistryInvalid)
	}
	if _, ok := r.Users[user]; ok && !overwrite {
		return fmt.Errorf("%w: %s", kerrors.ErrUserExists, user)
	}
	if err := keywrap.ValidatePublicKey(pub); err != nil {
		return err
	}
	r.Users[user] = Entry{Family: string(pub.Family), PublicKey: strings.TrimSpace(pub.Encoded)}
	return nil
}

// Remove deletes user from the registry.
func (r *Registry) Remove(user string) error {
	if _, ok := r.Users[user]; !ok {
		return fmt.Errorf("%w: %s", kerrors.ErrUserNotFound, user)
	}
	delete(r.Users, user)
	return nil
}

// Save writes the registry to path in the format its extension names.
func (r *Registry) Save(path string) error {
	f, err := formatFor(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch f {
	case formatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(r.Users)
	case formatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		err = enc.Encode(r.Users)
		if err == nil {
			err = enc.Close()
		}
	case formatTOML:
		err = toml.NewEncoder(&buf).Encode(tomlFile{Users: r.Users})
	}
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}
