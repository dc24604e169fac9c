package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/keywrap"
	"github.com/QB2027/WebFileBrowser/internal/manifest"
	"github.com/QB2027/WebFileBrowser/internal/registry"
)

func TestGenerateKeysRegistersUser(t *testing.T) {
	dir := setupProject(t, nil)
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	res, err := GenerateKeys(context.Background(), GenerateKeysOptions{
		ProjectDir: dir,
		User:       "alice",
		Family:     "x25519",
		Register:   true,
	})
	if err != nil {
		t.Fatalf("GenerateKeys failed: %v", err)
	}
	if res.Family != keywrap.FamilySealedBox || !res.Registered {
		t.Errorf("unexpected result: %+v", res)
	}
	if !strings.HasSuffix(res.PrivateKeyPath, "alice.sealedbox.key") {
		t.Errorf("private key path = %s", res.PrivateKeyPath)
	}

	info, err := os.Stat(res.PrivateKeyPath)
	if err != nil {
		t.Fatalf("private key not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
	}

	reg, err := registry.Load(filepath.Join(dir, ".wfb", "users.json"))
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}
	entry, err := reg.Get("alice")
	if err != nil || entry.PublicKey != res.PublicKey {
		t.Errorf("registry entry = %+v, %v", entry, err)
	}

	_, err = GenerateKeys(context.Background(), GenerateKeysOptions{ProjectDir: dir, User: "alice", Family: "sealedbox", Register: true})
	if !errors.Is(err, kerrors.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}

	forced, err := GenerateKeys(context.Background(), GenerateKeysOptions{ProjectDir: dir, User: "alice", Family: "sealedbox", Register: true, Force: true})
	if err != nil {
		t.Fatalf("forced GenerateKeys failed: %v", err)
	}
	if forced.PublicKey == res.PublicKey {
		t.Errorf("forced generation should produce a new key")
	}
}

func TestGenerateKeysDefaultsToCurrentUser(t *testing.T) {
	dir := setupProject(t, nil)
	out := filepath.Join(t.TempDir(), "me.key")

	res, err := GenerateKeys(context.Background(), GenerateKeysOptions{ProjectDir: dir, Family: "ecies", OutputPath: out})
	if err != nil {
		t.Fatalf("GenerateKeys failed: %v", err)
	}
	if res.User != "tester" || res.Registered {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.PublicKeyPath != out+".pub" {
		t.Errorf("public key path = %s", res.PublicKeyPath)
	}

	_, err = GenerateKeys(context.Background(), GenerateKeysOptions{ProjectDir: dir, Family: "ecies", OutputPath: out})
	if !errors.Is(err, kerrors.ErrUserExists) {
		t.Errorf("existing key file should not be overwritten, got %v", err)
	}

	_, err = GenerateKeys(context.Background(), GenerateKeysOptions{ProjectDir: dir, Family: "dsa", OutputPath: filepath.Join(t.TempDir(), "k")})
	if !errors.Is(err, kerrors.ErrUnknownKeyFamily) {
		t.Errorf("expected ErrUnknownKeyFamily, got %v", err)
	}
}

func TestAddAndRemoveRecipient(t *testing.T) {
	dir := setupProject(t, nil)
	pair := mustPair(t, keywrap.FamilyRSA)

	res, err := AddRecipient(context.Background(), AddRecipientOptions{ProjectDir: dir, User: "bob", Family: "rsa-oaep", PublicKey: pair.Public})
	if err != nil {
		t.Fatalf("AddRecipient failed: %v", err)
	}
	if res.Family != keywrap.FamilyRSA || res.Replaced {
		t.Errorf("unexpected result: %+v", res)
	}

	_, err = AddRecipient(context.Background(), AddRecipientOptions{ProjectDir: dir, User: "bob", Family: "rsa", PublicKey: pair.Public})
	if !errors.Is(err, kerrors.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
	res, err = AddRecipient(context.Background(), AddRecipientOptions{ProjectDir: dir, User: "bob", Family: "rsa", PublicKey: pair.Public, Force: true})
	if err != nil || !res.Replaced {
		t.Errorf("forced add = %+v, %v", res, err)
	}

	_, err = AddRecipient(context.Background(), AddRecipientOptions{ProjectDir: dir, User: "eve", Family: "rsa", PublicKey: "not a pem"})
	if !errors.Is(err, kerrors.ErrInvalidPublicKey) {
		t.Errorf("expected ErrInvalidPublicKey, got %v", err)
	}

	if err := RemoveRecipient(context.Background(), RemoveRecipientOptions{ProjectDir: dir, User: "bob"}); err != nil {
		t.Fatalf("RemoveRecipient failed: %v", err)
	}
	err = RemoveRecipient(context.Background(), RemoveRecipientOptions{ProjectDir: dir, User: "bob"})
	if !errors.Is(err, kerrors.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStatusReportsRecipientStates(t *testing.T) {
	dir := setupProject(t, nil)
	writeRegistry(t, dir,
		map[string]keywrap.Family{"alice": keywrap.FamilySealedBox},
		map[string]registry.Entry{"bob": {Family: "rsa", PublicKey: "garbage"}},
	)

	st, err := Status(context.Background(), StatusOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if got := states(st); got["alice"] != StateMissing || got["bob"] != StateInvalid {
		t.Errorf("before publish: %v", got)
	}
	for _, a := range st.Artifacts {
		if a.Exists {
			t.Errorf("%s should not exist yet", a.Name)
		}
	}

	bucket := &fakeBucket{objects: []manifest.Object{{Key: "a.txt", URL: "u"}}}
	if _, err := Publish(context.Background(), PublishOptions{ProjectDir: dir, Bucket: bucket, Logger: quietLogger()}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	st, err = Status(context.Background(), StatusOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if got := states(st); got["alice"] != StateCurrent || got["bob"] != StateInvalid {
		t.Errorf("after publish: %v", got)
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "files.json.enc"), later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	st, err = Status(context.Background(), StatusOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if got := states(st); got["alice"] != StateStale {
		t.Errorf("re-encrypted manifest: %v", got)
	}
}

func states(st *StatusResult) map[string]RecipientState {
	out := map[string]RecipientState{}
	for _, r := range st.Recipients {
		out[r.User] = r.State
	}
	return out
}

func TestLogFilters(t *testing.T) {
	dir := setupProject(t, nil)
	writeRegistry(t, dir,
		map[string]keywrap.Family{"alice": keywrap.FamilySealedBox},
		map[string]registry.Entry{"bob": {Family: "rsa", PublicKey: "garbage"}},
	)
	bucket := &fakeBucket{objects: []manifest.Object{{Key: "a.txt", URL: "u"}}}
	if _, err := Publish(context.Background(), PublishOptions{ProjectDir: dir, Bucket: bucket, Logger: quietLogger()}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := RemoveRecipient(context.Background(), RemoveRecipientOptions{ProjectDir: dir, User: "bob"}); err != nil {
		t.Fatalf("RemoveRecipient failed: %v", err)
	}

	all, err := Log(context.Background(), LogOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if all.Total != 3 || len(all.Entries) != 3 {
		t.Fatalf("expected init, publish and remove; got %d entries", len(all.Entries))
	}
	if all.Entries[0].Operation != "init" {
		t.Errorf("first entry = %s, want init", all.Entries[0].Operation)
	}

	failures, err := Log(context.Background(), LogOptions{ProjectDir: dir, FailuresOnly: true})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(failures.Entries) != 1 || failures.Entries[0].Operation != "publish" {
		t.Fatalf("failures = %+v", failures.Entries)
	}
	pub := failures.Entries[0]
	if pub.Outcome != "partial" || pub.Succeeded != 1 || pub.Failed != 1 {
		t.Errorf("publish entry = %+v", pub)
	}

	byTarget, err := Log(context.Background(), LogOptions{ProjectDir: dir, User: "bob"})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(byTarget.Entries) != 1 || byTarget.Entries[0].Operation != "remove" {
		t.Errorf("user filter = %+v", byTarget.Entries)
	}

	latest, err := Log(context.Background(), LogOptions{ProjectDir: dir, Reverse: true, Limit: 1, Operations: "remove,publish"})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(latest.Entries) != 1 || latest.Entries[0].Operation != "remove" {
		t.Errorf("reverse limit = %+v", latest.Entries)
	}

	_, err = Log(context.Background(), LogOptions{ProjectDir: dir, Since: "19/10/2026"})
	if !errors.Is(err, kerrors.ErrInvalidDateFormat) {
		t.Errorf("expected ErrInvalidDateFormat, got %v", err)
	}

	if err := os.Remove(filepath.Join(dir, ".wfb", "audit.jsonl")); err != nil {
		t.Fatalf("Failed to remove audit log: %v", err)
	}
	_, err = Log(context.Background(), LogOptions{ProjectDir: dir})
	if !errors.Is(err, kerrors.ErrNoFilesFound) {
		t.Errorf("expected ErrNoFilesFound, got %v", err)
	}
}
