package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/QB2027/WebFileBrowser/internal/registry"
)

// setupLocalProject initializes a project that lists the local site/ directory.
func setupLocalProject(t *testing.T) string {
	t.Helper()
	dir := setupTestEnvironment(t)
	t.Setenv("WFB_SOURCE_KIND", "local")
	t.Setenv("WFB_SOURCE_ROOT", "site")

	if err := os.MkdirAll(filepath.Join(dir, "site", "week1"), 0755); err != nil {
		t.Fatalf("Failed to create site: %v", err)
	}
	for _, f := range []string{"site/syllabus.pdf", "site/week1/slides.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", f, err)
		}
	}

	output, err := runCLI(t, "init", "--name", "course")
	if err != nil {
		t.Fatalf("init failed: %v\n%s", err, output)
	}
	return dir
}

func TestInitCommand(t *testing.T) {
	dir := setupTestEnvironment(t)

	output, err := runCLI(t, "init")
	if err != nil {
		t.Fatalf("init failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "wfb initialized") {
		t.Errorf("Expected success message, got: %s", output)
	}
	for _, p := range []string{".wfb/config.toml", ".wfb/users.json"} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Errorf("Expected %s to exist: %v", p, err)
		}
	}

	output, err = runCLI(t, "init")
	if exitCode(err) != ExitFatal {
		t.Errorf("Expected exit %d on second init, got %d", ExitFatal, exitCode(err))
	}
	if !strings.Contains(output, "already initialized") {
		t.Errorf("Expected already-initialized message, got: %s", output)
	}
}

func TestCommandsRequireProject(t *testing.T) {
	setupTestEnvironment(t)

	for _, args := range [][]string{{"status"}, {"publish"}, {"keys", "list"}, {"config", "show"}} {
		output, err := runCLI(t, args...)
		if exitCode(err) != ExitFatal {
			t.Errorf("%v: expected exit %d, got %d", args, ExitFatal, exitCode(err))
		}
		if !strings.Contains(output, "wfb init") {
			t.Errorf("%v: expected init hint, got: %s", args, output)
		}
	}
}

func TestPublishExitCodes(t *testing.T) {
	dir := setupLocalProject(t)
	keyPath := filepath.Join(t.TempDir(), "alice.key")

	output, err := runCLI(t, "keys", "generate", "-u", "alice", "-f", "sealedbox", "-o", keyPath, "--register")
	if err != nil {
		t.Fatalf("keys generate failed: %v\n%s", err, output)
	}

	output, err = runCLI(t, "publish")
	if exitCode(err) != ExitOK {
		t.Fatalf("Expected exit 0 with one good recipient, got %d: %s", exitCode(err), output)
	}
	if !strings.Contains(output, "all 1 recipient") {
		t.Errorf("Expected distribution summary, got: %s", output)
	}

	regPath := filepath.Join(dir, ".wfb", "users.json")
	reg, err := registry.Load(regPath)
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}
	reg.Users["bob"] = registry.Entry{Family: "rsa", PublicKey: "not a key"}
	if err := reg.Save(regPath); err != nil {
		t.Fatalf("Failed to save registry: %v", err)
	}

	output, err = runCLI(t, "publish")
	if exitCode(err) != ExitPartial {
		t.Fatalf("Expected exit %d with one bad recipient, got %d: %s", ExitPartial, exitCode(err), output)
	}
	if !strings.Contains(output, "bob") {
		t.Errorf("Expected bob to be reported, got: %s", output)
	}

	output, err = runCLI(t, "publish", "--dry-run")
	if exitCode(err) != ExitPartial {
		t.Errorf("Expected dry run to report partial, got %d: %s", exitCode(err), output)
	}
	if !strings.Contains(output, "Dry run: 1 of 2") {
		t.Errorf("Expected dry-run summary, got: %s", output)
	}

	if err := reg.Remove("alice"); err != nil {
		t.Fatalf("Failed to remove alice: %v", err)
	}
	if err := reg.Save(regPath); err != nil {
		t.Fatalf("Failed to save registry: %v", err)
	}
	output, err = runCLI(t, "publish")
	if exitCode(err) != ExitNone {
		t.Errorf("Expected exit %d with no usable recipient, got %d: %s", ExitNone, exitCode(err), output)
	}
}

func TestDecryptCommand(t *testing.T) {
	setupLocalProject(t)
	keyPath := filepath.Join(t.TempDir(), "alice.key")

	if output, err := runCLI(t, "keys", "generate", "-u", "alice", "-f", "ecies", "-o", keyPath, "--register"); err != nil {
		t.Fatalf("keys generate failed: %v\n%s", err, output)
	}
	if output, err := runCLI(t, "publish"); err != nil {
		t.Fatalf("publish failed: %v\n%s", err, output)
	}

	output, err := runCLI(t, "manifest", "decrypt", "--user", "alice", "--key", keyPath)
	if err != nil {
		t.Fatalf("decrypt failed: %v\n%s", err, output)
	}
	for _, want := range []string{"syllabus.pdf", "week1", "slides.pdf"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in decrypted manifest, got: %s", want, output)
		}
	}

	output, err = runCLI(t, "manifest", "decrypt", "--user", "carol", "--key", keyPath)
	if exitCode(err) != ExitFatal || !strings.Contains(output, "carol") {
		t.Errorf("Expected failure for an unknown user, got %d: %s", exitCode(err), output)
	}

	output, err = runCLI(t, "manifest", "decrypt")
	if exitCode(err) != ExitFatal || !strings.Contains(output, "--key") {
		t.Errorf("Expected a hint to pass --key, got %d: %s", exitCode(err), output)
	}
}

func TestKeysAddListRemove(t *testing.T) {
	setupLocalProject(t)
	keyPath := filepath.Join(t.TempDir(), "bob.key")

	if output, err := runCLI(t, "keys", "generate", "-u", "bob", "-f", "sealedbox", "-o", keyPath); err != nil {
		t.Fatalf("keys generate failed: %v\n%s", err, output)
	}

	output, err := runCLI(t, "keys", "add", "bob", "-f", "x25519", "-k", keyPath+".pub")
	if err != nil {
		t.Fatalf("keys add failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Registered") {
		t.Errorf("Expected registration message, got: %s", output)
	}

	output, err = runCLI(t, "keys", "add", "bob", "-f", "sealedbox", "-k", keyPath+".pub")
	if exitCode(err) != ExitFatal || !strings.Contains(output, "--force") {
		t.Errorf("Expected duplicate to fail with a --force hint, got %d: %s", exitCode(err), output)
	}

	output, err = runCLI(t, "keys", "list")
	if err != nil {
		t.Fatalf("keys list failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "bob") || !strings.Contains(output, "missing") {
		t.Errorf("Expected bob without a wrapped key, got: %s", output)
	}

	if output, err := runCLI(t, "keys", "remove", "bob"); err != nil {
		t.Fatalf("keys remove failed: %v\n%s", err, output)
	}
	output, err = runCLI(t, "keys", "list")
	if err != nil || !strings.Contains(output, "No recipients") {
		t.Errorf("Expected empty registry, got: %v %s", err, output)
	}
}

func TestLogCommand(t *testing.T) {
	setupLocalProject(t)

	output, err := runCLI(t, "log", "--operation", "init")
	if err != nil {
		t.Fatalf("log failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "init") || !strings.Contains(output, "testuser") {
		t.Errorf("Expected the init entry, got: %s", output)
	}

	output, err = runCLI(t, "log", "--since", "yesterday")
	if exitCode(err) != ExitFatal || !strings.Contains(output, "YYYY-MM-DD") {
		t.Errorf("Expected a date format error, got %d: %s", exitCode(err), output)
	}
}

func TestConfigShowAppliesOverrides(t *testing.T) {
	setupLocalProject(t)

	output, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, `kind = "local"`) || !strings.Contains(output, "encryption_iterations = 100000") {
		t.Errorf("Expected effective configuration, got: %s", output)
	}
}
