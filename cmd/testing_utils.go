// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up test projects,
// capturing output, and running the CLI in-process.
package cmd

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"testing"

	logger "github.com/QB2027/WebFileBrowser/internal/logging"
	"github.com/spf13/cobra"
)

// setupTestEnvironment moves into a fresh temporary project directory and
// points user-level paths at a temporary home.
func setupTestEnvironment(t *testing.T) string {
	t.Helper()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get original working directory: %v", err)
	}
	tempDir := t.TempDir()
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		ResetGlobalState()
	})

	t.Setenv("WFB_USER", "testuser")
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	return tempDir
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)

	for _, r := range []io.Reader{stdoutReader, stderrReader} {
		go func(r io.Reader) {
			var buf bytes.Buffer
			if _, err := io.Copy(&buf, r); err != nil {
				log.Fatalf("Failed to run copy command: %s", err)
			}
			outputChan <- buf.String()
		}(r)
	}

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	first := <-outputChan
	second := <-outputChan

	return first + second, err
}

// createTestCLI creates a root command wired like the wfb binary.
func createTestCLI(verboseFlag, debugFlag bool) *cobra.Command {
	ResetGlobalState()
	verbose = verboseFlag
	debug = debugFlag
	Logger = logger.Logger{Verbose: verbose, Debug: debug}

	rootCmd := &cobra.Command{Use: "wfb"}
	AddCommands(rootCmd)
	return rootCmd
}

// runCLI runs wfb with args and returns the combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureOutput(func() error {
		root := createTestCLI(false, false)
		root.SetArgs(args)
		return root.Execute()
	})
}

// exitCode reports the process exit code err would produce.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFatal
}
