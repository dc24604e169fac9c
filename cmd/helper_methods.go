package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/QB2027/WebFileBrowser/internal/configs"
	"github.com/QB2027/WebFileBrowser/internal/distribute"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/utils"
	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// spinner.FinalMSG values do not need trailing newlines. The cleanup function
// calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Cleared so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		// Printed to stdout so tests can capture it.
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// loadProjectConfig loads the configuration of the project containing the
// working directory, with environment overrides applied.
func loadProjectConfig() (*configs.ProjectSettings, *configs.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting working directory: %w", err)
	}
	settings, err := configs.FindProjectSettings(wd)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := settings.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return settings, cfg, nil
}

// resolvePassword returns the manifest password from the configured
// environment variable, prompting on the terminal when it is unset.
// It returns "" without error when the project does not use password mode
// and required is false.
func resolvePassword(required bool) (string, error) {
	_, cfg, err := loadProjectConfig()
	if err != nil {
		return "", err
	}
	if !required && cfg.Encryption.KeySource != configs.KeySourcePassword {
		return "", nil
	}

	if pw := os.Getenv(cfg.Encryption.PasswordEnv); pw != "" {
		Logger.Debugf("Using password from %s", cfg.Encryption.PasswordEnv)
		return pw, nil
	}
	if !utils.IsTerminal() {
		return "", fmt.Errorf("%w: set %s or run in a terminal to be prompted", kerrors.ErrMissingSetting, cfg.Encryption.PasswordEnv)
	}
	pw, err := utils.ReadPassphrase("Manifest password: ")
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// formatFailures lists recipients that did not receive the key.
func formatFailures(failures []distribute.Failure) string {
	lines := make([]string, 0, len(failures))
	for _, f := range failures {
		lines = append(lines, ui.Highlight.Sprint(f.User)+" "+ui.Muted.Sprint(f.Err.Error()))
	}
	return "\n" + strings.TrimRight(ui.Bullets(lines, ui.Plain), "\n")
}

// distributionMessage summarizes a distribution for the final spinner message.
func distributionMessage(r *distribute.Result, outputPath string, written bool) string {
	succeeded := len(r.Wrapped)
	total := succeeded + len(r.Failures)

	var msg string
	switch r.Outcome() {
	case distribute.OutcomeAll:
		msg = ui.Success.Sprint("✓") + fmt.Sprintf(" Key wrapped for all %s", utils.Plural(total, "recipient"))
	case distribute.OutcomePartial:
		msg = ui.Warning.Sprint("⚠") + fmt.Sprintf(" Key wrapped for %d of %s; these users did not get it:", succeeded, utils.Plural(total, "recipient")) +
			formatFailures(r.Failures)
	default:
		msg = ui.Error.Sprint("✗") + " Key could not be wrapped for any recipient:" + formatFailures(r.Failures)
	}
	if written {
		msg += "\n" + ui.Info.Sprint("→") + " Wrapped keys written to " + ui.Path.Sprint(outputPath)
	}
	return msg
}
