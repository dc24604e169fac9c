package cmd

import (
	"errors"
	"fmt"

	"github.com/QB2027/WebFileBrowser/internal/distribute"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/ui"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFatal   = 1
	ExitPartial = 3
	ExitNone    = 4
)

// ExitError carries the exit code of a command whose message has already
// been printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitForOutcome maps a distribution outcome to the command result.
func exitForOutcome(o distribute.Outcome) error {
	switch o {
	case distribute.OutcomePartial:
		return &ExitError{Code: ExitPartial, Err: kerrors.ErrPartialDistribution}
	case distribute.OutcomeNone:
		return &ExitError{Code: ExitNone, Err: kerrors.ErrDistributionFailed}
	default:
		return nil
	}
}

func fatal(err error) error {
	return &ExitError{Code: ExitFatal, Err: err}
}

// formatError renders err with a hint for the conditions a user can fix.
func formatError(err error) string {
	msg := ui.Error.Sprint("✗") + " " + err.Error()

	switch {
	case errors.Is(err, kerrors.ErrProjectNotInitialized):
		return ui.Error.Sprint("✗") + " wfb has not been initialized\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("wfb init") + " first"

	case errors.Is(err, kerrors.ErrProjectAlreadyInitialized):
		return ui.Error.Sprint("✗") + " wfb is already initialized in this project\n" +
			ui.Info.Sprint("→") + " Edit " + ui.Path.Sprint(".wfb/config.toml") + " to change settings"

	case errors.Is(err, kerrors.ErrMissingCredentials):
		return msg + "\n" + ui.Info.Sprint("→") + " Set both variables named by " +
			ui.Path.Sprint("bucket.access_key_env") + " and " + ui.Path.Sprint("bucket.secret_key_env")

	case errors.Is(err, kerrors.ErrNoRecipients):
		return msg + "\n" + ui.Info.Sprint("→") + " Add one with " + ui.Code.Sprint("wfb keys add <user> --key <file>")

	case errors.Is(err, kerrors.ErrBucketNotFound), errors.Is(err, kerrors.ErrBucketAccessDenied):
		return msg + "\n" + ui.Info.Sprint("→") + " Check " + ui.Path.Sprint("bucket.name") + " and your credentials"

	case errors.Is(err, kerrors.ErrUserExists):
		return msg + "\n" + ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--force") + " to replace it"

	case errors.Is(err, kerrors.ErrPassphraseRequired):
		return msg + "\n" + ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--ask-passphrase")

	case errors.Is(err, kerrors.ErrUnwrapFailed):
		return msg + "\n" + ui.Info.Sprint("→") + " The private key does not match the wrapped key for this user"
	}

	if kind := kerrors.KindOf(err); kind != kerrors.KindUnknown {
		return msg + " " + ui.Muted.Sprint(kind.String())
	}
	return msg
}
