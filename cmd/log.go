package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/QB2027/WebFileBrowser/internal/audit"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logUser      string
	logOperation string
	logSince     string
	logUntil     string
	logFailures  bool
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logUser, "user", "", "filter by the user who ran or was targeted by the operation")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logFailures, "failures", false, "only show runs where a recipient failed")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logUser = ""
	logOperation = ""
	logSince = ""
	logUntil = ""
	logFailures = false
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the audit log kept in .wfb/audit.jsonl.

Every publish and distribute run records how many recipients received the
manifest key and which ones failed.

Examples:
  wfb log                              # View full log
  wfb log -n 10                        # Last 10 entries
  wfb log --reverse                    # Most recent first
  wfb log --user alice                 # Filter by user
  wfb log --operation publish,decrypt  # Filter by operation
  wfb log --failures                   # Runs that left someone out
  wfb log --json                       # JSON output`,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	spinner, cleanup := startSpinner("Loading audit log...")
	defer cleanup()

	result, err := workflows.Log(context.Background(), workflows.LogOptions{
		Limit:        logLimit,
		Reverse:      logReverse,
		User:         logUser,
		Operations:   logOperation,
		Since:        logSince,
		Until:        logUntil,
		FailuresOnly: logFailures,
	})
	if err != nil {
		spinner.FinalMSG = formatLogError(err)
		if isLogUnexpectedError(err) {
			return fatal(err)
		}
		return nil
	}

	Logger.Debugf("Parsed %d entries from audit log", result.Total)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if len(result.Entries) == 0 {
		if result.Total == 0 {
			spinner.FinalMSG = "No audit log entries found."
		} else {
			spinner.FinalMSG = "No audit log entries found matching the filters."
		}
		return nil
	}

	if logJSON {
		data, err := json.MarshalIndent(result.Entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal entries to JSON: %w", err)
		}
		spinner.FinalMSG = string(data)
		return nil
	}

	spinner.FinalMSG = formatLogEntries(result.Entries)
	return nil
}

// formatLogError formats a log error for display to the user.
func formatLogError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Info.Sprint("ℹ") + " No audit log found. Operations are logged once you run a wfb command."

	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return ui.Error.Sprint("✗") + " " + err.Error()

	default:
		return formatError(err)
	}
}

// isLogUnexpectedError returns true if the error is unexpected and should cause a non-zero exit.
func isLogUnexpectedError(err error) bool {
	return !errors.Is(err, kerrors.ErrNoFilesFound)
}

func formatLogEntries(entries []audit.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		details := workflows.FormatDetails(e)
		if e.Outcome != "" && e.Outcome != "all" {
			details += " " + ui.Warning.Sprint("["+e.Outcome+"]")
		}
		fmt.Fprintf(&b, "%-19s  %-16s  %-10s  %s\n", workflows.FormatDateTime(e.Timestamp), e.User, e.Operation, details)
	}
	return b.String()
}
