package workflows

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/QB2027/WebFileBrowser/internal/audit"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	ProjectDir string

	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest.
	Reverse bool

	// User filters by the user who ran the command or the user it targeted.
	User string

	// Operations is a comma-separated list of operations to keep.
	Operations string

	// Since and Until bound the entries by date (YYYY-MM-DD), inclusive.
	Since string
	Until string

	// FailuresOnly keeps entries where at least one recipient failed.
	FailuresOnly bool
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	Entries []audit.Entry

	// Total is the number of entries before filtering.
	Total int
}

// Log reads and filters the audit log.
//
// Returns ErrProjectNotInitialized if there is no .wfb directory.
// Returns ErrNoFilesFound if no audit log exists.
// Returns ErrInvalidDateFormat if Since or Until is not YYYY-MM-DD.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	p, err := openProject(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(p.settings.AuditPath); os.IsNotExist(err) {
		return nil, kerrors.ErrNoFilesFound
	}
	entries, err := audit.ReadEntries(p.settings.AuditPath)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	filters, err := opts.filters()
	if err != nil {
		return nil, err
	}

	var filtered []audit.Entry
	for _, e := range entries {
		if keepEntry(e, filters) {
			filtered = append(filtered, e)
		}
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	// The limit keeps the most recent entries in either order.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	return &LogResult{Entries: filtered, Total: len(entries)}, nil
}

type entryFilter func(audit.Entry) bool

func (o LogOptions) filters() ([]entryFilter, error) {
	var fs []entryFilter

	if o.User != "" {
		fs = append(fs, func(e audit.Entry) bool {
			return strings.EqualFold(e.User, o.User) || strings.EqualFold(e.TargetUser, o.User)
		})
	}

	if o.Operations != "" {
		ops := make(map[string]bool)
		for _, op := range strings.Split(o.Operations, ",") {
			ops[strings.ToLower(strings.TrimSpace(op))] = true
		}
		fs = append(fs, func(e audit.Entry) bool { return ops[strings.ToLower(e.Operation)] })
	}

	if o.Since != "" {
		since, err := time.Parse("2006-01-02", o.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		fs = append(fs, func(e audit.Entry) bool {
			t, err := e.Time()
			return err == nil && !t.Before(since)
		})
	}

	if o.Until != "" {
		until, err := time.Parse("2006-01-02", o.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		until = until.Add(24*time.Hour - time.Nanosecond)
		fs = append(fs, func(e audit.Entry) bool {
			t, err := e.Time()
			return err == nil && !t.After(until)
		})
	}

	if o.FailuresOnly {
		fs = append(fs, func(e audit.Entry) bool { return e.Failed > 0 })
	}
	return fs, nil
}

func keepEntry(e audit.Entry, filters []entryFilter) bool {
	for _, f := range filters {
		if !f(e) {
			return false
		}
	}
	return true
}

// FormatDateTime renders an entry timestamp as YYYY-MM-DD HH:MM:SS.
func FormatDateTime(ts string) string {
	t, err := time.Parse(audit.TimestampFormat, ts)
	if err != nil {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails summarizes an entry on one line.
func FormatDetails(e audit.Entry) string {
	switch e.Operation {
	case "publish", "distribute":
		details := fmt.Sprintf("%d/%d recipients", e.Succeeded, e.Recipients)
		if e.Files > 0 {
			details = fmt.Sprintf("%d files, %s", e.Files, details)
		}
		if len(e.FailedUsers) > 0 {
			details += ", failed: " + strings.Join(e.FailedUsers, ", ")
		}
		return details
	case "build":
		return fmt.Sprintf("%d files from %s", e.Files, e.Source)
	case "encrypt":
		return fmt.Sprintf("%s, %s key", e.Mode, e.KeySource)
	case "decrypt":
		if e.TargetUser != "" {
			return fmt.Sprintf("%s via %s", e.TargetUser, e.KeySource)
		}
		return "via " + e.KeySource
	case "keygen", "add":
		return fmt.Sprintf("%s (%s)", e.TargetUser, e.Family)
	case "remove":
		return e.TargetUser
	case "init":
		return strings.Join(e.Artifacts, ", ")
	default:
		return ""
	}
}
