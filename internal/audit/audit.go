package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/QB2027/WebFileBrowser/internal/utils"

	"github.com/google/uuid"
)

// TimestampFormat is RFC 3339 in UTC with microseconds.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// Entry is one line of the audit log.
type Entry struct {
	Timestamp string `json:"ts"`
	RunID     string `json:"run_id"`
	User      string `json:"user"`
	Operation string `json:"op"`

	// Distribution results.
	Recipients  int      `json:"recipients,omitempty"`
	Succeeded   int      `json:"succeeded,omitempty"`
	Failed      int      `json:"failed,omitempty"`
	FailedUsers []string `json:"failed_users,omitempty"`
	Outcome     string   `json:"outcome,omitempty"`

	Mode       string   `json:"mode,omitempty"`
	KeySource  string   `json:"key_source,omitempty"`
	Source     string   `json:"source,omitempty"`
	Files      int      `json:"files,omitempty"`
	Artifacts  []string `json:"artifacts,omitempty"`
	TargetUser string   `json:"target_user,omitempty"`
	Family     string   `json:"family,omitempty"`
	DryRun     bool     `json:"dry_run,omitempty"`
	Host       string   `json:"host,omitempty"`
}

// NewEntry starts an entry for op with a fresh run id and the current user.
func NewEntry(op string) Entry {
	entry := Entry{Operation: op, RunID: uuid.New().String()}
	if name, err := utils.GetUsername(); err == nil {
		entry.User = name
	}
	if host, err := utils.GetHostname(); err == nil {
		entry.Host = host
	}
	return entry
}

// Log appends entry to the log at path. It is best-effort: an audit failure
// never fails the operation being audited, and an empty path disables logging.
func Log(path string, entry Entry) {
	_ = Append(path, entry)
}

// Append is Log with the error returned.
func Append(path string, entry Entry) error {
	if path == "" {
		return nil
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	// #nosec G306 -- the audit log is meant to be shared with the team.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// ReadEntries reads every entry at path. A missing log is empty.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries decodes JSON Lines. Blank and malformed lines are skipped so
// that a torn final write does not hide the rest of the log.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

// Time parses the entry's timestamp.
func (e Entry) Time() (time.Time, error) {
	return time.Parse(TimestampFormat, e.Timestamp)
}
