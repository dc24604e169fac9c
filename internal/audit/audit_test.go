package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogAppendsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".wfb", "audit.jsonl")

	Log(path, Entry{User: "alice", Operation: "encrypt"})
	Log(path, Entry{User: "bob", Operation: "distribute", Recipients: 3, Succeeded: 2, Failed: 1, FailedUsers: []string{"carol"}})

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].Failed != 1 || entries[1].FailedUsers[0] != "carol" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestLogTimestampFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	Log(path, Entry{Operation: "publish"})

	entries, err := ReadEntries(path)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Failed to read entries: %v", err)
	}
	ts, err := entries[0].Time()
	if err != nil {
		t.Fatalf("timestamp %q does not parse: %v", entries[0].Timestamp, err)
	}
	if time.Since(ts) > time.Minute {
		t.Errorf("timestamp %v is not recent", ts)
	}
}

func TestLogOmitsEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	Log(path, Entry{User: "alice", Operation: "init", RunID: "r1", Timestamp: "2026-01-02T03:04:05.000000Z"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	for _, key := range []string{"failed_users", "recipients", "artifacts", "dry_run"} {
		if _, ok := raw[key]; ok {
			t.Errorf("empty field %q should be omitted: %s", key, data)
		}
	}
	if raw["ts"] != "2026-01-02T03:04:05.000000Z" {
		t.Errorf("preset timestamp was replaced: %v", raw["ts"])
	}
}

func TestLogWithEmptyPathIsNoop(t *testing.T) {
	if err := Append("", Entry{Operation: "x"}); err != nil {
		t.Errorf("Append with empty path should be a no-op, got %v", err)
	}
}

func TestNewEntry(t *testing.T) {
	t.Setenv("WFB_USER", "alice")
	a, b := NewEntry("publish"), NewEntry("publish")
	if a.User != "alice" || a.Operation != "publish" {
		t.Errorf("unexpected entry: %+v", a)
	}
	if len(a.RunID) != 36 || a.RunID == b.RunID {
		t.Errorf("run ids should be distinct UUIDs: %q %q", a.RunID, b.RunID)
	}
}

func TestParseEntriesSkipsMalformedLines(t *testing.T) {
	data := strings.Join([]string{
		`{"ts":"t1","op":"encrypt","user":"a","run_id":"1"}`,
		`not json`,
		``,
		`{"ts":"t2","op":"decrypt","user":"b","run_id":"2"}`,
		`{"ts":"t3","op":"pub`,
	}, "\n")

	entries, err := ParseEntries([]byte(data))
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 || entries[1].Operation != "decrypt" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestReadEntriesMissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "none.jsonl"))
	if err != nil || entries != nil {
		t.Errorf("missing log should read as empty, got %v, %v", entries, err)
	}
}
