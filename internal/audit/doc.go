// Package audit records what each wfb run did.
//
// Entries are appended as JSON Lines to .wfb/audit.jsonl. Every entry
// carries a timestamp, a per-run UUID, the local user and the operation.
// Distribution entries add recipient counts and the ids of the users whose
// key could not be wrapped, so a partial publish can be traced later.
//
//	entry := audit.NewEntry("publish")
//	entry.Recipients, entry.Failed = 3, 1
//	audit.Log(settings.AuditPath, entry)
//
// Logging is best-effort. Reading skips malformed lines.
package audit
