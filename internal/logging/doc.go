// Package logger provides leveled logging for wfb commands and workflows.
//
// # Verbosity Levels
//
// Logging behavior is controlled by two flags:
//
//   - --verbose: shows info, warning and error messages
//   - --debug: also shows debug details
//
// Without flags, only WarnfAlways output is shown. User-facing results are
// printed by the cmd layer, not through the logger.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Wrapping key for %d recipients", n)
//
// Commands create a logger in their PersistentPreRun and pass it into
// workflow options. The distribution driver logs one line per failed
// recipient through the same value.
package logger
