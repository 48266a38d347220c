// Package services defines shared error markers consumed by the scan
// orchestrator, the daemon, and the CLI.
//
// Wrap tags a failure with one of the exported sentinels so callers can
// classify it with errors.Is, and ExitCode turns a command error into the
// process exit status.
package services
