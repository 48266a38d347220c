// Package logs reads the daemon log file for the `plextagger logs` and `status` commands.
//
// Last returns the trailing lines with bounded memory; Follow polls from an
// offset and hands new lines to a callback until the context ends.
package logs
