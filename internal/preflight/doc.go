// Package preflight provides readiness checks for the services and paths
// plextagger depends on.
//
// The daemon runs RunAll at startup and logs failures without refusing to
// start (Plex or the LLM may come up later). The CLI "plextagger check"
// command prints the same results as a table and exits non-zero when any
// check fails.
package preflight
