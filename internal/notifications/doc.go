// Package notifications pushes scan results to ntfy.
//
// The ntfy implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Completed scans
// are only announced when they labeled, repaired, or failed something.
package notifications
