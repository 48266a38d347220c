// Package logging assembles structured slog loggers and attribute helpers used
// across plextagger.
//
// It owns the console/JSON handlers, level and output plumbing, and
// context-aware helpers so scan code can tag every line with the run ID and
// the catalog item being classified. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging
