// Package schedule decides when the daily scan runs.
//
// A Plan is built once at startup from the Plex server's ButlerEndHour
// preference (the end of its nightly maintenance window) plus a configured
// offset. When the preference is missing or unusable the configured fallback
// hour is used instead. The Scheduler fires its trigger immediately, then at
// the plan's hour every day.
package schedule
