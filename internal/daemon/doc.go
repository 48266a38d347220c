// Package daemon coordinates the long-running plextagger process.
//
// It takes a flock-based lock to prevent multiple instances, builds the daily
// schedule from the Plex maintenance window, runs a scan at startup and then
// once a day, and pushes scan results through the notifications service.
//
// Keep orchestration logic here: the sweep itself lives in the scan package
// and timing decisions in the schedule package.
package daemon
