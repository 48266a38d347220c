// Command plextagger labels the stand-up specials in a Plex comedy library.
//
// `plextagger daemon` scans at startup and then once a day after the Plex
// maintenance window. The remaining subcommands run one-off scans, resets,
// ad-hoc classifications, and diagnostics against the same configuration.
package main
