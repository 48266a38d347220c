// Package plex talks to a Plex Media Server: it resolves library sections and
// genre buckets, lists and reads movie metadata, reads server preferences such
// as the maintenance window, and edits label tags.
//
// LabelStore is the only writer. It appends or removes single labels while
// preserving everything else on the item, and reports rejected edits as
// *LabelWriteError so callers can treat them as per-item failures.
package plex
