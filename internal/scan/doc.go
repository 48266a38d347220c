// Package scan runs one classification sweep over the comedy genre bucket.
//
// A Runner lists every item in the configured genre, skips items that already
// carry one of the managed labels, classifies the rest, and writes the
// resulting label. Items that carry both labels are repaired by removing
// `standup`. The sweep is sequential and never overlaps itself: a second Run
// while one is in flight (in this process or another) returns
// ErrScanInProgress.
//
// Failures are scoped. A catalog listing failure aborts the run with an error
// wrapping ErrCatalogFetch. A label read or write failure only marks that one
// item failed. A classifier failure leaves the item unlabeled for the next run.
package scan
