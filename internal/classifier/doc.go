// Package classifier decides whether a catalog item is a stand-up comedy
// special.
//
// Classify builds a fixed prompt from the item's title and descriptive
// context, sends it through the LLM transport, and interprets the free-text
// reply with ParseVerdict. Transport failures and ambiguous replies both
// collapse to Unknown: the item stays unlabeled and is retried on the next
// run.
package classifier
