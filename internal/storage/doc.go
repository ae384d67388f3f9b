// Package storage defines the persistence boundary for the procurement
// workflow.
//
// The interfaces here are deliberately conditional: any write whose legality
// depends on another record's state (parent solicitation open/closed, the
// submission deadline, one-proposal-per-bidder, one-score-per-proposal)
// re-checks that state inside the write itself. A guard read in a service is
// advisory; the store is the arbiter of races.
//
// The sqlite subpackage is the single authoritative implementation. The
// cursor subpackage provides opaque page tokens, and filter translates
// AIP-160 expressions to SQL conditions for solicitation search.
package storage
