// Package cards maintains the ordered card collection of each event.
//
// Ranks within an event are dense and zero-based: for n cards the live ranks
// are exactly 0..n-1. Every mutation runs in one store transaction that first
// locks the parent event, so mutations on the same event are serialized and
// neighbors are shifted with single range updates:
//   - Create appends at rank n.
//   - Delete removes the card and pulls every card above it down by one.
//   - Move shifts the cards between the old and the new rank by one toward
//     the vacated slot, then assigns the new rank.
//
// Errors wrap ErrNotFound, ErrInvalidArgument, ErrConflict (retryable) or
// ErrStoreUnavailable; a failed call leaves no partial shift behind.
package cards
