// Package store provides the SQLite-backed store gateway for the wallet.
//
// The store holds three tables:
//   - cards: one row per loyalty card, keyed by an integer id
//   - card_groups: group names (UNIQUE), with a surrogate rowid that is never
//     exposed
//   - card_memberships: card/group links with a position column that keeps
//     each card's groups in assignment order
//
// # Ordering
//
//   - ListCards: starred first, then store name (case-insensitive), then id
//   - ListGroups: insertion order
//   - CardGroups: assignment order (position ASC)
//
// # Transactions
//
// Begin returns a wallet.Tx bound to a single connection. The pool is capped
// at one connection, so the Store itself must not be used while a Tx is open
// on the same goroutine; issue every call through the Tx instead.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Memberships cannot reference missing cards or groups
package store
