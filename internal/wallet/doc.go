// Package wallet provides the data model of the loyalty-card wallet and the
// store contract the import/export engine is written against.
//
// This package contains type definitions and interfaces only. The store,
// format, exchange and jobs packages import wallet; wallet imports nothing
// internal.
//
// Key constraints:
//   - A Card is identified by its integer ID, assigned by the store on insert
//     unless the caller supplies one.
//   - A Group is identified by its name. The store may keep a surrogate key
//     but never exposes it.
//   - A Membership links one card ID to one group name. A card's memberships
//     are ordered by insertion.
package wallet
