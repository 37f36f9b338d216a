// Package exchange moves wallet data between a store and an interchange
// stream.
//
// Export takes a read-only snapshot of the store and hands it to a format
// adapter. Import is all-or-nothing: the source is parsed and validated in
// full before a transaction is opened, and the merge (upsert by id with
// wholesale membership replacement) either commits completely or is rolled
// back. A failed import leaves the store exactly as it was.
package exchange
