// Package format converts wallet data to and from interchange streams.
//
// A stream carries three kinds of record: groups, cards and memberships.
// The card record layout is shared by every format: each card is a set of
// named columns (see CardHeader) decoded by one column codec. The codec
// inspects which columns a source actually carries instead of trusting a
// version tag, so exports from older releases with fewer columns import
// unchanged:
//
//   - id, store, note, cardId, barcodeType: read verbatim; absent means ""
//     (an empty id asks the store for a new one)
//   - headerColor, headerTextColor: absent or empty means no value; any other
//     non-integer value fails the whole read
//   - starStatus: absent, empty or non-integer means 0; integers are kept as-is
//   - expiry: absent or empty means never; otherwise Unix milliseconds, and an
//     unparseable value fails the whole read
//
// Adapters are registered under a format ID. "csv" is the canonical tabular
// format; "json" and "yaml" carry the same logical content as documents.
// Read either returns a complete, validated Dataset or an error; it never
// returns a partial result.
package format
