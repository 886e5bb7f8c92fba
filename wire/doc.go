// Package wire provides the BSON wire-format surfaces the codec package
// writes to and reads from.
//
// Two symmetric surfaces implement the same Writer and Reader interfaces:
//
//	DocumentWriter / DocumentReader   streaming over BSON bytes (bsoncore)
//	ValueWriter / ValueReader         an in-memory document-value tree
//
// Codecs are written once against the interfaces, so both surfaces agree
// on every input by construction. Readers support one active Mark/Reset
// snapshot at a time, which is all the backtracking decoders need.
//
// IdentityTag is the reserved field name mapping a single-field record to
// the native 12-byte ObjectID encoding.
package wire
