// Package errors provides structured error types for codec compilation,
// encoding, and decoding.
//
// Errors carry a Phase (compile/encode/decode), a Kind categorizing the
// failure, and a Path tracing field names and element indices from the
// outermost document to the failure point:
//
//	[decode] invalid_extra_field at user.address: unexpected field "zip"
//	[decode] all_subtypes_failed at events.[3]: no case of Event matched
//
// Use the Builder for ad-hoc errors and the convenience constructors for
// the common patterns. Compare with errors.Is; two structured errors match
// when their Phase and Kind agree.
//
// Malformed descriptor errors are construction-time programmer errors and
// report true from Fatal; they must never be treated as data errors.
package errors
