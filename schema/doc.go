// Package schema defines the type descriptor algebra consumed by the codec
// compiler.
//
// A Schema is a closed variant set describing the shape of a Go value:
// primitives, optionals, collections, products (Record), sums (Enum),
// combinators (Either, Fallback, Transform), the untyped Dynamic bridge,
// and Lazy for self-referential graphs. Descriptors are plain data plus
// binding functions; no reflection is involved. The compiler in the codec
// package traverses a descriptor once and produces a reusable codec.
//
// Value binding is function-based: a Record carries a Construct function
// building the target value from positional field values, each Field
// carries a Get accessor, and each Enum Case carries Deconstruct/Construct
// functions. Conventional runtime representations for the structural
// variants:
//
//	Optional            nil for absent, the element value otherwise
//	Sequence, Set       []any
//	Map                 []Pair in declared order
//	Tuple2              Pair
//	Either              EitherValue
//	Fallback            FallbackValue
//	Primitive(Unit)     Unit
//
// Descriptor graphs with cycles must break the cycle with Lazy; the
// compiler defers Lazy resolution to first use.
package schema
