// Package dyn defines the schema-less value union mirroring the wire value
// space, used when data must travel without a descriptor for its shape.
// Values of this package are produced transiently during decode and
// consumed during encode; nothing in the codec retains them.
package dyn

import "github.com/wirebind/bsonic/schema"

// Value is the closed union of dynamic shapes. Only types in this package
// implement it.
type Value interface {
	dynValue()
}

// Entry is one ordered member of a Record.
type Entry struct {
	Key   string
	Value Value
}

// Record is an ordered collection of named values.
type Record struct {
	Entries []Entry
}

// Lookup returns the first entry value for key.
func (r *Record) Lookup(key string) (Value, bool) {
	for _, e := range r.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Sequence is an ordered collection of values.
type Sequence struct {
	Items []Value
}

// SetValue is a collection of values whose uniqueness is the producer's
// concern; the wire form is a plain array.
type SetValue struct {
	Items []Value
}

// Primitive carries one leaf scalar together with its kind. Value obeys
// the runtime conventions of the schema package for that kind.
type Primitive struct {
	Kind  schema.PrimitiveKind
	Value any
}

// Singleton is the unit value.
type Singleton struct{}

// SomeValue marks an optional value that is present.
type SomeValue struct {
	Value Value
}

// NoneValue marks an optional value that is absent.
type NoneValue struct{}

// DictEntry is one key/value pairing of a Dictionary.
type DictEntry struct {
	Key   Value
	Value Value
}

// Dictionary is a map with arbitrarily-shaped keys.
type Dictionary struct {
	Entries []DictEntry
}

// Tuple is a pair of values.
type Tuple struct {
	First  Value
	Second Value
}

// LeftValue is the left branch of a disjoint union.
type LeftValue struct {
	Value Value
}

// RightValue is the right branch of a disjoint union.
type RightValue struct {
	Value Value
}

// BothValue carries both branches of a fallback.
type BothValue struct {
	Left  Value
	Right Value
}

// Enumeration names a sum-type case together with its payload.
type Enumeration struct {
	Case  string
	Value Value
}

// NodeRef points into a structural type AST. It is carried for
// completeness of the union but neither bridge mode can represent it.
type NodeRef struct {
	Path []string
}

// Error marks a value that failed to materialize.
type Error struct {
	Message string
}

func (*Record) dynValue()      {}
func (*Sequence) dynValue()    {}
func (*SetValue) dynValue()    {}
func (*Primitive) dynValue()   {}
func (*Singleton) dynValue()   {}
func (*SomeValue) dynValue()   {}
func (*NoneValue) dynValue()   {}
func (*Dictionary) dynValue()  {}
func (*Tuple) dynValue()       {}
func (*LeftValue) dynValue()   {}
func (*RightValue) dynValue()  {}
func (*BothValue) dynValue()   {}
func (*Enumeration) dynValue() {}
func (*NodeRef) dynValue()     {}
func (*Error) dynValue()       {}
