package schema

// Schema describes the shape of a value. The variant set is closed: every
// implementation lives in this package and the compiler dispatches
// exhaustively over it.
type Schema interface {
	schemaNode()
}

// Primitive is a leaf descriptor for a scalar wire kind.
type Primitive struct {
	Kind PrimitiveKind
}

// Optional wraps an element descriptor; absent is represented as nil.
type Optional struct {
	Elem Schema
}

// Sequence is an ordered collection of elements.
type Sequence struct {
	Elem Schema
}

// NonEmptySequence is a Sequence whose value must contain at least one
// element. The proof of non-emptiness is not wire-visible.
type NonEmptySequence struct {
	Elem Schema
}

// Set is an unordered collection encoded in declared element order.
type Set struct {
	Elem Schema
}

// Map is a keyed collection. Keys of a field-nameable primitive kind
// (string, int32, int64) encode as native document keys; any other key
// descriptor degrades to an array of pair documents.
type Map struct {
	Key   Schema
	Value Schema
}

// NonEmptyMap is a Map whose value must contain at least one entry.
type NonEmptyMap struct {
	Key   Schema
	Value Schema
}

// Tuple2 is a fixed pair, encoded as a two-field {_1,_2} document.
type Tuple2 struct {
	First  Schema
	Second Schema
}

// Either holds exactly one of two alternatives.
type Either struct {
	Left  Schema
	Right Schema
}

// Fallback holds the left value, the right value, or both.
type Fallback struct {
	Left  Schema
	Right Schema
}

// Transform wraps an inner descriptor with a pair of partial conversions.
// Forward maps the decoded inner value outward; Backward maps an outer
// value back to the inner representation before encoding.
type Transform struct {
	Inner    Schema
	Name     string
	Forward  func(any) (any, error)
	Backward func(any) (any, error)
}

// Fail is a descriptor whose codec always fails with Message.
type Fail struct {
	Message string
}

// Record is a product type. Construct receives one value per field in
// declared order and builds the target value; it may fail on cross-field
// validation.
type Record struct {
	Name              string
	Fields            []Field
	Construct         func([]any) (any, error)
	RejectExtraFields bool
}

// GenericRecord is an untyped-keyed record view over map[string]any,
// driven by a fixed field list. It carries none of Record's alias,
// default, or extra-field machinery.
type GenericRecord struct {
	Name   string
	Fields []Field
}

// Enum is a sum type. Exactly one case matches any given value.
type Enum struct {
	Name  string
	Cases []Case

	// Discriminator overrides the configuration's discriminator field
	// name for this type only.
	Discriminator string

	// NoDiscriminator selects the backtracking wire form: cases are
	// encoded with no tag and decoding re-derives the case from shape.
	NoDiscriminator bool
}

// Dynamic describes a schemaless value (dyn.Value). Direct selects the
// isomorphic wire mapping; the default mode delegates to the dynamic
// value's own self-describing descriptor.
type Dynamic struct {
	Direct bool
}

// Lazy defers resolution of its target descriptor until first use,
// permitting self-referential descriptor graphs. Resolve must be pure and
// must return the same descriptor on every call.
type Lazy struct {
	Resolve func() Schema
}

func (*Primitive) schemaNode()        {}
func (*Optional) schemaNode()         {}
func (*Sequence) schemaNode()         {}
func (*NonEmptySequence) schemaNode() {}
func (*Set) schemaNode()              {}
func (*Map) schemaNode()              {}
func (*NonEmptyMap) schemaNode()      {}
func (*Tuple2) schemaNode()           {}
func (*Either) schemaNode()           {}
func (*Fallback) schemaNode()         {}
func (*Transform) schemaNode()        {}
func (*Fail) schemaNode()             {}
func (*Record) schemaNode()           {}
func (*GenericRecord) schemaNode()    {}
func (*Enum) schemaNode()             {}
func (*Dynamic) schemaNode()          {}
func (*Lazy) schemaNode()             {}

// Field is a product-type member.
type Field struct {
	Name   string
	Schema Schema

	// Get extracts this field's value from the record value.
	Get func(any) any

	Optional  bool
	Transient bool
	Excluded  bool

	// Default is used on decode when the field is absent from the wire;
	// HasDefault distinguishes an explicit nil default from none.
	Default    any
	HasDefault bool

	// NameOverride replaces Name as the effective wire name.
	NameOverride string

	// Aliases are accepted on decode only.
	Aliases []string
}

// WireName returns the effective wire name: override wins over the bare
// name.
func (f Field) WireName() string {
	if f.NameOverride != "" {
		return f.NameOverride
	}
	return f.Name
}

// Case is a sum-type alternative. A nil Schema marks a payload-free case.
type Case struct {
	Name   string
	Schema Schema

	// Deconstruct reports whether the value belongs to this case and, if
	// so, yields the case payload. Payload-free cases yield Unit.
	Deconstruct func(any) (any, bool)

	// Construct rebuilds the sum value from the case payload.
	Construct func(any) any

	Transient    bool
	NameOverride string
	Aliases      []string

	// Discriminator overrides the discriminator field name when this case
	// is encoded under the discriminator strategy. Decoding accepts the
	// hinted names of all cases alongside the enum's own.
	Discriminator string
}

// WireName returns the effective case name before class-name mapping.
func (c Case) WireName() string {
	if c.NameOverride != "" {
		return c.NameOverride
	}
	return c.Name
}

// Unit is the runtime representation of the unit primitive and of
// payload-free case payloads.
var Unit = unit{}

type unit struct{}

// Pair is the runtime representation of Tuple2 values and Map entries.
type Pair struct {
	First  any
	Second any
}

// EitherValue is the runtime representation of Either values.
type EitherValue struct {
	Value   any
	IsRight bool
}

// Left wraps v as the left alternative.
func Left(v any) EitherValue { return EitherValue{Value: v} }

// Right wraps v as the right alternative.
func Right(v any) EitherValue { return EitherValue{Value: v, IsRight: true} }

// FallbackValue is the runtime representation of Fallback values: left,
// right, or both.
type FallbackValue struct {
	Left     any
	Right    any
	HasLeft  bool
	HasRight bool
}

// FallbackLeft wraps v as a left-only fallback value.
func FallbackLeft(v any) FallbackValue { return FallbackValue{Left: v, HasLeft: true} }

// FallbackRight wraps v as a right-only fallback value.
func FallbackRight(v any) FallbackValue { return FallbackValue{Right: v, HasRight: true} }

// FallbackBoth wraps both alternatives.
func FallbackBoth(left, right any) FallbackValue {
	return FallbackValue{Left: left, Right: right, HasLeft: true, HasRight: true}
}
