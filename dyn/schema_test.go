package dyn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirebind/bsonic/schema"
)

func TestSchemaIsMemoized(t *testing.T) {
	first := Schema()
	second := Schema()
	require.NotNil(t, first)
	assert.Same(t, first, second)
}

func TestSchemaShape(t *testing.T) {
	root, ok := Schema().(*schema.Enum)
	require.True(t, ok, "self-describing schema must be an enum")
	assert.Equal(t, "DynamicValue", root.Name)

	names := make(map[string]schema.Case, len(root.Cases))
	for _, c := range root.Cases {
		names[c.Name] = c
	}
	for _, want := range []string{
		"Record", "Sequence", "Set", "Primitive", "Singleton",
		"SomeValue", "NoneValue", "Dictionary", "Tuple",
		"LeftValue", "RightValue", "BothValue", "Enumeration", "Error",
	} {
		assert.Contains(t, names, want)
	}
	// NodeRef cannot be represented on the wire in either mapping mode,
	// so the union deliberately has no case for it.
	assert.NotContains(t, names, "NodeRef")

	prim, ok := names["Primitive"].Schema.(*schema.Enum)
	require.True(t, ok)
	assert.Len(t, prim.Cases, len(primitiveKinds))
}

func TestSchemaLazySelfReference(t *testing.T) {
	root, ok := Schema().(*schema.Enum)
	require.True(t, ok)

	var some schema.Case
	for _, c := range root.Cases {
		if c.Name == "SomeValue" {
			some = c
		}
	}
	lazy, ok := some.Schema.(*schema.Lazy)
	require.True(t, ok, "recursive payloads must go through Lazy")
	assert.Same(t, Schema(), lazy.Resolve())
}

func TestCaseDeconstructConstruct(t *testing.T) {
	root := Schema().(*schema.Enum)
	cases := make(map[string]schema.Case, len(root.Cases))
	for _, c := range root.Cases {
		cases[c.Name] = c
	}

	rec := &Record{Entries: []Entry{
		{Key: "a", Value: &Primitive{Kind: schema.KindInt32, Value: int32(1)}},
	}}
	payload, ok := cases["Record"].Deconstruct(rec)
	require.True(t, ok)
	rebuilt := cases["Record"].Construct(payload)
	assert.Equal(t, rec, rebuilt)

	_, ok = cases["Record"].Deconstruct(&Sequence{})
	assert.False(t, ok, "a sequence must not match the record case")

	payload, ok = cases["Singleton"].Deconstruct(&Singleton{})
	require.True(t, ok)
	assert.Equal(t, schema.Unit, payload)
}

func TestRecordLookup(t *testing.T) {
	rec := &Record{Entries: []Entry{
		{Key: "name", Value: &Primitive{Kind: schema.KindString, Value: "x"}},
		{Key: "age", Value: &Primitive{Kind: schema.KindInt32, Value: int32(3)}},
	}}

	v, ok := rec.Lookup("age")
	require.True(t, ok)
	assert.Equal(t, &Primitive{Kind: schema.KindInt32, Value: int32(3)}, v)

	_, ok = rec.Lookup("missing")
	assert.False(t, ok)
}
