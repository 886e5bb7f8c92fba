package codec

import (
	"testing"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

func TestSequence(t *testing.T) {
	c := mustCompile(t, &schema.Sequence{Elem: int32s()}, Config{})

	roundTripBoth(t, c, []any{int32(1), int32(2), int32(3)})
	roundTripBoth(t, c, []any{})

	got := encodeTree(t, c, []any{int32(1), int32(2)})
	want := wire.Array(wire.Int32(1), wire.Int32(2))
	if !got.Equal(want) {
		t.Fatalf("encoded = %s, want %s", got, want)
	}
}

func TestSequenceElementPath(t *testing.T) {
	c := mustCompile(t, &schema.Sequence{Elem: int32s()}, Config{})
	_, err := c.Decoder.FromValue(wire.Array(wire.Int32(1), wire.String("x")))
	e := wantKind(t, err, errors.KindTypeMismatch)
	if len(e.Path) == 0 || e.Path[len(e.Path)-1] != "[1]" {
		t.Fatalf("path = %v, want trailing [1]", e.Path)
	}
}

func TestNonEmptySequence(t *testing.T) {
	c := mustCompile(t, &schema.NonEmptySequence{Elem: int32s()}, Config{})

	roundTripBoth(t, c, []any{int32(1)})

	if _, err := c.Encoder.ToValue([]any{}); err == nil {
		t.Fatal("encoding empty sequence should fail")
	}
	_, err := c.Decoder.FromValue(wire.Array())
	wantKind(t, err, errors.KindInvalidData)
}

func TestSet(t *testing.T) {
	c := mustCompile(t, &schema.Set{Elem: str()}, Config{})
	roundTripBoth(t, c, []any{"a", "b"})
}

func TestMapNameableKeys(t *testing.T) {
	t.Run("string keys", func(t *testing.T) {
		c := mustCompile(t, &schema.Map{Key: str(), Value: int32s()}, Config{})
		pairs := []schema.Pair{
			{First: "one", Second: int32(1)},
			{First: "two", Second: int32(2)},
		}
		roundTripBoth(t, c, pairs)

		got := encodeTree(t, c, pairs)
		want := wire.Doc(
			wire.Elem("one", wire.Int32(1)),
			wire.Elem("two", wire.Int32(2)),
		)
		if !got.Equal(want) {
			t.Fatalf("encoded = %s, want %s", got, want)
		}
	})

	t.Run("int64 keys", func(t *testing.T) {
		c := mustCompile(t, &schema.Map{Key: &schema.Primitive{Kind: schema.KindInt64}, Value: str()}, Config{})
		pairs := []schema.Pair{{First: int64(42), Second: "x"}}
		roundTripBoth(t, c, pairs)

		got := encodeTree(t, c, pairs)
		if !got.Equal(wire.Doc(wire.Elem("42", wire.String("x")))) {
			t.Fatalf("encoded = %s", got)
		}
	})

	t.Run("bad int key on decode", func(t *testing.T) {
		c := mustCompile(t, &schema.Map{Key: int32s(), Value: str()}, Config{})
		_, err := c.Decoder.FromValue(wire.Doc(wire.Elem("nope", wire.String("x"))))
		wantKind(t, err, errors.KindInvalidData)
	})
}

func TestMapNonNameableKeys(t *testing.T) {
	c := mustCompile(t, &schema.Map{Key: &schema.Primitive{Kind: schema.KindBool}, Value: str()}, Config{})
	pairs := []schema.Pair{{First: true, Second: "yes"}}
	roundTripBoth(t, c, pairs)

	got := encodeTree(t, c, pairs)
	want := wire.Array(wire.Doc(
		wire.Elem("_1", wire.Boolean(true)),
		wire.Elem("_2", wire.String("yes")),
	))
	if !got.Equal(want) {
		t.Fatalf("encoded = %s, want %s", got, want)
	}
}

func TestNonEmptyMap(t *testing.T) {
	c := mustCompile(t, &schema.NonEmptyMap{Key: str(), Value: int32s()}, Config{})

	if _, err := c.Encoder.ToValue([]schema.Pair{}); err == nil {
		t.Fatal("encoding empty map should fail")
	}
	_, err := c.Decoder.FromValue(wire.Doc())
	wantKind(t, err, errors.KindInvalidData)
}

func TestTuple2(t *testing.T) {
	c := mustCompile(t, &schema.Tuple2{First: str(), Second: int32s()}, Config{})
	p := schema.Pair{First: "k", Second: int32(9)}
	roundTripBoth(t, c, p)

	got := encodeTree(t, c, p)
	want := wire.Doc(
		wire.Elem("_1", wire.String("k")),
		wire.Elem("_2", wire.Int32(9)),
	)
	if !got.Equal(want) {
		t.Fatalf("encoded = %s, want %s", got, want)
	}

	t.Run("missing member", func(t *testing.T) {
		_, err := c.Decoder.FromValue(wire.Doc(wire.Elem("_1", wire.String("k"))))
		wantKind(t, err, errors.KindFieldMissing)
	})
	t.Run("duplicate member", func(t *testing.T) {
		_, err := c.Decoder.FromValue(wire.Doc(
			wire.Elem("_1", wire.String("a")),
			wire.Elem("_1", wire.String("b")),
			wire.Elem("_2", wire.Int32(1)),
		))
		wantKind(t, err, errors.KindDuplicateField)
	})
}

func TestNestedCollections(t *testing.T) {
	s := &schema.Map{
		Key:   str(),
		Value: &schema.Sequence{Elem: &schema.Optional{Elem: int32s()}},
	}
	c := mustCompile(t, s, Config{})
	v := []schema.Pair{
		{First: "xs", Second: []any{int32(1), nil, int32(3)}},
	}
	roundTripBoth(t, c, v)

	got := encodeTree(t, c, v)
	want := wire.Doc(wire.Elem("xs", wire.Array(wire.Int32(1), wire.Null(), wire.Int32(3))))
	if !got.Equal(want) {
		t.Fatalf("encoded = %s, want %s", got, want)
	}
}
