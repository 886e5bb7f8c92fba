package codec

import (
	"testing"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

func eitherIntString() *schema.Either {
	return &schema.Either{Left: int32s(), Right: str()}
}

func TestEither(t *testing.T) {
	c := mustCompile(t, eitherIntString(), Config{})

	roundTripBoth(t, c, schema.Left(int32(1)))
	roundTripBoth(t, c, schema.Right("two"))

	got := encodeTree(t, c, schema.Left(int32(1)))
	if !got.Equal(wire.Doc(wire.Elem("left", wire.Int32(1)))) {
		t.Fatalf("encoded = %s", got)
	}
	got = encodeTree(t, c, schema.Right("x"))
	if !got.Equal(wire.Doc(wire.Elem("right", wire.String("x")))) {
		t.Fatalf("encoded = %s", got)
	}

	t.Run("neither", func(t *testing.T) {
		_, err := c.Decoder.FromValue(wire.Doc())
		wantKind(t, err, errors.KindBothCasesMissing)
	})
	t.Run("both", func(t *testing.T) {
		_, err := c.Decoder.FromValue(wire.Doc(
			wire.Elem("left", wire.Int32(1)),
			wire.Elem("right", wire.String("x")),
		))
		wantKind(t, err, errors.KindBothCasesPresent)
	})
	t.Run("duplicate", func(t *testing.T) {
		_, err := c.Decoder.FromValue(wire.Doc(
			wire.Elem("left", wire.Int32(1)),
			wire.Elem("left", wire.Int32(2)),
		))
		wantKind(t, err, errors.KindDuplicateField)
	})
	t.Run("stray key", func(t *testing.T) {
		_, err := c.Decoder.FromValue(wire.Doc(wire.Elem("middle", wire.Int32(1))))
		wantKind(t, err, errors.KindInvalidData)
	})
}

func TestFallback(t *testing.T) {
	c := mustCompile(t, &schema.Fallback{Left: int32s(), Right: str()}, Config{})

	roundTripBoth(t, c, schema.FallbackLeft(int32(1)))
	roundTripBoth(t, c, schema.FallbackRight("x"))
	roundTripBoth(t, c, schema.FallbackBoth(int32(1), "x"))

	t.Run("wire shapes", func(t *testing.T) {
		if got := encodeTree(t, c, schema.FallbackLeft(int32(1))); !got.Equal(wire.Array(wire.Int32(1))) {
			t.Fatalf("left = %s", got)
		}
		if got := encodeTree(t, c, schema.FallbackRight("x")); !got.Equal(wire.Array(wire.String("x"))) {
			t.Fatalf("right = %s", got)
		}
		if got := encodeTree(t, c, schema.FallbackBoth(int32(1), "x")); !got.Equal(wire.Array(wire.Int32(1), wire.String("x"))) {
			t.Fatalf("both = %s", got)
		}
	})

	// the first element fails the left decoder, so the cursor rewinds
	// and the right decoder consumes the same element
	t.Run("rewind onto right", func(t *testing.T) {
		got := decodeTree(t, c, wire.Array(wire.String("only")))
		if got != schema.FallbackRight("only") {
			t.Fatalf("decoded = %#v", got)
		}
	})

	t.Run("both decoders fail", func(t *testing.T) {
		_, err := c.Decoder.FromValue(wire.Array(wire.Boolean(true)))
		wantKind(t, err, errors.KindBothCasesMissing)
	})

	t.Run("empty array", func(t *testing.T) {
		_, err := c.Decoder.FromValue(wire.Array())
		wantKind(t, err, errors.KindInvalidData)
	})

	t.Run("neither side encodes", func(t *testing.T) {
		_, err := c.Encoder.ToValue(schema.FallbackValue{})
		wantKind(t, err, errors.KindInvalidData)
	})
}
