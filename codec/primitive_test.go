package codec

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

func TestPrimitiveRoundTrips(t *testing.T) {
	dec128, err := primitive.ParseDecimal128("12.5")
	if err != nil {
		t.Fatal(err)
	}
	oid, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		kind  schema.PrimitiveKind
		value any
	}{
		{schema.KindBool, true},
		{schema.KindInt8, int8(-7)},
		{schema.KindInt16, int16(300)},
		{schema.KindInt64, int64(1 << 40)},
		{schema.KindFloat32, float32(0.25)},
		{schema.KindChar, 'λ'},
		{schema.KindString, "héllo"},
		{schema.KindBytes, []byte{1, 2, 3}},
		{schema.KindTime, time.UnixMilli(1700000000123).UTC()},
		{schema.KindDuration, 90 * time.Second},
		{schema.KindUUID, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{schema.KindDecimal, dec128},
		{schema.KindObjectID, oid},
		{schema.KindCurrency, "EUR"},
		{schema.KindYear, int32(2026)},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			c := mustCompile(t, &schema.Primitive{Kind: tc.kind}, Config{})
			got, err := c.RoundTripValue(tc.value)
			if err != nil {
				t.Fatalf("round trip: %v", err)
			}
			switch want := tc.value.(type) {
			case []byte:
				gb, ok := got.([]byte)
				if !ok || string(gb) != string(want) {
					t.Fatalf("round trip = %#v, want %#v", got, want)
				}
			default:
				if got != tc.value {
					t.Fatalf("round trip = %#v, want %#v", got, tc.value)
				}
			}
		})
	}
}

func TestCharRejectsMultiRuneStrings(t *testing.T) {
	c := mustCompile(t, &schema.Primitive{Kind: schema.KindChar}, Config{})
	_, err := c.Decoder.FromValue(wire.String("ab"))
	wantKind(t, err, errors.KindInvalidData)
}

func TestSmallIntRange(t *testing.T) {
	c := mustCompile(t, &schema.Primitive{Kind: schema.KindInt8}, Config{})
	_, err := c.Decoder.FromValue(wire.Int32(1000))
	wantKind(t, err, errors.KindInvalidData)
}

func TestUnitDrainsUnknownMembers(t *testing.T) {
	c := mustCompile(t, &schema.Primitive{Kind: schema.KindUnit}, Config{})

	got := encodeTree(t, c, schema.Unit)
	if !got.Equal(wire.Doc()) {
		t.Fatalf("encoded = %s, want empty document", got)
	}

	v := decodeTree(t, c, wire.Doc(wire.Elem("stray", wire.Int32(1))))
	if v != schema.Unit {
		t.Fatalf("decoded = %#v, want unit", v)
	}
}

func TestPrimitiveEncodeTypeMismatch(t *testing.T) {
	c := mustCompile(t, &schema.Primitive{Kind: schema.KindString}, Config{})
	_, err := c.Encoder.ToValue(42)
	wantKind(t, err, errors.KindTypeMismatch)
}
