package codec

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirebind/bsonic/dyn"
	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

func TestDynamicDirectRoundTrip(t *testing.T) {
	c := mustCompile(t, &schema.Dynamic{Direct: true}, Config{})

	v := &dyn.Record{Entries: []dyn.Entry{
		{Key: "name", Value: &dyn.Primitive{Kind: schema.KindString, Value: "Ann"}},
		{Key: "age", Value: &dyn.Primitive{Kind: schema.KindInt32, Value: int32(30)}},
		{Key: "tags", Value: &dyn.Sequence{Items: []dyn.Value{
			&dyn.Primitive{Kind: schema.KindString, Value: "a"},
			&dyn.Primitive{Kind: schema.KindString, Value: "b"},
		}}},
		{Key: "gone", Value: &dyn.NoneValue{}},
	}}

	got := encodeTree(t, c, v)
	// an absent optional still writes null in direct mode; nothing else
	// knows the field exists
	want := wire.Doc(
		wire.Elem("name", wire.String("Ann")),
		wire.Elem("age", wire.Int32(30)),
		wire.Elem("tags", wire.Array(wire.String("a"), wire.String("b"))),
		wire.Elem("gone", wire.Null()),
	)
	if !got.Equal(want) {
		t.Fatalf("encoded = %s, want %s", got, want)
	}

	back := decodeTree(t, c, want)
	wantBack := &dyn.Record{Entries: []dyn.Entry{
		{Key: "name", Value: &dyn.Primitive{Kind: schema.KindString, Value: "Ann"}},
		{Key: "age", Value: &dyn.Primitive{Kind: schema.KindInt32, Value: int32(30)}},
		{Key: "tags", Value: &dyn.Sequence{Items: []dyn.Value{
			&dyn.Primitive{Kind: schema.KindString, Value: "a"},
			&dyn.Primitive{Kind: schema.KindString, Value: "b"},
		}}},
		{Key: "gone", Value: &dyn.NoneValue{}},
	}}
	if !reflect.DeepEqual(back, wantBack) {
		t.Fatalf("decoded = %#v, want %#v", back, wantBack)
	}
}

func TestDynamicDirectIdentity(t *testing.T) {
	const hex = "507f1f77bcf86cd799439011"
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		t.Fatal(err)
	}
	c := mustCompile(t, &schema.Dynamic{Direct: true}, Config{})

	v := &dyn.Record{Entries: []dyn.Entry{
		{Key: wire.IdentityTag, Value: &dyn.Primitive{Kind: schema.KindString, Value: hex}},
	}}
	got := encodeTree(t, c, v)
	if !got.Equal(wire.ObjectID(oid)) {
		t.Fatalf("encoded = %s, want native object id", got)
	}

	back := decodeTree(t, c, wire.ObjectID(oid))
	if !reflect.DeepEqual(back, v) {
		t.Fatalf("decoded = %#v, want %#v", back, v)
	}
}

func TestDynamicDirectUnsupportedShapes(t *testing.T) {
	c := mustCompile(t, &schema.Dynamic{Direct: true}, Config{})

	values := []dyn.Value{
		&dyn.Dictionary{},
		&dyn.Tuple{First: &dyn.Singleton{}, Second: &dyn.Singleton{}},
		&dyn.LeftValue{Value: &dyn.Singleton{}},
		&dyn.RightValue{Value: &dyn.Singleton{}},
		&dyn.BothValue{Left: &dyn.Singleton{}, Right: &dyn.Singleton{}},
		&dyn.Enumeration{Case: "x", Value: &dyn.Singleton{}},
		&dyn.NodeRef{Path: []string{"a"}},
		&dyn.Error{Message: "boom"},
	}
	for _, v := range values {
		_, err := c.Encoder.ToValue(v)
		wantKind(t, err, errors.KindUnsupportedShape)
	}
}

func TestDynamicDirectUnsupportedWireType(t *testing.T) {
	c := mustCompile(t, &schema.Dynamic{Direct: true}, Config{})
	_, err := c.Decoder.FromValue(wire.Timestamp(1, 2))
	wantKind(t, err, errors.KindInvalidData)
}

func TestDynamicDirectScalars(t *testing.T) {
	c := mustCompile(t, &schema.Dynamic{Direct: true}, Config{})
	when := time.UnixMilli(1700000000000).UTC()

	cases := []struct {
		name string
		wire wire.Value
		want dyn.Value
	}{
		{"double", wire.Double(1.5), &dyn.Primitive{Kind: schema.KindFloat64, Value: 1.5}},
		{"bool", wire.Boolean(true), &dyn.Primitive{Kind: schema.KindBool, Value: true}},
		{"int64", wire.Int64(9), &dyn.Primitive{Kind: schema.KindInt64, Value: int64(9)}},
		{"datetime", wire.DateTime(when.UnixMilli()), &dyn.Primitive{Kind: schema.KindTime, Value: when}},
		{"empty doc is unit", wire.Doc(), &dyn.Singleton{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := decodeTree(t, c, tc.wire)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("decoded = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestDynamicDefaultRoundTrip(t *testing.T) {
	c := mustCompile(t, &schema.Dynamic{}, Config{})

	values := []dyn.Value{
		&dyn.Primitive{Kind: schema.KindString, Value: "hello"},
		&dyn.Singleton{},
		&dyn.NoneValue{},
		&dyn.SomeValue{Value: &dyn.Primitive{Kind: schema.KindInt32, Value: int32(4)}},
		&dyn.Tuple{
			First:  &dyn.Primitive{Kind: schema.KindString, Value: "k"},
			Second: &dyn.Primitive{Kind: schema.KindInt64, Value: int64(1)},
		},
		&dyn.LeftValue{Value: &dyn.Primitive{Kind: schema.KindBool, Value: true}},
		&dyn.BothValue{
			Left:  &dyn.Primitive{Kind: schema.KindInt32, Value: int32(1)},
			Right: &dyn.Primitive{Kind: schema.KindInt32, Value: int32(2)},
		},
		&dyn.Enumeration{Case: "Red", Value: &dyn.Singleton{}},
		&dyn.Error{Message: "boom"},
		&dyn.Record{Entries: []dyn.Entry{
			{Key: "xs", Value: &dyn.Sequence{Items: []dyn.Value{
				&dyn.Primitive{Kind: schema.KindInt32, Value: int32(1)},
			}}},
		}},
		&dyn.Dictionary{Entries: []dyn.DictEntry{{
			Key:   &dyn.Primitive{Kind: schema.KindBool, Value: false},
			Value: &dyn.Primitive{Kind: schema.KindString, Value: "no"},
		}}},
	}

	for _, v := range values {
		t.Run(dynShapeName(v), func(t *testing.T) {
			got, err := c.RoundTripValue(v)
			if err != nil {
				t.Fatalf("round trip: %v", err)
			}
			if !reflect.DeepEqual(got, v) {
				t.Fatalf("round trip = %#v, want %#v", got, v)
			}
		})
	}
}

func TestDynamicDefaultWrapperShape(t *testing.T) {
	// the default mapping always tags shapes with the wrapper form, even
	// when the surrounding configuration says discriminators
	c := mustCompile(t, &schema.Dynamic{}, Config{SumTypeHandling: DiscriminatorField{Name: "type"}})

	got := encodeTree(t, c, &dyn.Primitive{Kind: schema.KindString, Value: "x"})
	want := wire.Doc(wire.Elem("Primitive", wire.Doc(wire.Elem("string", wire.String("x")))))
	if !got.Equal(want) {
		t.Fatalf("encoded = %s, want %s", got, want)
	}
}

func TestDynamicDefaultBytesSurface(t *testing.T) {
	c := mustCompile(t, &schema.Dynamic{}, Config{})
	v := &dyn.Record{Entries: []dyn.Entry{
		{Key: "a", Value: &dyn.Primitive{Kind: schema.KindInt32, Value: int32(1)}},
	}}
	bt, data, err := c.Encoder.MarshalValue(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if bt != bsontype.EmbeddedDocument {
		t.Fatalf("wire type = %s", bt)
	}
	got, err := c.Decoder.UnmarshalValue(bt, data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, v) {
		t.Fatalf("round trip = %#v", got)
	}
}
