package codec

import (
	"fmt"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

func TestRecordRoundTrip(t *testing.T) {
	c := mustCompile(t, personSchema(false), Config{})
	roundTripBoth(t, c, person{Name: "Ann", Age: 30})
}

func TestRecordEncodeShape(t *testing.T) {
	c := mustCompile(t, personSchema(false), Config{})
	got := encodeTree(t, c, person{Name: "Ann", Age: 30})
	want := wire.Doc(
		wire.Elem("name", wire.String("Ann")),
		wire.Elem("age", wire.Int32(30)),
	)
	if !got.Equal(want) {
		t.Fatalf("encoded = %s, want %s", got, want)
	}
}

func TestRecordMissingFieldUsesDefault(t *testing.T) {
	c := mustCompile(t, personSchema(false), Config{})
	got := decodeTree(t, c, wire.Doc(wire.Elem("name", wire.String("Bob"))))
	want := person{Name: "Bob", Age: 0}
	if got != want {
		t.Fatalf("decoded = %#v, want %#v", got, want)
	}
}

func TestRecordExtraField(t *testing.T) {
	doc := wire.Doc(
		wire.Elem("name", wire.String("Cid")),
		wire.Elem("age", wire.Int32(5)),
		wire.Elem("extra", wire.Boolean(true)),
	)

	t.Run("rejected", func(t *testing.T) {
		c := mustCompile(t, personSchema(true), Config{})
		_, err := c.Decoder.FromValue(doc)
		wantKind(t, err, errors.KindExtraField)
	})

	t.Run("skipped by default", func(t *testing.T) {
		c := mustCompile(t, personSchema(false), Config{})
		got := decodeTree(t, c, doc)
		if got != (person{Name: "Cid", Age: 5}) {
			t.Fatalf("decoded = %#v", got)
		}
	})
}

func TestRecordDuplicateField(t *testing.T) {
	c := mustCompile(t, personSchema(false), Config{})
	_, err := c.Decoder.FromValue(wire.Doc(
		wire.Elem("name", wire.String("A")),
		wire.Elem("name", wire.String("B")),
		wire.Elem("age", wire.Int32(1)),
	))
	wantKind(t, err, errors.KindDuplicateField)
}

func TestRecordMissingRequiredField(t *testing.T) {
	c := mustCompile(t, personSchema(false), Config{})
	_, err := c.Decoder.FromValue(wire.Doc(wire.Elem("age", wire.Int32(9))))
	wantKind(t, err, errors.KindFieldMissing)
}

func TestRecordOptionalFieldOmitted(t *testing.T) {
	type note struct {
		Text string
		Tag  any
	}
	s := &schema.Record{
		Name: "Note",
		Fields: []schema.Field{
			{Name: "text", Schema: str(), Get: func(v any) any { return v.(note).Text }},
			{Name: "tag", Schema: &schema.Optional{Elem: str()}, Get: func(v any) any { return v.(note).Tag }},
		},
		Construct: func(args []any) (any, error) {
			return note{Text: args[0].(string), Tag: args[1]}, nil
		},
	}
	c := mustCompile(t, s, Config{})

	got := encodeTree(t, c, note{Text: "hi"})
	want := wire.Doc(wire.Elem("text", wire.String("hi")))
	if !got.Equal(want) {
		t.Fatalf("encoded = %s, want %s", got, want)
	}

	// absent on the wire resolves through the optional's own fallback
	back := decodeTree(t, c, want)
	if back != (note{Text: "hi", Tag: nil}) {
		t.Fatalf("decoded = %#v", back)
	}

	roundTripBoth(t, c, note{Text: "hey", Tag: "x"})
}

func TestRecordAliasesAndOverride(t *testing.T) {
	s := &schema.Record{
		Name: "Renamed",
		Fields: []schema.Field{
			{
				Name:         "firstName",
				NameOverride: "first_name",
				Aliases:      []string{"fname"},
				Schema:       str(),
				Get:          func(v any) any { return v.(string) },
			},
		},
		Construct: func(args []any) (any, error) { return args[0].(string), nil },
	}
	c := mustCompile(t, s, Config{})

	got := encodeTree(t, c, "Ann")
	if !got.Equal(wire.Doc(wire.Elem("first_name", wire.String("Ann")))) {
		t.Fatalf("encoded = %s", got)
	}

	for _, key := range []string{"first_name", "firstName", "fname"} {
		back := decodeTree(t, c, wire.Doc(wire.Elem(key, wire.String("Bob"))))
		if back != "Bob" {
			t.Fatalf("decode via %q = %#v", key, back)
		}
	}
}

func TestRecordTransientField(t *testing.T) {
	type cached struct {
		Value string
		Hash  int32
	}
	s := &schema.Record{
		Name: "Cached",
		Fields: []schema.Field{
			{Name: "value", Schema: str(), Get: func(v any) any { return v.(cached).Value }},
			{
				Name: "hash", Schema: int32s(),
				Get:       func(v any) any { return v.(cached).Hash },
				Transient: true, Default: int32(-1), HasDefault: true,
			},
		},
		Construct: func(args []any) (any, error) {
			return cached{Value: args[0].(string), Hash: args[1].(int32)}, nil
		},
	}
	c := mustCompile(t, s, Config{})

	got := encodeTree(t, c, cached{Value: "x", Hash: 42})
	if !got.Equal(wire.Doc(wire.Elem("value", wire.String("x")))) {
		t.Fatalf("encoded = %s", got)
	}
	back := decodeTree(t, c, got)
	if back != (cached{Value: "x", Hash: -1}) {
		t.Fatalf("decoded = %#v", back)
	}
}

func TestRecordConstructionFailure(t *testing.T) {
	s := &schema.Record{
		Name: "Checked",
		Fields: []schema.Field{
			{Name: "n", Schema: int32s(), Get: func(v any) any { return v.(int32) }},
		},
		Construct: func(args []any) (any, error) {
			n := args[0].(int32)
			if n < 0 {
				return nil, fmt.Errorf("n must be non-negative, got %d", n)
			}
			return n, nil
		},
	}
	c := mustCompile(t, s, Config{})

	_, err := c.Decoder.FromValue(wire.Doc(wire.Elem("n", wire.Int32(-1))))
	wantKind(t, err, errors.KindConstruction)
}

func identitySchema() *schema.Record {
	return &schema.Record{
		Name: "Ref",
		Fields: []schema.Field{
			{Name: wire.IdentityTag, Schema: str(), Get: func(v any) any { return v.(string) }},
		},
		Construct: func(args []any) (any, error) { return args[0].(string), nil },
	}
}

func TestIdentityTaggedRecord(t *testing.T) {
	const hex = "507f1f77bcf86cd799439011"
	c := mustCompile(t, identitySchema(), Config{})

	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		t.Fatal(err)
	}

	got := encodeTree(t, c, hex)
	if !got.Equal(wire.ObjectID(oid)) {
		t.Fatalf("encoded = %s, want native object id", got)
	}

	back := decodeTree(t, c, wire.ObjectID(oid))
	if back != hex {
		t.Fatalf("decoded = %#v, want %q", back, hex)
	}

	t.Run("bytes surface", func(t *testing.T) {
		bt, data, err := c.Encoder.MarshalValue(hex)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if bt != bsontype.ObjectID {
			t.Fatalf("wire type = %s, want objectid", bt)
		}
		back, err := c.Decoder.UnmarshalValue(bt, data)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if back != hex {
			t.Fatalf("decoded = %#v", back)
		}
	})

	t.Run("invalid hex", func(t *testing.T) {
		_, err := c.Encoder.ToValue("not-hex")
		wantKind(t, err, errors.KindInvalidData)
	})
}

func TestGenericRecord(t *testing.T) {
	s := &schema.GenericRecord{
		Name: "Loose",
		Fields: []schema.Field{
			{Name: "name", Schema: str()},
			{Name: "age", Schema: int32s()},
		},
	}
	c := mustCompile(t, s, Config{})

	v := map[string]any{"name": "Ann", "age": int32(3)}
	got := encodeTree(t, c, v)
	want := wire.Doc(
		wire.Elem("name", wire.String("Ann")),
		wire.Elem("age", wire.Int32(3)),
	)
	if !got.Equal(want) {
		t.Fatalf("encoded = %s, want %s", got, want)
	}

	// unknown wire fields are ignored, missing ones simply left out
	back := decodeTree(t, c, wire.Doc(
		wire.Elem("name", wire.String("Bob")),
		wire.Elem("junk", wire.Boolean(true)),
	))
	if !reflect.DeepEqual(back, map[string]any{"name": "Bob"}) {
		t.Fatalf("decoded = %#v", back)
	}
}
