package codec

import (
	stderrors "errors"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

// wantKind asserts that err is a codec error of the given kind.
func wantKind(t *testing.T, err error, kind errors.Kind) *errors.Error {
	t.Helper()
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("err = %v, want *errors.Error of kind %s", err, kind)
	}
	if e.Kind != kind {
		t.Fatalf("kind = %s, want %s", e.Kind, kind)
	}
	return e
}

func str() *schema.Primitive    { return &schema.Primitive{Kind: schema.KindString} }
func int32s() *schema.Primitive { return &schema.Primitive{Kind: schema.KindInt32} }

type person struct {
	Name string
	Age  int32
}

func personSchema(rejectExtra bool) *schema.Record {
	return &schema.Record{
		Name: "Person",
		Fields: []schema.Field{
			{
				Name:   "name",
				Schema: str(),
				Get:    func(v any) any { return v.(person).Name },
			},
			{
				Name:       "age",
				Schema:     int32s(),
				Get:        func(v any) any { return v.(person).Age },
				Optional:   true,
				Default:    int32(0),
				HasDefault: true,
			},
		},
		Construct: func(args []any) (any, error) {
			return person{Name: args[0].(string), Age: args[1].(int32)}, nil
		},
		RejectExtraFields: rejectExtra,
	}
}

func mustCompile(t *testing.T, s schema.Schema, cfg Config) *Codec {
	t.Helper()
	c, err := Compile(s, cfg)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return c
}

// roundTripBoth checks decode(encode(v)) == v through the byte surface and
// the tree surface independently.
func roundTripBoth(t *testing.T, c *Codec, v any) {
	t.Helper()
	t.Run("bytes", func(t *testing.T) {
		bt, data, err := c.Encoder.MarshalValue(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		got, err := c.Decoder.UnmarshalValue(bt, data)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Fatalf("round trip = %#v, want %#v", got, v)
		}
		if bt != bsontype.EmbeddedDocument {
			return
		}
		// document roots additionally go through the whole-document helpers
		doc, err := c.Marshal(v)
		if err != nil {
			t.Fatalf("marshal document: %v", err)
		}
		got, err = c.Unmarshal(doc)
		if err != nil {
			t.Fatalf("unmarshal document: %v", err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Fatalf("document round trip = %#v, want %#v", got, v)
		}
	})
	t.Run("tree", func(t *testing.T) {
		got, err := c.RoundTripValue(v)
		if err != nil {
			t.Fatalf("round trip: %v", err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Fatalf("round trip = %#v, want %#v", got, v)
		}
	})
}

// encodeTree is a shorthand for the tree form of an encoded value.
func encodeTree(t *testing.T, c *Codec, v any) wire.Value {
	t.Helper()
	tv, err := c.Encoder.ToValue(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return tv
}

// decodeTree decodes a hand-built tree value.
func decodeTree(t *testing.T, c *Codec, v wire.Value) any {
	t.Helper()
	got, err := c.Decoder.FromValue(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return got
}
