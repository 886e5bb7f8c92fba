package wire

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/wirebind/bsonic/errors"
)

// Value is the in-memory document tree form of a wire value. The zero
// Value is invalid; build values with the constructors below or by
// encoding through a ValueWriter.
type Value struct {
	Type bsontype.Type
	data any
}

// Element is one named member of a document.
type Element struct {
	Key   string
	Value Value
}

// Document is an ordered-key map. Order is irrelevant for lookup and
// relevant only for the discriminator write position.
type Document []Element

// Lookup returns the first element with the given key.
func (d Document) Lookup(key string) (Value, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

func Double(f float64) Value    { return Value{Type: bsontype.Double, data: f} }
func String(s string) Value     { return Value{Type: bsontype.String, data: s} }
func Boolean(b bool) Value      { return Value{Type: bsontype.Boolean, data: b} }
func Int32(i int32) Value       { return Value{Type: bsontype.Int32, data: i} }
func Int64(i int64) Value       { return Value{Type: bsontype.Int64, data: i} }
func DateTime(ms int64) Value   { return Value{Type: bsontype.DateTime, data: ms} }
func Null() Value               { return Value{Type: bsontype.Null} }
func Array(vals ...Value) Value { return Value{Type: bsontype.Array, data: vals} }

func Timestamp(t, i uint32) Value {
	return Value{Type: bsontype.Timestamp, data: primitive.Timestamp{T: t, I: i}}
}

func Binary(subtype byte, data []byte) Value {
	return Value{Type: bsontype.Binary, data: primitive.Binary{Subtype: subtype, Data: data}}
}

func ObjectID(oid primitive.ObjectID) Value {
	return Value{Type: bsontype.ObjectID, data: oid}
}

func Decimal128(d primitive.Decimal128) Value {
	return Value{Type: bsontype.Decimal128, data: d}
}

// Doc builds a document value from elements in order.
func Doc(elems ...Element) Value {
	return Value{Type: bsontype.EmbeddedDocument, data: Document(elems)}
}

// Elem pairs a key with a value.
func Elem(key string, v Value) Element {
	return Element{Key: key, Value: v}
}

func (v Value) DoubleOK() (float64, bool) {
	f, ok := v.data.(float64)
	return f, ok && v.Type == bsontype.Double
}

func (v Value) StringOK() (string, bool) {
	s, ok := v.data.(string)
	return s, ok && v.Type == bsontype.String
}

func (v Value) BooleanOK() (bool, bool) {
	b, ok := v.data.(bool)
	return b, ok && v.Type == bsontype.Boolean
}

func (v Value) Int32OK() (int32, bool) {
	i, ok := v.data.(int32)
	return i, ok && v.Type == bsontype.Int32
}

func (v Value) Int64OK() (int64, bool) {
	i, ok := v.data.(int64)
	return i, ok && v.Type == bsontype.Int64
}

func (v Value) DateTimeOK() (int64, bool) {
	ms, ok := v.data.(int64)
	return ms, ok && v.Type == bsontype.DateTime
}

func (v Value) TimestampOK() (primitive.Timestamp, bool) {
	ts, ok := v.data.(primitive.Timestamp)
	return ts, ok
}

func (v Value) BinaryOK() (primitive.Binary, bool) {
	b, ok := v.data.(primitive.Binary)
	return b, ok
}

func (v Value) ObjectIDOK() (primitive.ObjectID, bool) {
	oid, ok := v.data.(primitive.ObjectID)
	return oid, ok
}

func (v Value) Decimal128OK() (primitive.Decimal128, bool) {
	d, ok := v.data.(primitive.Decimal128)
	return d, ok
}

func (v Value) DocumentOK() (Document, bool) {
	d, ok := v.data.(Document)
	return d, ok
}

func (v Value) ArrayOK() ([]Value, bool) {
	a, ok := v.data.([]Value)
	return a, ok
}

func (v Value) IsNull() bool { return v.Type == bsontype.Null }

// Equal reports deep structural equality, including document key order.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case bsontype.EmbeddedDocument:
		a, _ := v.DocumentOK()
		b, _ := o.DocumentOK()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].Key != b[i].Key || !a[i].Value.Equal(b[i].Value) {
				return false
			}
		}
		return true
	case bsontype.Array:
		a, _ := v.ArrayOK()
		b, _ := o.ArrayOK()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case bsontype.Binary:
		a, _ := v.BinaryOK()
		b, _ := o.BinaryOK()
		return a.Subtype == b.Subtype && string(a.Data) == string(b.Data)
	case bsontype.Null:
		return true
	default:
		return v.data == o.data
	}
}

// String renders the value in a compact extended-JSON-ish form for logs
// and test failure messages.
func (v Value) String() string {
	switch v.Type {
	case bsontype.EmbeddedDocument:
		d, _ := v.DocumentOK()
		var b strings.Builder
		b.WriteByte('{')
		for i, e := range d {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q: %s", e.Key, e.Value.String())
		}
		b.WriteByte('}')
		return b.String()
	case bsontype.Array:
		a, _ := v.ArrayOK()
		parts := make([]string, len(a))
		for i, e := range a {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case bsontype.String:
		s, _ := v.StringOK()
		return fmt.Sprintf("%q", s)
	case bsontype.Null:
		return "null"
	case bsontype.ObjectID:
		oid, _ := v.ObjectIDOK()
		return fmt.Sprintf("ObjectID(%q)", oid.Hex())
	default:
		return fmt.Sprintf("%v", v.data)
	}
}

// ParseDocument converts raw BSON document bytes into a Value tree.
func ParseDocument(doc []byte) (Value, error) {
	return fromCore(bsoncore.Value{Type: bsontype.EmbeddedDocument, Data: doc})
}

// ParseValue converts a raw wire value into a Value tree.
func ParseValue(t bsontype.Type, data []byte) (Value, error) {
	return fromCore(bsoncore.Value{Type: t, Data: data})
}

func fromCore(v bsoncore.Value) (Value, error) {
	switch v.Type {
	case bsontype.EmbeddedDocument:
		doc, ok := v.DocumentOK()
		if !ok {
			return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("malformed document").Build()
		}
		elems, err := doc.Elements()
		if err != nil {
			return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("malformed document").Cause(err).Build()
		}
		out := make(Document, 0, len(elems))
		for _, el := range elems {
			key, err := el.KeyErr()
			if err != nil {
				return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Detail("malformed element key").Cause(err).Build()
			}
			ev, err := el.ValueErr()
			if err != nil {
				return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Detail("malformed element value").Cause(err).Build()
			}
			child, err := fromCore(ev)
			if err != nil {
				return Value{}, errors.Prepend(key, err)
			}
			out = append(out, Element{Key: key, Value: child})
		}
		return Doc(out...), nil
	case bsontype.Array:
		arr, ok := v.ArrayOK()
		if !ok {
			return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("malformed array").Build()
		}
		vals, err := arr.Values()
		if err != nil {
			return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("malformed array").Cause(err).Build()
		}
		out := make([]Value, 0, len(vals))
		for i, cv := range vals {
			child, err := fromCore(cv)
			if err != nil {
				return Value{}, errors.Prepend(fmt.Sprintf("[%d]", i), err)
			}
			out = append(out, child)
		}
		return Value{Type: bsontype.Array, data: out}, nil
	case bsontype.Double:
		f, _ := v.DoubleOK()
		return Double(f), nil
	case bsontype.String:
		s, _ := v.StringValueOK()
		return String(s), nil
	case bsontype.Boolean:
		b, _ := v.BooleanOK()
		return Boolean(b), nil
	case bsontype.Int32:
		i, _ := v.Int32OK()
		return Int32(i), nil
	case bsontype.Int64:
		i, _ := v.Int64OK()
		return Int64(i), nil
	case bsontype.DateTime:
		ms, _ := v.DateTimeOK()
		return DateTime(ms), nil
	case bsontype.Timestamp:
		t, i, _ := v.TimestampOK()
		return Timestamp(t, i), nil
	case bsontype.Binary:
		subtype, data, _ := v.BinaryOK()
		cp := make([]byte, len(data))
		copy(cp, data)
		return Binary(subtype, cp), nil
	case bsontype.ObjectID:
		oid, _ := v.ObjectIDOK()
		return ObjectID(oid), nil
	case bsontype.Decimal128:
		d, _ := v.Decimal128OK()
		return Decimal128(d), nil
	case bsontype.Null:
		return Null(), nil
	default:
		return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("unsupported wire type %s", v.Type.String()).Build()
	}
}
