package wire

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirebind/bsonic/errors"
)

type vwFrame struct {
	doc  Document
	arr  []Value
	name string
	// hasName is only meaningful for document frames
	hasName bool
	isArr   bool
}

// ValueWriter implements Writer by building a Value tree.
type ValueWriter struct {
	frames []vwFrame
	root   Value
	done   bool
}

// NewValueWriter returns an empty tree-surface writer.
func NewValueWriter() *ValueWriter {
	return &ValueWriter{}
}

// Value returns the finished root value.
func (w *ValueWriter) Value() (Value, error) {
	if !w.done || len(w.frames) != 0 {
		return Value{}, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("value still open").Build()
	}
	return w.root, nil
}

func (w *ValueWriter) WriteName(name string) error {
	if len(w.frames) == 0 || w.frames[len(w.frames)-1].isArr {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("WriteName outside an open document").Build()
	}
	f := &w.frames[len(w.frames)-1]
	if f.hasName {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("field name %q written without a value", f.name).Build()
	}
	f.name = name
	f.hasName = true
	return nil
}

// attach places a finished value at the current position.
func (w *ValueWriter) attach(v Value) error {
	if len(w.frames) == 0 {
		if w.done {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Detail("root value already written").Build()
		}
		w.root = v
		w.done = true
		return nil
	}
	f := &w.frames[len(w.frames)-1]
	if f.isArr {
		f.arr = append(f.arr, v)
		return nil
	}
	if !f.hasName {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("value written without a field name").Build()
	}
	f.doc = append(f.doc, Element{Key: f.name, Value: v})
	f.hasName = false
	return nil
}

func (w *ValueWriter) WriteStartDocument() error {
	if len(w.frames) == 0 && w.done {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("root value already written").Build()
	}
	w.frames = append(w.frames, vwFrame{})
	return nil
}

func (w *ValueWriter) WriteEndDocument() error {
	if len(w.frames) == 0 || w.frames[len(w.frames)-1].isArr {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("WriteEndDocument without an open document").Build()
	}
	f := w.frames[len(w.frames)-1]
	if f.hasName {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("field name %q written without a value", f.name).Build()
	}
	w.frames = w.frames[:len(w.frames)-1]
	return w.attach(Doc(f.doc...))
}

func (w *ValueWriter) WriteStartArray() error {
	if len(w.frames) == 0 && w.done {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("root value already written").Build()
	}
	w.frames = append(w.frames, vwFrame{isArr: true})
	return nil
}

func (w *ValueWriter) WriteEndArray() error {
	if len(w.frames) == 0 || !w.frames[len(w.frames)-1].isArr {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("WriteEndArray without an open array").Build()
	}
	f := w.frames[len(w.frames)-1]
	w.frames = w.frames[:len(w.frames)-1]
	vals := f.arr
	if vals == nil {
		vals = []Value{}
	}
	return w.attach(Value{Type: bsontype.Array, data: vals})
}

func (w *ValueWriter) WriteDouble(f float64) error  { return w.attach(Double(f)) }
func (w *ValueWriter) WriteString(s string) error   { return w.attach(String(s)) }
func (w *ValueWriter) WriteBoolean(b bool) error    { return w.attach(Boolean(b)) }
func (w *ValueWriter) WriteInt32(i int32) error     { return w.attach(Int32(i)) }
func (w *ValueWriter) WriteInt64(i int64) error     { return w.attach(Int64(i)) }
func (w *ValueWriter) WriteDateTime(ms int64) error { return w.attach(DateTime(ms)) }
func (w *ValueWriter) WriteNull() error             { return w.attach(Null()) }

func (w *ValueWriter) WriteTimestamp(t, i uint32) error {
	return w.attach(Timestamp(t, i))
}

func (w *ValueWriter) WriteBinary(subtype byte, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	return w.attach(Binary(subtype, cp))
}

func (w *ValueWriter) WriteObjectID(oid primitive.ObjectID) error {
	return w.attach(ObjectID(oid))
}

func (w *ValueWriter) WriteDecimal128(d primitive.Decimal128) error {
	return w.attach(Decimal128(d))
}
