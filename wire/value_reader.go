package wire

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirebind/bsonic/errors"
)

type vrFrame struct {
	doc    Document
	arr    []Value
	idx    int
	cur    Value
	curSet bool
	isArr  bool
}

// ValueReader implements Reader by walking a Value tree.
type ValueReader struct {
	root         Value
	frames       []vrFrame
	rootConsumed bool
}

// NewTreeReader returns a reader over an in-memory document value.
func NewTreeReader(v Value) *ValueReader {
	return &ValueReader{root: v}
}

type valueMark struct {
	frames       []vrFrame
	rootConsumed bool
}

func (valueMark) readerMark() {}

func (r *ValueReader) Mark() Mark {
	frames := make([]vrFrame, len(r.frames))
	copy(frames, r.frames)
	return valueMark{frames: frames, rootConsumed: r.rootConsumed}
}

func (r *ValueReader) Reset(m Mark) error {
	vm, ok := m.(valueMark)
	if !ok {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("mark does not belong to this reader").Build()
	}
	r.frames = r.frames[:0]
	r.frames = append(r.frames, vm.frames...)
	r.rootConsumed = vm.rootConsumed
	return nil
}

func (r *ValueReader) current() (Value, error) {
	if len(r.frames) == 0 {
		if r.rootConsumed {
			return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("root value already read").Build()
		}
		return r.root, nil
	}
	f := &r.frames[len(r.frames)-1]
	if f.isArr {
		if f.idx >= len(f.arr) {
			return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("no more array elements").Build()
		}
		return f.arr[f.idx], nil
	}
	if !f.curSet {
		return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("value read without reading the field name").Build()
	}
	return f.cur, nil
}

func (r *ValueReader) consume() {
	if len(r.frames) == 0 {
		r.rootConsumed = true
		return
	}
	f := &r.frames[len(r.frames)-1]
	if f.isArr {
		f.idx++
		return
	}
	f.curSet = false
}

func (r *ValueReader) Peek() (bsontype.Type, error) {
	v, err := r.current()
	if err != nil {
		return 0, err
	}
	return v.Type, nil
}

func (r *ValueReader) More() bool {
	if len(r.frames) == 0 {
		return !r.rootConsumed
	}
	f := &r.frames[len(r.frames)-1]
	if f.isArr {
		return f.idx < len(f.arr)
	}
	return f.curSet || f.idx < len(f.doc)
}

func (r *ValueReader) ReadStartDocument() error {
	v, err := r.current()
	if err != nil {
		return err
	}
	doc, ok := v.DocumentOK()
	if !ok {
		return errors.TypeMismatch(errors.PhaseDecode, nil, "document", v.Type.String())
	}
	r.consume()
	r.frames = append(r.frames, vrFrame{doc: doc})
	return nil
}

func (r *ValueReader) ReadEndDocument() error {
	if len(r.frames) == 0 || r.frames[len(r.frames)-1].isArr {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("ReadEndDocument without an open document").Build()
	}
	r.frames = r.frames[:len(r.frames)-1]
	return nil
}

func (r *ValueReader) ReadStartArray() error {
	v, err := r.current()
	if err != nil {
		return err
	}
	arr, ok := v.ArrayOK()
	if !ok {
		return errors.TypeMismatch(errors.PhaseDecode, nil, "array", v.Type.String())
	}
	r.consume()
	r.frames = append(r.frames, vrFrame{arr: arr, isArr: true})
	return nil
}

func (r *ValueReader) ReadEndArray() error {
	if len(r.frames) == 0 || !r.frames[len(r.frames)-1].isArr {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("ReadEndArray without an open array").Build()
	}
	r.frames = r.frames[:len(r.frames)-1]
	return nil
}

func (r *ValueReader) ReadName() (string, error) {
	if len(r.frames) == 0 || r.frames[len(r.frames)-1].isArr {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("ReadName outside a document").Build()
	}
	f := &r.frames[len(r.frames)-1]
	if f.curSet {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("previous value not read").Build()
	}
	if f.idx >= len(f.doc) {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("no more document elements").Build()
	}
	el := f.doc[f.idx]
	f.idx++
	f.cur = el.Value
	f.curSet = true
	return el.Key, nil
}

func (r *ValueReader) ReadDouble() (float64, error) {
	v, err := r.current()
	if err != nil {
		return 0, err
	}
	switch v.Type {
	case bsontype.Double:
		f, _ := v.DoubleOK()
		r.consume()
		return f, nil
	case bsontype.Int32:
		i, _ := v.Int32OK()
		r.consume()
		return float64(i), nil
	case bsontype.Int64:
		i, _ := v.Int64OK()
		r.consume()
		return float64(i), nil
	}
	return 0, errors.TypeMismatch(errors.PhaseDecode, nil, "double", v.Type.String())
}

func (r *ValueReader) ReadString() (string, error) {
	v, err := r.current()
	if err != nil {
		return "", err
	}
	s, ok := v.StringOK()
	if !ok {
		return "", errors.TypeMismatch(errors.PhaseDecode, nil, "string", v.Type.String())
	}
	r.consume()
	return s, nil
}

func (r *ValueReader) ReadBoolean() (bool, error) {
	v, err := r.current()
	if err != nil {
		return false, err
	}
	b, ok := v.BooleanOK()
	if !ok {
		return false, errors.TypeMismatch(errors.PhaseDecode, nil, "boolean", v.Type.String())
	}
	r.consume()
	return b, nil
}

func (r *ValueReader) ReadInt32() (int32, error) {
	v, err := r.current()
	if err != nil {
		return 0, err
	}
	i, ok := v.Int32OK()
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseDecode, nil, "int32", v.Type.String())
	}
	r.consume()
	return i, nil
}

func (r *ValueReader) ReadInt64() (int64, error) {
	v, err := r.current()
	if err != nil {
		return 0, err
	}
	switch v.Type {
	case bsontype.Int64:
		i, _ := v.Int64OK()
		r.consume()
		return i, nil
	case bsontype.Int32:
		i, _ := v.Int32OK()
		r.consume()
		return int64(i), nil
	}
	return 0, errors.TypeMismatch(errors.PhaseDecode, nil, "int64", v.Type.String())
}

func (r *ValueReader) ReadDateTime() (int64, error) {
	v, err := r.current()
	if err != nil {
		return 0, err
	}
	ms, ok := v.DateTimeOK()
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseDecode, nil, "datetime", v.Type.String())
	}
	r.consume()
	return ms, nil
}

func (r *ValueReader) ReadTimestamp() (uint32, uint32, error) {
	v, err := r.current()
	if err != nil {
		return 0, 0, err
	}
	ts, ok := v.TimestampOK()
	if !ok {
		return 0, 0, errors.TypeMismatch(errors.PhaseDecode, nil, "timestamp", v.Type.String())
	}
	r.consume()
	return ts.T, ts.I, nil
}

func (r *ValueReader) ReadBinary() (byte, []byte, error) {
	v, err := r.current()
	if err != nil {
		return 0, nil, err
	}
	b, ok := v.BinaryOK()
	if !ok {
		return 0, nil, errors.TypeMismatch(errors.PhaseDecode, nil, "binary", v.Type.String())
	}
	r.consume()
	return b.Subtype, b.Data, nil
}

func (r *ValueReader) ReadObjectID() (primitive.ObjectID, error) {
	v, err := r.current()
	if err != nil {
		return primitive.ObjectID{}, err
	}
	oid, ok := v.ObjectIDOK()
	if !ok {
		return primitive.ObjectID{}, errors.TypeMismatch(errors.PhaseDecode, nil, "objectid", v.Type.String())
	}
	r.consume()
	return oid, nil
}

func (r *ValueReader) ReadDecimal128() (primitive.Decimal128, error) {
	v, err := r.current()
	if err != nil {
		return primitive.Decimal128{}, err
	}
	d, ok := v.Decimal128OK()
	if !ok {
		return primitive.Decimal128{}, errors.TypeMismatch(errors.PhaseDecode, nil, "decimal128", v.Type.String())
	}
	r.consume()
	return d, nil
}

func (r *ValueReader) ReadNull() error {
	v, err := r.current()
	if err != nil {
		return err
	}
	if v.Type != bsontype.Null {
		return errors.TypeMismatch(errors.PhaseDecode, nil, "null", v.Type.String())
	}
	r.consume()
	return nil
}

func (r *ValueReader) Skip() error {
	if _, err := r.current(); err != nil {
		return err
	}
	r.consume()
	return nil
}
