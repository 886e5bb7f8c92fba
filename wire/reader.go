package wire

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/wirebind/bsonic/errors"
)

// Mark is an opaque reader position snapshot. At most one mark needs to be
// active at a time; taking a new mark invalidates nothing, but readers only
// guarantee Reset for marks they produced themselves.
type Mark interface {
	readerMark()
}

// Reader is the streaming cursor codecs decode from. Peek reports the type
// of the next value without consuming it; inside a document the next value
// becomes current after ReadName. A Reader is not safe for concurrent use.
type Reader interface {
	// Peek returns the type of the value about to be read.
	Peek() (bsontype.Type, error)

	ReadStartDocument() error
	ReadEndDocument() error
	ReadStartArray() error
	ReadEndArray() error

	// More reports whether the current document or array has another
	// element; at the root it reports whether the root value is unread.
	More() bool

	// ReadName consumes the next element's key inside a document.
	ReadName() (string, error)

	ReadDouble() (float64, error)
	ReadString() (string, error)
	ReadBoolean() (bool, error)
	ReadInt32() (int32, error)
	ReadInt64() (int64, error)
	ReadDateTime() (int64, error)
	ReadTimestamp() (t, i uint32, err error)
	ReadBinary() (subtype byte, data []byte, err error)
	ReadObjectID() (primitive.ObjectID, error)
	ReadDecimal128() (primitive.Decimal128, error)
	ReadNull() error

	// Skip consumes the current value without decoding it.
	Skip() error

	Mark() Mark
	Reset(Mark) error
}

type rframe struct {
	elems  []bsoncore.Element // document frame
	vals   []bsoncore.Value   // array frame
	idx    int
	cur    bsoncore.Value
	curSet bool
	arr    bool
}

// DocumentReader implements Reader over raw BSON bytes.
type DocumentReader struct {
	root         bsoncore.Value
	frames       []rframe
	rootConsumed bool
}

// NewDocumentReader returns a reader whose root value is the given BSON
// document.
func NewDocumentReader(doc []byte) *DocumentReader {
	return &DocumentReader{root: bsoncore.Value{Type: bsontype.EmbeddedDocument, Data: doc}}
}

// NewValueReader returns a reader over a single value of any type, given
// its raw value bytes.
func NewValueReader(t bsontype.Type, data []byte) *DocumentReader {
	return &DocumentReader{root: bsoncore.Value{Type: t, Data: data}}
}

type docMark struct {
	frames       []rframe
	rootConsumed bool
}

func (docMark) readerMark() {}

func (r *DocumentReader) Mark() Mark {
	frames := make([]rframe, len(r.frames))
	copy(frames, r.frames)
	return docMark{frames: frames, rootConsumed: r.rootConsumed}
}

func (r *DocumentReader) Reset(m Mark) error {
	dm, ok := m.(docMark)
	if !ok {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("mark does not belong to this reader").Build()
	}
	r.frames = r.frames[:0]
	r.frames = append(r.frames, dm.frames...)
	r.rootConsumed = dm.rootConsumed
	return nil
}

// current returns the value about to be read, without consuming it.
func (r *DocumentReader) current() (bsoncore.Value, error) {
	if len(r.frames) == 0 {
		if r.rootConsumed {
			return bsoncore.Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("root value already read").Build()
		}
		return r.root, nil
	}
	f := &r.frames[len(r.frames)-1]
	if f.arr {
		if f.idx >= len(f.vals) {
			return bsoncore.Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("no more array elements").Build()
		}
		return f.vals[f.idx], nil
	}
	if !f.curSet {
		return bsoncore.Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("value read without reading the field name").Build()
	}
	return f.cur, nil
}

func (r *DocumentReader) consume() {
	if len(r.frames) == 0 {
		r.rootConsumed = true
		return
	}
	f := &r.frames[len(r.frames)-1]
	if f.arr {
		f.idx++
		return
	}
	f.curSet = false
}

func (r *DocumentReader) Peek() (bsontype.Type, error) {
	v, err := r.current()
	if err != nil {
		return 0, err
	}
	return v.Type, nil
}

func (r *DocumentReader) More() bool {
	if len(r.frames) == 0 {
		return !r.rootConsumed
	}
	f := &r.frames[len(r.frames)-1]
	if f.arr {
		return f.idx < len(f.vals)
	}
	return f.curSet || f.idx < len(f.elems)
}

func (r *DocumentReader) ReadStartDocument() error {
	v, err := r.current()
	if err != nil {
		return err
	}
	doc, ok := v.DocumentOK()
	if !ok {
		return errors.TypeMismatch(errors.PhaseDecode, nil, "document", v.Type.String())
	}
	elems, err := doc.Elements()
	if err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("malformed document").Cause(err).Build()
	}
	r.consume()
	r.frames = append(r.frames, rframe{elems: elems})
	return nil
}

func (r *DocumentReader) ReadEndDocument() error {
	if len(r.frames) == 0 || r.frames[len(r.frames)-1].arr {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("ReadEndDocument without an open document").Build()
	}
	r.frames = r.frames[:len(r.frames)-1]
	return nil
}

func (r *DocumentReader) ReadStartArray() error {
	v, err := r.current()
	if err != nil {
		return err
	}
	arr, ok := v.ArrayOK()
	if !ok {
		return errors.TypeMismatch(errors.PhaseDecode, nil, "array", v.Type.String())
	}
	vals, err := arr.Values()
	if err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("malformed array").Cause(err).Build()
	}
	r.consume()
	r.frames = append(r.frames, rframe{vals: vals, arr: true})
	return nil
}

func (r *DocumentReader) ReadEndArray() error {
	if len(r.frames) == 0 || !r.frames[len(r.frames)-1].arr {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("ReadEndArray without an open array").Build()
	}
	r.frames = r.frames[:len(r.frames)-1]
	return nil
}

func (r *DocumentReader) ReadName() (string, error) {
	if len(r.frames) == 0 || r.frames[len(r.frames)-1].arr {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("ReadName outside a document").Build()
	}
	f := &r.frames[len(r.frames)-1]
	if f.curSet {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("previous value not read").Build()
	}
	if f.idx >= len(f.elems) {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("no more document elements").Build()
	}
	el := f.elems[f.idx]
	key, err := el.KeyErr()
	if err != nil {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("malformed element key").Cause(err).Build()
	}
	val, err := el.ValueErr()
	if err != nil {
		return "", errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("malformed element value").Cause(err).Build()
	}
	f.idx++
	f.cur = val
	f.curSet = true
	return key, nil
}

func (r *DocumentReader) ReadDouble() (float64, error) {
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

func (r *DocumentReader) ReadString() (string, error) {
	v, err := r.current()
	if err != nil {
		return "", err
	}
	s, ok := v.StringValueOK()
	if !ok {
		return "", errors.TypeMismatch(errors.PhaseDecode, nil, "string", v.Type.String())
	}
	r.consume()
	return s, nil
}

func (r *DocumentReader) ReadBoolean() (bool, error) {
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

func (r *DocumentReader) ReadInt32() (int32, error) {
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

func (r *DocumentReader) ReadInt64() (int64, error) {
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

func (r *DocumentReader) ReadDateTime() (int64, error) {
	v, err := r.current()
	if err != nil {
		return 0, err
	}
	dt, ok := v.DateTimeOK()
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseDecode, nil, "datetime", v.Type.String())
	}
	r.consume()
	return dt, nil
}

func (r *DocumentReader) ReadTimestamp() (uint32, uint32, error) {
	v, err := r.current()
	if err != nil {
		return 0, 0, err
	}
	t, i, ok := v.TimestampOK()
	if !ok {
		return 0, 0, errors.TypeMismatch(errors.PhaseDecode, nil, "timestamp", v.Type.String())
	}
	r.consume()
	return t, i, nil
}

func (r *DocumentReader) ReadBinary() (byte, []byte, error) {
	v, err := r.current()
	if err != nil {
		return 0, nil, err
	}
	subtype, data, ok := v.BinaryOK()
	if !ok {
		return 0, nil, errors.TypeMismatch(errors.PhaseDecode, nil, "binary", v.Type.String())
	}
	r.consume()
	return subtype, data, nil
}

func (r *DocumentReader) ReadObjectID() (primitive.ObjectID, error) {
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

func (r *DocumentReader) ReadDecimal128() (primitive.Decimal128, error) {
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

func (r *DocumentReader) ReadNull() error {
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

func (r *DocumentReader) Skip() error {
	if _, err := r.current(); err != nil {
		return err
	}
	r.consume()
	return nil
}
