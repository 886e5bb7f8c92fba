package wire

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/wirebind/bsonic/errors"
)

// IdentityTag is the reserved field name for the native object identifier.
const IdentityTag = "$oid"

// Writer is the streaming sink codecs encode into. Inside a document every
// value write must be preceded by WriteName; inside an array element keys
// are synthesized. A Writer holds a single value under construction and is
// not safe for concurrent use.
type Writer interface {
	WriteStartDocument() error
	WriteEndDocument() error
	WriteStartArray() error
	WriteEndArray() error
	WriteName(name string) error

	WriteDouble(f float64) error
	WriteString(s string) error
	WriteBoolean(b bool) error
	WriteInt32(i int32) error
	WriteInt64(i int64) error
	WriteDateTime(ms int64) error
	WriteTimestamp(t, i uint32) error
	WriteBinary(subtype byte, data []byte) error
	WriteObjectID(oid primitive.ObjectID) error
	WriteDecimal128(d primitive.Decimal128) error
	WriteNull() error
}

type wframeKind uint8

const (
	wframeDoc wframeKind = iota
	wframeArr
)

type wframe struct {
	kind  wframeKind
	start int32 // reserved length index in buf
	next  int   // next array element index
}

// DocumentWriter implements Writer by appending BSON bytes via bsoncore.
type DocumentWriter struct {
	buf      []byte
	frames   []wframe
	pending  string
	hasName  bool
	rootType bsontype.Type
	done     bool
}

// NewDocumentWriter returns an empty byte-surface writer.
func NewDocumentWriter() *DocumentWriter {
	return &DocumentWriter{}
}

// key resolves the element key for the next value write.
func (w *DocumentWriter) key() (string, error) {
	if len(w.frames) == 0 {
		if w.done {
			return "", errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Detail("root value already written").Build()
		}
		return "", nil
	}
	f := &w.frames[len(w.frames)-1]
	if f.kind == wframeArr {
		k := strconv.Itoa(f.next)
		f.next++
		return k, nil
	}
	if !w.hasName {
		return "", errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("value written without a field name").Build()
	}
	w.hasName = false
	return w.pending, nil
}

func (w *DocumentWriter) finish(t bsontype.Type) {
	if len(w.frames) == 0 {
		w.rootType = t
		w.done = true
	}
}

func (w *DocumentWriter) WriteName(name string) error {
	if len(w.frames) == 0 || w.frames[len(w.frames)-1].kind != wframeDoc {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("WriteName outside an open document").Build()
	}
	if w.hasName {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("field name %q written without a value", w.pending).Build()
	}
	w.pending = name
	w.hasName = true
	return nil
}

func (w *DocumentWriter) WriteStartDocument() error {
	k, err := w.key()
	if err != nil {
		return err
	}
	root := len(w.frames) == 0
	idx, buf := bsoncore.AppendDocumentElementStart(w.buf, k)
	w.buf = buf
	w.frames = append(w.frames, wframe{kind: wframeDoc, start: idx})
	if root {
		w.rootType = bsontype.EmbeddedDocument
	}
	return nil
}

func (w *DocumentWriter) WriteEndDocument() error {
	if len(w.frames) == 0 || w.frames[len(w.frames)-1].kind != wframeDoc {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("WriteEndDocument without an open document").Build()
	}
	if w.hasName {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("field name %q written without a value", w.pending).Build()
	}
	f := w.frames[len(w.frames)-1]
	w.frames = w.frames[:len(w.frames)-1]
	buf, err := bsoncore.AppendDocumentEnd(w.buf, f.start)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).Cause(err).Build()
	}
	w.buf = buf
	if len(w.frames) == 0 {
		w.done = true
	}
	return nil
}

func (w *DocumentWriter) WriteStartArray() error {
	k, err := w.key()
	if err != nil {
		return err
	}
	root := len(w.frames) == 0
	idx, buf := bsoncore.AppendArrayElementStart(w.buf, k)
	w.buf = buf
	w.frames = append(w.frames, wframe{kind: wframeArr, start: idx})
	if root {
		w.rootType = bsontype.Array
	}
	return nil
}

func (w *DocumentWriter) WriteEndArray() error {
	if len(w.frames) == 0 || w.frames[len(w.frames)-1].kind != wframeArr {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("WriteEndArray without an open array").Build()
	}
	f := w.frames[len(w.frames)-1]
	w.frames = w.frames[:len(w.frames)-1]
	buf, err := bsoncore.AppendArrayEnd(w.buf, f.start)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).Cause(err).Build()
	}
	w.buf = buf
	if len(w.frames) == 0 {
		w.done = true
	}
	return nil
}

func (w *DocumentWriter) WriteDouble(f float64) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendDoubleElement(w.buf, k, f)
	w.finish(bsontype.Double)
	return nil
}

func (w *DocumentWriter) WriteString(s string) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendStringElement(w.buf, k, s)
	w.finish(bsontype.String)
	return nil
}

func (w *DocumentWriter) WriteBoolean(b bool) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendBooleanElement(w.buf, k, b)
	w.finish(bsontype.Boolean)
	return nil
}

func (w *DocumentWriter) WriteInt32(i int32) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendInt32Element(w.buf, k, i)
	w.finish(bsontype.Int32)
	return nil
}

func (w *DocumentWriter) WriteInt64(i int64) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendInt64Element(w.buf, k, i)
	w.finish(bsontype.Int64)
	return nil
}

func (w *DocumentWriter) WriteDateTime(ms int64) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendDateTimeElement(w.buf, k, ms)
	w.finish(bsontype.DateTime)
	return nil
}

func (w *DocumentWriter) WriteTimestamp(t, i uint32) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendTimestampElement(w.buf, k, t, i)
	w.finish(bsontype.Timestamp)
	return nil
}

func (w *DocumentWriter) WriteBinary(subtype byte, data []byte) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendBinaryElement(w.buf, k, subtype, data)
	w.finish(bsontype.Binary)
	return nil
}

func (w *DocumentWriter) WriteObjectID(oid primitive.ObjectID) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendObjectIDElement(w.buf, k, oid)
	w.finish(bsontype.ObjectID)
	return nil
}

func (w *DocumentWriter) WriteDecimal128(d primitive.Decimal128) error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendDecimal128Element(w.buf, k, d)
	w.finish(bsontype.Decimal128)
	return nil
}

func (w *DocumentWriter) WriteNull() error {
	k, err := w.key()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendNullElement(w.buf, k)
	w.finish(bsontype.Null)
	return nil
}

// Bytes returns the finished BSON document. It fails when the root value
// is not a document or writing is still in progress.
func (w *DocumentWriter) Bytes() ([]byte, error) {
	if len(w.frames) != 0 || !w.done {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("document still open").Build()
	}
	if w.rootType != bsontype.EmbeddedDocument {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("root value is %s, not a document", w.rootType.String()).Build()
	}
	t, data, ok := w.rootValue()
	if !ok || t != bsontype.EmbeddedDocument {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("malformed root value").Build()
	}
	return data, nil
}

// Result returns the root value's type and raw value bytes, usable for
// non-document roots such as a bare enum string.
func (w *DocumentWriter) Result() (bsontype.Type, []byte, error) {
	if len(w.frames) != 0 || !w.done {
		return 0, nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("document still open").Build()
	}
	t, data, ok := w.rootValue()
	if !ok {
		return 0, nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("malformed root value").Build()
	}
	return t, data, nil
}

// rootValue strips the synthetic empty-key element header: one type byte
// plus the terminating NUL of the empty key.
func (w *DocumentWriter) rootValue() (bsontype.Type, []byte, bool) {
	if len(w.buf) < 2 {
		return 0, nil, false
	}
	return bsontype.Type(w.buf[0]), w.buf[2:], true
}
