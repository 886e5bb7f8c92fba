package codec

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

// uuidSubtype is the RFC 4122 binary subtype.
const uuidSubtype = 0x04

// leafCodec is one entry of the leaf primitive table. The compiler only
// invokes these per Primitive leaf; everything structural lives above.
type leafCodec struct {
	encode encodeFunc
	decode decodeFunc
}

func (c *compiler) primitiveEncoder(t *schema.Primitive, path []string) (*Encoder, error) {
	leaf, ok := leafCodecs[t.Kind]
	if !ok {
		return nil, errors.Malformed(path, "unknown primitive kind %d", t.Kind)
	}
	return &Encoder{encode: leaf.encode}, nil
}

func (c *compiler) primitiveDecoder(t *schema.Primitive, path []string) (*Decoder, error) {
	leaf, ok := leafCodecs[t.Kind]
	if !ok {
		return nil, errors.Malformed(path, "unknown primitive kind %d", t.Kind)
	}
	return &Decoder{decode: leaf.decode}, nil
}

func encodeMismatch(path []string, expected string, v any) error {
	return errors.TypeMismatch(errors.PhaseEncode, path, expected, fmt.Sprintf("%T", v))
}

var leafCodecs = map[schema.PrimitiveKind]leafCodec{
	schema.KindUnit: {
		encode: func(w wire.Writer, _ any, path []string, _ EncodeContext) error {
			if err := w.WriteStartDocument(); err != nil {
				return wirePath(path, err)
			}
			return wirePath(path, w.WriteEndDocument())
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			if err := r.ReadStartDocument(); err != nil {
				return nil, wirePath(path, err)
			}
			for r.More() {
				if _, err := r.ReadName(); err != nil {
					return nil, wirePath(path, err)
				}
				if err := r.Skip(); err != nil {
					return nil, wirePath(path, err)
				}
			}
			if err := r.ReadEndDocument(); err != nil {
				return nil, wirePath(path, err)
			}
			return schema.Unit, nil
		},
	},

	schema.KindBool: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			b, ok := v.(bool)
			if !ok {
				return encodeMismatch(path, "bool", v)
			}
			return wirePath(path, w.WriteBoolean(b))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			b, err := r.ReadBoolean()
			return b, wirePath(path, err)
		},
	},

	schema.KindInt8: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			i, ok := v.(int8)
			if !ok {
				return encodeMismatch(path, "int8", v)
			}
			return wirePath(path, w.WriteInt32(int32(i)))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			i, err := r.ReadInt32()
			if err != nil {
				return nil, wirePath(path, err)
			}
			if i < math.MinInt8 || i > math.MaxInt8 {
				return nil, errors.InvalidData(errors.PhaseDecode, path,
					fmt.Sprintf("value %d out of int8 range", i))
			}
			return int8(i), nil
		},
	},

	schema.KindInt16: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			i, ok := v.(int16)
			if !ok {
				return encodeMismatch(path, "int16", v)
			}
			return wirePath(path, w.WriteInt32(int32(i)))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			i, err := r.ReadInt32()
			if err != nil {
				return nil, wirePath(path, err)
			}
			if i < math.MinInt16 || i > math.MaxInt16 {
				return nil, errors.InvalidData(errors.PhaseDecode, path,
					fmt.Sprintf("value %d out of int16 range", i))
			}
			return int16(i), nil
		},
	},

	schema.KindInt32: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			i, ok := v.(int32)
			if !ok {
				return encodeMismatch(path, "int32", v)
			}
			return wirePath(path, w.WriteInt32(i))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			i, err := r.ReadInt32()
			return i, wirePath(path, err)
		},
	},

	schema.KindInt64: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			i, ok := v.(int64)
			if !ok {
				return encodeMismatch(path, "int64", v)
			}
			return wirePath(path, w.WriteInt64(i))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			i, err := r.ReadInt64()
			return i, wirePath(path, err)
		},
	},

	schema.KindFloat32: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			f, ok := v.(float32)
			if !ok {
				return encodeMismatch(path, "float32", v)
			}
			return wirePath(path, w.WriteDouble(float64(f)))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			f, err := r.ReadDouble()
			if err != nil {
				return nil, wirePath(path, err)
			}
			return float32(f), nil
		},
	},

	schema.KindFloat64: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			f, ok := v.(float64)
			if !ok {
				return encodeMismatch(path, "float64", v)
			}
			return wirePath(path, w.WriteDouble(f))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			f, err := r.ReadDouble()
			return f, wirePath(path, err)
		},
	},

	schema.KindChar: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			c, ok := v.(rune)
			if !ok {
				return encodeMismatch(path, "rune", v)
			}
			return wirePath(path, w.WriteString(string(c)))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			s, err := r.ReadString()
			if err != nil {
				return nil, wirePath(path, err)
			}
			c, size := utf8.DecodeRuneInString(s)
			if size == 0 || size != len(s) || c == utf8.RuneError && size == 1 {
				return nil, errors.InvalidData(errors.PhaseDecode, path,
					fmt.Sprintf("%q is not a single character", s))
			}
			return c, nil
		},
	},

	schema.KindString: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			s, ok := v.(string)
			if !ok {
				return encodeMismatch(path, "string", v)
			}
			return wirePath(path, w.WriteString(s))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			s, err := r.ReadString()
			return s, wirePath(path, err)
		},
	},

	schema.KindBytes: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			b, ok := v.([]byte)
			if !ok {
				return encodeMismatch(path, "[]byte", v)
			}
			return wirePath(path, w.WriteBinary(0x00, b))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			_, data, err := r.ReadBinary()
			return data, wirePath(path, err)
		},
	},

	schema.KindTime: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			t, ok := v.(time.Time)
			if !ok {
				return encodeMismatch(path, "time.Time", v)
			}
			return wirePath(path, w.WriteDateTime(t.UnixMilli()))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			ms, err := r.ReadDateTime()
			if err != nil {
				return nil, wirePath(path, err)
			}
			return time.UnixMilli(ms).UTC(), nil
		},
	},

	schema.KindDuration: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			d, ok := v.(time.Duration)
			if !ok {
				return encodeMismatch(path, "time.Duration", v)
			}
			return wirePath(path, w.WriteInt64(int64(d)))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			i, err := r.ReadInt64()
			if err != nil {
				return nil, wirePath(path, err)
			}
			return time.Duration(i), nil
		},
	},

	schema.KindUUID: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			u, ok := v.(uuid.UUID)
			if !ok {
				return encodeMismatch(path, "uuid.UUID", v)
			}
			return wirePath(path, w.WriteBinary(uuidSubtype, u[:]))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			subtype, data, err := r.ReadBinary()
			if err != nil {
				return nil, wirePath(path, err)
			}
			if subtype != uuidSubtype && subtype != 0x00 {
				return nil, errors.InvalidData(errors.PhaseDecode, path,
					fmt.Sprintf("binary subtype 0x%02x is not a UUID", subtype))
			}
			u, err := uuid.FromBytes(data)
			if err != nil {
				return nil, errors.InvalidData(errors.PhaseDecode, path, err.Error())
			}
			return u, nil
		},
	},

	schema.KindDecimal: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			d, ok := v.(primitive.Decimal128)
			if !ok {
				return encodeMismatch(path, "primitive.Decimal128", v)
			}
			return wirePath(path, w.WriteDecimal128(d))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			d, err := r.ReadDecimal128()
			return d, wirePath(path, err)
		},
	},

	schema.KindObjectID: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			oid, ok := v.(primitive.ObjectID)
			if !ok {
				return encodeMismatch(path, "primitive.ObjectID", v)
			}
			return wirePath(path, w.WriteObjectID(oid))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			oid, err := r.ReadObjectID()
			return oid, wirePath(path, err)
		},
	},

	schema.KindCurrency: {
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			s, ok := v.(string)
			if !ok {
				return encodeMismatch(path, "string currency code", v)
			}
			return wirePath(path, w.WriteString(s))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			s, err := r.ReadString()
			return s, wirePath(path, err)
		},
	},

	schema.KindDay:   int32Leaf("day of month"),
	schema.KindMonth: int32Leaf("month"),
	schema.KindYear:  int32Leaf("year"),
}

// int32Leaf builds the codec shared by the calendar component kinds, which
// all travel as plain int32 values.
func int32Leaf(what string) leafCodec {
	return leafCodec{
		encode: func(w wire.Writer, v any, path []string, _ EncodeContext) error {
			i, ok := v.(int32)
			if !ok {
				return encodeMismatch(path, "int32 "+what, v)
			}
			return wirePath(path, w.WriteInt32(i))
		},
		decode: func(r wire.Reader, path []string, _ DecodeContext) (any, error) {
			i, err := r.ReadInt32()
			return i, wirePath(path, err)
		},
	}
}
