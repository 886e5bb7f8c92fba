package codec

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/wirebind/bsonic/dyn"
	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

// The default mapping compiles the self-describing descriptor exactly once,
// always under the wrapper representation so the shape tags stay stable
// regardless of the caller's configuration.
var (
	dynOnce sync.Once
	dynEnc  *Encoder
	dynDec  *Decoder
	dynErr  error
)

func dynDefault() (*Encoder, *Decoder, error) {
	dynOnce.Do(func() {
		c := &compiler{cfg: Config{}}
		dynEnc, dynErr = c.encoder(dyn.Schema(), nil)
		if dynErr != nil {
			return
		}
		dynDec, dynErr = c.decoder(dyn.Schema(), nil)
	})
	return dynEnc, dynDec, dynErr
}

func (c *compiler) dynamicEncoder(t *schema.Dynamic, path []string) (*Encoder, error) {
	if t.Direct {
		return &Encoder{encode: encodeDirect}, nil
	}
	enc, _, err := dynDefault()
	if err != nil {
		return nil, err
	}
	encode := func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
		if _, ok := v.(dyn.Value); !ok {
			return encodeMismatch(path, "dyn.Value", v)
		}
		return enc.encode(w, v, path, EncodeContext{KeepNulls: ctx.KeepNulls})
	}
	return &Encoder{encode: encode}, nil
}

func (c *compiler) dynamicDecoder(t *schema.Dynamic, path []string) (*Decoder, error) {
	if t.Direct {
		return &Decoder{decode: decodeDirect}, nil
	}
	_, dec, err := dynDefault()
	if err != nil {
		return nil, err
	}
	decode := func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
		return dec.decode(r, path, DecodeContext{})
	}
	return &Decoder{decode: decode}, nil
}

func dynShapeName(v dyn.Value) string {
	switch v.(type) {
	case *dyn.Record:
		return "record"
	case *dyn.Sequence:
		return "sequence"
	case *dyn.SetValue:
		return "set"
	case *dyn.Primitive:
		return "primitive"
	case *dyn.Singleton:
		return "singleton"
	case *dyn.SomeValue:
		return "some"
	case *dyn.NoneValue:
		return "none"
	case *dyn.Dictionary:
		return "dictionary"
	case *dyn.Tuple:
		return "tuple"
	case *dyn.LeftValue:
		return "left"
	case *dyn.RightValue:
		return "right"
	case *dyn.BothValue:
		return "both"
	case *dyn.Enumeration:
		return "enumeration"
	case *dyn.NodeRef:
		return "node-ref"
	case *dyn.Error:
		return "error"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// identityEntry reports whether the record is the single-entry identity
// form.
func identityEntry(r *dyn.Record) (dyn.Value, bool) {
	if len(r.Entries) != 1 || r.Entries[0].Key != wire.IdentityTag {
		return nil, false
	}
	return r.Entries[0].Value, true
}

// encodeDirect writes a dynamic value as plain wire data, with no shape
// tags. Shapes outside the wire value space are rejected.
func encodeDirect(w wire.Writer, v any, path []string, ctx EncodeContext) error {
	dv, ok := v.(dyn.Value)
	if !ok {
		return encodeMismatch(path, "dyn.Value", v)
	}
	switch t := dv.(type) {
	case *dyn.Record:
		if id, ok := identityEntry(t); ok {
			return encodeDirectIdentity(w, id, pathTo(path, wire.IdentityTag))
		}
		if err := w.WriteStartDocument(); err != nil {
			return wirePath(path, err)
		}
		for _, e := range t.Entries {
			if err := w.WriteName(e.Key); err != nil {
				return wirePath(path, err)
			}
			if err := encodeDirect(w, e.Value, pathTo(path, e.Key), ctx); err != nil {
				return err
			}
		}
		return wirePath(path, w.WriteEndDocument())

	case *dyn.Sequence:
		return encodeDirectItems(w, t.Items, path, ctx)
	case *dyn.SetValue:
		return encodeDirectItems(w, t.Items, path, ctx)

	case *dyn.Primitive:
		leaf, ok := leafCodecs[t.Kind]
		if !ok {
			return errors.Malformed(path, "unknown primitive kind %d", t.Kind)
		}
		return leaf.encode(w, t.Value, path, ctx)

	case *dyn.Singleton:
		return leafCodecs[schema.KindUnit].encode(w, schema.Unit, path, ctx)

	case *dyn.SomeValue:
		return encodeDirect(w, t.Value, path, ctx)
	case *dyn.NoneValue:
		return wirePath(path, w.WriteNull())

	default:
		return errors.UnsupportedShape(errors.PhaseEncode, path, dynShapeName(dv))
	}
}

func encodeDirectItems(w wire.Writer, items []dyn.Value, path []string, ctx EncodeContext) error {
	if err := w.WriteStartArray(); err != nil {
		return wirePath(path, err)
	}
	for i, item := range items {
		if err := encodeDirect(w, item, pathTo(path, indexFrame(i)), ctx); err != nil {
			return err
		}
	}
	return wirePath(path, w.WriteEndArray())
}

func encodeDirectIdentity(w wire.Writer, id dyn.Value, path []string) error {
	p, ok := id.(*dyn.Primitive)
	if !ok {
		return errors.InvalidData(errors.PhaseEncode, path, "identity entry must be a primitive value")
	}
	return encodeIdentityValue(w, p.Value, path)
}

// decodeDirect reads plain wire data back into the dynamic union.
func decodeDirect(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
	bt, err := r.Peek()
	if err != nil {
		return nil, wirePath(path, err)
	}
	switch bt {
	case bsontype.EmbeddedDocument:
		if err := r.ReadStartDocument(); err != nil {
			return nil, wirePath(path, err)
		}
		rec := &dyn.Record{}
		for r.More() {
			name, err := r.ReadName()
			if err != nil {
				return nil, wirePath(path, err)
			}
			v, err := decodeDirect(r, pathTo(path, name), DecodeContext{})
			if err != nil {
				return nil, err
			}
			rec.Entries = append(rec.Entries, dyn.Entry{Key: name, Value: v.(dyn.Value)})
		}
		if err := r.ReadEndDocument(); err != nil {
			return nil, wirePath(path, err)
		}
		if len(rec.Entries) == 0 {
			return &dyn.Singleton{}, nil
		}
		return rec, nil

	case bsontype.Array:
		if err := r.ReadStartArray(); err != nil {
			return nil, wirePath(path, err)
		}
		seq := &dyn.Sequence{}
		for r.More() {
			v, err := decodeDirect(r, pathTo(path, indexFrame(len(seq.Items))), DecodeContext{})
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, v.(dyn.Value))
		}
		if err := r.ReadEndArray(); err != nil {
			return nil, wirePath(path, err)
		}
		return seq, nil

	case bsontype.ObjectID:
		oid, err := r.ReadObjectID()
		if err != nil {
			return nil, wirePath(path, err)
		}
		return &dyn.Record{Entries: []dyn.Entry{{
			Key:   wire.IdentityTag,
			Value: &dyn.Primitive{Kind: schema.KindString, Value: oid.Hex()},
		}}}, nil

	case bsontype.Null:
		if err := r.ReadNull(); err != nil {
			return nil, wirePath(path, err)
		}
		return &dyn.NoneValue{}, nil

	case bsontype.String:
		s, err := r.ReadString()
		return &dyn.Primitive{Kind: schema.KindString, Value: s}, wirePath(path, err)
	case bsontype.Boolean:
		b, err := r.ReadBoolean()
		return &dyn.Primitive{Kind: schema.KindBool, Value: b}, wirePath(path, err)
	case bsontype.Int32:
		i, err := r.ReadInt32()
		return &dyn.Primitive{Kind: schema.KindInt32, Value: i}, wirePath(path, err)
	case bsontype.Int64:
		i, err := r.ReadInt64()
		return &dyn.Primitive{Kind: schema.KindInt64, Value: i}, wirePath(path, err)
	case bsontype.Double:
		f, err := r.ReadDouble()
		return &dyn.Primitive{Kind: schema.KindFloat64, Value: f}, wirePath(path, err)
	case bsontype.DateTime:
		ms, err := r.ReadDateTime()
		return &dyn.Primitive{Kind: schema.KindTime, Value: time.UnixMilli(ms).UTC()}, wirePath(path, err)
	case bsontype.Decimal128:
		d, err := r.ReadDecimal128()
		return &dyn.Primitive{Kind: schema.KindDecimal, Value: d}, wirePath(path, err)

	case bsontype.Binary:
		sub, data, err := r.ReadBinary()
		if err != nil {
			return nil, wirePath(path, err)
		}
		if sub == uuidSubtype {
			u, err := uuid.FromBytes(data)
			if err != nil {
				return nil, errors.InvalidData(errors.PhaseDecode, path, "malformed uuid binary")
			}
			return &dyn.Primitive{Kind: schema.KindUUID, Value: u}, nil
		}
		return &dyn.Primitive{Kind: schema.KindBytes, Value: data}, nil

	default:
		return nil, errors.InvalidData(errors.PhaseDecode, path, fmt.Sprintf("wire type %s has no dynamic representation", bt))
	}
}
