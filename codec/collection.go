package codec

import (
	"fmt"
	"strconv"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

const (
	tupleFirstKey  = "_1"
	tupleSecondKey = "_2"
)

func indexFrame(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

func (c *compiler) sequenceEncoder(elem schema.Schema, nonEmpty bool, path []string) (*Encoder, error) {
	inner, err := c.encoder(elem, path)
	if err != nil {
		return nil, err
	}
	encode := func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
		items, ok := v.([]any)
		if !ok {
			return encodeMismatch(path, "[]any", v)
		}
		if nonEmpty && len(items) == 0 {
			return errors.InvalidData(errors.PhaseEncode, path, "sequence must not be empty")
		}
		if err := w.WriteStartArray(); err != nil {
			return wirePath(path, err)
		}
		for i, item := range items {
			if err := inner.encode(w, item, pathTo(path, indexFrame(i)), EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
				return err
			}
		}
		return wirePath(path, w.WriteEndArray())
	}
	return &Encoder{encode: encode}, nil
}

func (c *compiler) sequenceDecoder(elem schema.Schema, nonEmpty bool, path []string) (*Decoder, error) {
	inner, err := c.decoder(elem, path)
	if err != nil {
		return nil, err
	}
	decode := func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
		if err := r.ReadStartArray(); err != nil {
			return nil, wirePath(path, err)
		}
		items := []any{}
		for r.More() {
			item, err := inner.decode(r, pathTo(path, indexFrame(len(items))), DecodeContext{})
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if err := r.ReadEndArray(); err != nil {
			return nil, wirePath(path, err)
		}
		if nonEmpty && len(items) == 0 {
			return nil, errors.InvalidData(errors.PhaseDecode, path, "sequence must not be empty")
		}
		return items, nil
	}
	return &Decoder{decode: decode}, nil
}

// nameableKeyKind reports whether key values can serve directly as document
// member names, and which primitive kind drives the conversion.
func nameableKeyKind(key schema.Schema) (schema.PrimitiveKind, bool) {
	p, ok := key.(*schema.Primitive)
	if !ok || !p.Kind.FieldNameable() {
		return 0, false
	}
	return p.Kind, true
}

func keyToName(kind schema.PrimitiveKind, v any, path []string) (string, error) {
	switch kind {
	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			return "", encodeMismatch(path, "string", v)
		}
		return s, nil
	case schema.KindInt32:
		n, ok := v.(int32)
		if !ok {
			return "", encodeMismatch(path, "int32", v)
		}
		return strconv.FormatInt(int64(n), 10), nil
	default: // KindInt64
		n, ok := v.(int64)
		if !ok {
			return "", encodeMismatch(path, "int64", v)
		}
		return strconv.FormatInt(n, 10), nil
	}
}

func nameToKey(kind schema.PrimitiveKind, name string, path []string) (any, error) {
	switch kind {
	case schema.KindString:
		return name, nil
	case schema.KindInt32:
		n, err := strconv.ParseInt(name, 10, 32)
		if err != nil {
			return nil, errors.InvalidData(errors.PhaseDecode, path, fmt.Sprintf("member name %q is not a valid int32 key", name))
		}
		return int32(n), nil
	default: // KindInt64
		n, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			return nil, errors.InvalidData(errors.PhaseDecode, path, fmt.Sprintf("member name %q is not a valid int64 key", name))
		}
		return n, nil
	}
}

func (c *compiler) mapEncoder(key, value schema.Schema, nonEmpty bool, path []string) (*Encoder, error) {
	keyKind, nameable := nameableKeyKind(key)
	valEnc, err := c.encoder(value, path)
	if err != nil {
		return nil, err
	}
	var keyEnc *Encoder
	if !nameable {
		keyEnc, err = c.encoder(key, path)
		if err != nil {
			return nil, err
		}
	}

	encode := func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
		pairs, ok := v.([]schema.Pair)
		if !ok {
			return encodeMismatch(path, "[]schema.Pair", v)
		}
		if nonEmpty && len(pairs) == 0 {
			return errors.InvalidData(errors.PhaseEncode, path, "map must not be empty")
		}
		if nameable {
			if err := w.WriteStartDocument(); err != nil {
				return wirePath(path, err)
			}
			for _, p := range pairs {
				name, err := keyToName(keyKind, p.First, path)
				if err != nil {
					return err
				}
				if err := w.WriteName(name); err != nil {
					return wirePath(path, err)
				}
				if err := valEnc.encode(w, p.Second, pathTo(path, name), EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
					return err
				}
			}
			return wirePath(path, w.WriteEndDocument())
		}
		// non-nameable keys fall back to an array of pair documents
		if err := w.WriteStartArray(); err != nil {
			return wirePath(path, err)
		}
		for i, p := range pairs {
			framePath := pathTo(path, indexFrame(i))
			if err := encodePairDoc(w, keyEnc, valEnc, p, framePath, ctx); err != nil {
				return err
			}
		}
		return wirePath(path, w.WriteEndArray())
	}
	return &Encoder{encode: encode}, nil
}

func (c *compiler) mapDecoder(key, value schema.Schema, nonEmpty bool, path []string) (*Decoder, error) {
	keyKind, nameable := nameableKeyKind(key)
	valDec, err := c.decoder(value, path)
	if err != nil {
		return nil, err
	}
	var keyDec *Decoder
	if !nameable {
		keyDec, err = c.decoder(key, path)
		if err != nil {
			return nil, err
		}
	}

	decode := func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
		pairs := []schema.Pair{}
		if nameable {
			if err := r.ReadStartDocument(); err != nil {
				return nil, wirePath(path, err)
			}
			for r.More() {
				name, err := r.ReadName()
				if err != nil {
					return nil, wirePath(path, err)
				}
				k, err := nameToKey(keyKind, name, path)
				if err != nil {
					return nil, err
				}
				v, err := valDec.decode(r, pathTo(path, name), DecodeContext{})
				if err != nil {
					return nil, err
				}
				pairs = append(pairs, schema.Pair{First: k, Second: v})
			}
			if err := r.ReadEndDocument(); err != nil {
				return nil, wirePath(path, err)
			}
		} else {
			if err := r.ReadStartArray(); err != nil {
				return nil, wirePath(path, err)
			}
			for r.More() {
				framePath := pathTo(path, indexFrame(len(pairs)))
				p, err := decodePairDoc(r, keyDec, valDec, framePath)
				if err != nil {
					return nil, err
				}
				pairs = append(pairs, p)
			}
			if err := r.ReadEndArray(); err != nil {
				return nil, wirePath(path, err)
			}
		}
		if nonEmpty && len(pairs) == 0 {
			return nil, errors.InvalidData(errors.PhaseDecode, path, "map must not be empty")
		}
		return pairs, nil
	}
	return &Decoder{decode: decode}, nil
}

func encodePairDoc(w wire.Writer, first, second *Encoder, p schema.Pair, path []string, ctx EncodeContext) error {
	if err := w.WriteStartDocument(); err != nil {
		return wirePath(path, err)
	}
	if err := w.WriteName(tupleFirstKey); err != nil {
		return wirePath(path, err)
	}
	if err := first.encode(w, p.First, pathTo(path, tupleFirstKey), EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
		return err
	}
	if err := w.WriteName(tupleSecondKey); err != nil {
		return wirePath(path, err)
	}
	if err := second.encode(w, p.Second, pathTo(path, tupleSecondKey), EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
		return err
	}
	return wirePath(path, w.WriteEndDocument())
}

func decodePairDoc(r wire.Reader, first, second *Decoder, path []string) (schema.Pair, error) {
	var (
		zero         schema.Pair
		fv, sv       any
		seen1, seen2 bool
	)
	if err := r.ReadStartDocument(); err != nil {
		return zero, wirePath(path, err)
	}
	for r.More() {
		name, err := r.ReadName()
		if err != nil {
			return zero, wirePath(path, err)
		}
		switch name {
		case tupleFirstKey:
			if seen1 {
				return zero, errors.DuplicateField(path, name)
			}
			seen1 = true
			fv, err = first.decode(r, pathTo(path, name), DecodeContext{})
		case tupleSecondKey:
			if seen2 {
				return zero, errors.DuplicateField(path, name)
			}
			seen2 = true
			sv, err = second.decode(r, pathTo(path, name), DecodeContext{})
		default:
			err = wirePath(path, r.Skip())
		}
		if err != nil {
			return zero, err
		}
	}
	if err := r.ReadEndDocument(); err != nil {
		return zero, wirePath(path, err)
	}
	if !seen1 {
		return zero, errors.FieldMissing(path, tupleFirstKey)
	}
	if !seen2 {
		return zero, errors.FieldMissing(path, tupleSecondKey)
	}
	return schema.Pair{First: fv, Second: sv}, nil
}

func (c *compiler) tupleEncoder(t *schema.Tuple2, path []string) (*Encoder, error) {
	first, err := c.encoder(t.First, pathTo(path, tupleFirstKey))
	if err != nil {
		return nil, err
	}
	second, err := c.encoder(t.Second, pathTo(path, tupleSecondKey))
	if err != nil {
		return nil, err
	}
	encode := func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
		p, ok := v.(schema.Pair)
		if !ok {
			return encodeMismatch(path, "schema.Pair", v)
		}
		return encodePairDoc(w, first, second, p, path, ctx)
	}
	return &Encoder{encode: encode}, nil
}

func (c *compiler) tupleDecoder(t *schema.Tuple2, path []string) (*Decoder, error) {
	first, err := c.decoder(t.First, pathTo(path, tupleFirstKey))
	if err != nil {
		return nil, err
	}
	second, err := c.decoder(t.Second, pathTo(path, tupleSecondKey))
	if err != nil {
		return nil, err
	}
	decode := func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
		return decodePairDoc(r, first, second, path)
	}
	return &Decoder{decode: decode}, nil
}
