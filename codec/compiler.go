package codec

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.uber.org/zap"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

// CompileEncoder derives an encoder for the descriptor under cfg. The
// descriptor graph is traversed once; Lazy nodes defer to first use.
// A nil or unknown descriptor is a fatal construction-time error.
func CompileEncoder(s schema.Schema, cfg Config) (*Encoder, error) {
	c := &compiler{cfg: cfg}
	enc, err := c.encoder(s, nil)
	if err != nil {
		return nil, err
	}
	logger().Debug("compiled encoder", zap.String("descriptor", describeSchema(s)))
	return enc, nil
}

// CompileDecoder derives a decoder for the descriptor under cfg.
func CompileDecoder(s schema.Schema, cfg Config) (*Decoder, error) {
	c := &compiler{cfg: cfg}
	dec, err := c.decoder(s, nil)
	if err != nil {
		return nil, err
	}
	logger().Debug("compiled decoder", zap.String("descriptor", describeSchema(s)))
	return dec, nil
}

// Compile derives the encoder/decoder pair for the descriptor under cfg.
func Compile(s schema.Schema, cfg Config) (*Codec, error) {
	enc, err := CompileEncoder(s, cfg)
	if err != nil {
		return nil, err
	}
	dec, err := CompileDecoder(s, cfg)
	if err != nil {
		return nil, err
	}
	return &Codec{Encoder: enc, Decoder: dec}, nil
}

// compiler threads the configuration through the recursive derivation and
// owns the memoization cells behind Lazy nodes. Cells outlive the compile
// call itself: they resolve on first encode/decode use.
type compiler struct {
	cfg     Config
	lazyEnc sync.Map // *schema.Lazy -> *lazyEncoderCell
	lazyDec sync.Map // *schema.Lazy -> *lazyDecoderCell
}

func (c *compiler) encoder(s schema.Schema, path []string) (*Encoder, error) {
	switch t := s.(type) {
	case *schema.Primitive:
		return c.primitiveEncoder(t, path)
	case *schema.Optional:
		return c.optionalEncoder(t, path)
	case *schema.Sequence:
		return c.sequenceEncoder(t.Elem, false, path)
	case *schema.NonEmptySequence:
		return c.sequenceEncoder(t.Elem, true, path)
	case *schema.Set:
		return c.sequenceEncoder(t.Elem, false, path)
	case *schema.Map:
		return c.mapEncoder(t.Key, t.Value, false, path)
	case *schema.NonEmptyMap:
		return c.mapEncoder(t.Key, t.Value, true, path)
	case *schema.Tuple2:
		return c.tupleEncoder(t, path)
	case *schema.Either:
		return c.eitherEncoder(t, path)
	case *schema.Fallback:
		return c.fallbackEncoder(t, path)
	case *schema.Transform:
		return c.transformEncoder(t, path)
	case *schema.Fail:
		return failEncoder(t), nil
	case *schema.Record:
		return c.recordEncoder(t, path)
	case *schema.GenericRecord:
		return c.genericEncoder(t, path)
	case *schema.Enum:
		return c.enumEncoder(t, path)
	case *schema.Dynamic:
		return c.dynamicEncoder(t, path)
	case *schema.Lazy:
		return c.lazyEncoder(t, path)
	case nil:
		return nil, errors.Malformed(path, "nil descriptor")
	default:
		return nil, errors.Malformed(path, "unknown descriptor variant %T", s)
	}
}

func (c *compiler) decoder(s schema.Schema, path []string) (*Decoder, error) {
	switch t := s.(type) {
	case *schema.Primitive:
		return c.primitiveDecoder(t, path)
	case *schema.Optional:
		return c.optionalDecoder(t, path)
	case *schema.Sequence:
		return c.sequenceDecoder(t.Elem, false, path)
	case *schema.NonEmptySequence:
		return c.sequenceDecoder(t.Elem, true, path)
	case *schema.Set:
		return c.sequenceDecoder(t.Elem, false, path)
	case *schema.Map:
		return c.mapDecoder(t.Key, t.Value, false, path)
	case *schema.NonEmptyMap:
		return c.mapDecoder(t.Key, t.Value, true, path)
	case *schema.Tuple2:
		return c.tupleDecoder(t, path)
	case *schema.Either:
		return c.eitherDecoder(t, path)
	case *schema.Fallback:
		return c.fallbackDecoder(t, path)
	case *schema.Transform:
		return c.transformDecoder(t, path)
	case *schema.Fail:
		return failDecoder(t), nil
	case *schema.Record:
		return c.recordDecoder(t, path)
	case *schema.GenericRecord:
		return c.genericDecoder(t, path)
	case *schema.Enum:
		return c.enumDecoder(t, path)
	case *schema.Dynamic:
		return c.dynamicDecoder(t, path)
	case *schema.Lazy:
		return c.lazyDecoder(t, path)
	case nil:
		return nil, errors.Malformed(path, "nil descriptor")
	default:
		return nil, errors.Malformed(path, "unknown descriptor variant %T", s)
	}
}

func (c *compiler) optionalEncoder(t *schema.Optional, path []string) (*Encoder, error) {
	inner, err := c.encoder(t.Elem, path)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		encode: func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
			if v == nil {
				return wirePath(path, w.WriteNull())
			}
			return inner.encode(w, v, path, ctx)
		},
		absent: func(v any) bool { return v == nil },
	}, nil
}

func (c *compiler) optionalDecoder(t *schema.Optional, path []string) (*Decoder, error) {
	inner, err := c.decoder(t.Elem, path)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		decode: func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
			bt, err := r.Peek()
			if err != nil {
				return nil, wirePath(path, err)
			}
			if bt == bsontype.Null {
				if err := r.ReadNull(); err != nil {
					return nil, wirePath(path, err)
				}
				return nil, nil
			}
			return inner.decode(r, path, ctx)
		},
		// the designated fallback for an optional field absent from the
		// wire is the absent value itself
		missing: func([]string) (any, error) { return nil, nil },
	}, nil
}

func (c *compiler) transformEncoder(t *schema.Transform, path []string) (*Encoder, error) {
	if t.Backward == nil || t.Forward == nil {
		return nil, errors.Malformed(path, "transform %q missing conversion functions", t.Name)
	}
	inner, err := c.encoder(t.Inner, path)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		encode: func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
			iv, err := t.Backward(v)
			if err != nil {
				// a failed reverse map degrades to an explicit null
				// rather than failing the encode call
				return wirePath(path, w.WriteNull())
			}
			return inner.encode(w, iv, path, ctx)
		},
		absent: func(v any) bool {
			iv, err := t.Backward(v)
			if err != nil {
				return true
			}
			return inner.isAbsent(iv)
		},
		canInline: inner.canInline,
	}, nil
}

func (c *compiler) transformDecoder(t *schema.Transform, path []string) (*Decoder, error) {
	if t.Backward == nil || t.Forward == nil {
		return nil, errors.Malformed(path, "transform %q missing conversion functions", t.Name)
	}
	inner, err := c.decoder(t.Inner, path)
	if err != nil {
		return nil, err
	}
	d := &Decoder{
		decode: func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
			iv, err := inner.decode(r, path, ctx)
			if err != nil {
				return nil, err
			}
			ov, err := t.Forward(iv)
			if err != nil {
				return nil, errors.Construction(path, err)
			}
			return ov, nil
		},
	}
	if inner.missing != nil {
		d.missing = func(path []string) (any, error) {
			iv, err := inner.missing(path)
			if err != nil {
				return nil, err
			}
			ov, err := t.Forward(iv)
			if err != nil {
				return nil, errors.Construction(path, err)
			}
			return ov, nil
		}
	}
	return d, nil
}

func failEncoder(t *schema.Fail) *Encoder {
	return &Encoder{
		encode: func(_ wire.Writer, _ any, path []string, _ EncodeContext) error {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(path...).Detail("%s", t.Message).Build()
		},
	}
}

func failDecoder(t *schema.Fail) *Decoder {
	return &Decoder{
		decode: func(_ wire.Reader, path []string, _ DecodeContext) (any, error) {
			return nil, errors.InvalidData(errors.PhaseDecode, path, t.Message)
		},
	}
}

type lazyEncoderCell struct {
	once sync.Once
	enc  *Encoder
	err  error
}

type lazyDecoderCell struct {
	once sync.Once
	dec  *Decoder
	err  error
}

func (c *compiler) lazyEncoder(t *schema.Lazy, path []string) (*Encoder, error) {
	if t.Resolve == nil {
		return nil, errors.Malformed(path, "lazy descriptor with nil resolver")
	}
	cellI, _ := c.lazyEnc.LoadOrStore(t, &lazyEncoderCell{})
	cell := cellI.(*lazyEncoderCell)
	resolve := func() (*Encoder, error) {
		cell.once.Do(func() {
			cell.enc, cell.err = c.encoder(t.Resolve(), nil)
		})
		return cell.enc, cell.err
	}
	return &Encoder{
		encode: func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
			enc, err := resolve()
			if err != nil {
				return err
			}
			return enc.encode(w, v, path, ctx)
		},
		absent: func(v any) bool {
			enc, err := resolve()
			return err == nil && enc.isAbsent(v)
		},
		// deferred targets are assumed product-shaped when inlined; a
		// scalar target surfaces a writer state error at first use
		canInline: true,
	}, nil
}

func (c *compiler) lazyDecoder(t *schema.Lazy, path []string) (*Decoder, error) {
	if t.Resolve == nil {
		return nil, errors.Malformed(path, "lazy descriptor with nil resolver")
	}
	cellI, _ := c.lazyDec.LoadOrStore(t, &lazyDecoderCell{})
	cell := cellI.(*lazyDecoderCell)
	resolve := func() (*Decoder, error) {
		cell.once.Do(func() {
			cell.dec, cell.err = c.decoder(t.Resolve(), nil)
		})
		return cell.dec, cell.err
	}
	return &Decoder{
		decode: func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
			dec, err := resolve()
			if err != nil {
				return nil, err
			}
			return dec.decode(r, path, ctx)
		},
		missing: func(path []string) (any, error) {
			dec, err := resolve()
			if err != nil {
				return nil, err
			}
			if dec.missing == nil {
				return nil, errors.New(errors.PhaseDecode, errors.KindFieldMissing).
					Path(path...).Detail("missing value for deferred descriptor").Build()
			}
			return dec.missing(path)
		},
	}, nil
}

// describeSchema names a descriptor variant for debug logging.
func describeSchema(s schema.Schema) string {
	switch t := s.(type) {
	case *schema.Primitive:
		return t.Kind.String()
	case *schema.Record:
		return "record " + t.Name
	case *schema.GenericRecord:
		return "generic record " + t.Name
	case *schema.Enum:
		return "enum " + t.Name
	case *schema.Optional:
		return "optional"
	case *schema.Sequence:
		return "sequence"
	case *schema.NonEmptySequence:
		return "non-empty sequence"
	case *schema.Set:
		return "set"
	case *schema.Map:
		return "map"
	case *schema.NonEmptyMap:
		return "non-empty map"
	case *schema.Tuple2:
		return "tuple2"
	case *schema.Either:
		return "either"
	case *schema.Fallback:
		return "fallback"
	case *schema.Transform:
		return "transform " + t.Name
	case *schema.Fail:
		return "fail"
	case *schema.Dynamic:
		return "dynamic"
	case *schema.Lazy:
		return "lazy"
	default:
		return "unknown"
	}
}
