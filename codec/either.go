package codec

import (
	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

const (
	eitherLeftKey  = "left"
	eitherRightKey = "right"
)

func (c *compiler) eitherEncoder(t *schema.Either, path []string) (*Encoder, error) {
	left, err := c.encoder(t.Left, pathTo(path, eitherLeftKey))
	if err != nil {
		return nil, err
	}
	right, err := c.encoder(t.Right, pathTo(path, eitherRightKey))
	if err != nil {
		return nil, err
	}
	encode := func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
		ev, ok := v.(schema.EitherValue)
		if !ok {
			return encodeMismatch(path, "schema.EitherValue", v)
		}
		key, enc := eitherLeftKey, left
		if ev.IsRight {
			key, enc = eitherRightKey, right
		}
		if err := w.WriteStartDocument(); err != nil {
			return wirePath(path, err)
		}
		if err := w.WriteName(key); err != nil {
			return wirePath(path, err)
		}
		if err := enc.encode(w, ev.Value, pathTo(path, key), EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
			return err
		}
		return wirePath(path, w.WriteEndDocument())
	}
	return &Encoder{encode: encode}, nil
}

func (c *compiler) eitherDecoder(t *schema.Either, path []string) (*Decoder, error) {
	left, err := c.decoder(t.Left, pathTo(path, eitherLeftKey))
	if err != nil {
		return nil, err
	}
	right, err := c.decoder(t.Right, pathTo(path, eitherRightKey))
	if err != nil {
		return nil, err
	}
	decode := func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
		if err := r.ReadStartDocument(); err != nil {
			return nil, wirePath(path, err)
		}
		var (
			out       any
			seenLeft  bool
			seenRight bool
		)
		for r.More() {
			name, err := r.ReadName()
			if err != nil {
				return nil, wirePath(path, err)
			}
			switch name {
			case eitherLeftKey:
				if seenLeft {
					return nil, errors.DuplicateField(path, name)
				}
				if seenRight {
					return nil, bothCasesPresent(path)
				}
				seenLeft = true
				v, err := left.decode(r, pathTo(path, name), DecodeContext{})
				if err != nil {
					return nil, err
				}
				out = schema.Left(v)
			case eitherRightKey:
				if seenRight {
					return nil, errors.DuplicateField(path, name)
				}
				if seenLeft {
					return nil, bothCasesPresent(path)
				}
				seenRight = true
				v, err := right.decode(r, pathTo(path, name), DecodeContext{})
				if err != nil {
					return nil, err
				}
				out = schema.Right(v)
			default:
				return nil, errors.InvalidData(errors.PhaseDecode, path, "unexpected field "+name+" in either document")
			}
		}
		if err := r.ReadEndDocument(); err != nil {
			return nil, wirePath(path, err)
		}
		if !seenLeft && !seenRight {
			return nil, bothCasesMissing(path)
		}
		return out, nil
	}
	return &Decoder{decode: decode}, nil
}

func bothCasesPresent(path []string) error {
	return errors.New(errors.PhaseDecode, errors.KindBothCasesPresent).
		Path(path...).Detail("both left and right are present").Build()
}

func bothCasesMissing(path []string) error {
	return errors.New(errors.PhaseDecode, errors.KindBothCasesMissing).
		Path(path...).Detail("neither left nor right is present").Build()
}

// fallbackEncoder always emits the array form: [left], [right], or
// [left, right] when both sides are carried.
func (c *compiler) fallbackEncoder(t *schema.Fallback, path []string) (*Encoder, error) {
	left, err := c.encoder(t.Left, pathTo(path, indexFrame(0)))
	if err != nil {
		return nil, err
	}
	right, err := c.encoder(t.Right, pathTo(path, indexFrame(1)))
	if err != nil {
		return nil, err
	}
	encode := func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
		fv, ok := v.(schema.FallbackValue)
		if !ok {
			return encodeMismatch(path, "schema.FallbackValue", v)
		}
		if !fv.HasLeft && !fv.HasRight {
			return errors.InvalidData(errors.PhaseEncode, path, "fallback value carries neither side")
		}
		if err := w.WriteStartArray(); err != nil {
			return wirePath(path, err)
		}
		i := 0
		if fv.HasLeft {
			if err := left.encode(w, fv.Left, pathTo(path, indexFrame(i)), EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
				return err
			}
			i++
		}
		if fv.HasRight {
			if err := right.encode(w, fv.Right, pathTo(path, indexFrame(i)), EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
				return err
			}
		}
		return wirePath(path, w.WriteEndArray())
	}
	return &Encoder{encode: encode}, nil
}

// fallbackDecoder tries the left decoder on the first array element and
// rewinds onto the right decoder when it fails. A trailing second element
// after a successful left decode is read with the right decoder, yielding
// a both-sides value.
func (c *compiler) fallbackDecoder(t *schema.Fallback, path []string) (*Decoder, error) {
	left, err := c.decoder(t.Left, pathTo(path, indexFrame(0)))
	if err != nil {
		return nil, err
	}
	right, err := c.decoder(t.Right, pathTo(path, indexFrame(1)))
	if err != nil {
		return nil, err
	}
	decode := func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
		if err := r.ReadStartArray(); err != nil {
			return nil, wirePath(path, err)
		}
		if !r.More() {
			return nil, errors.InvalidData(errors.PhaseDecode, path, "empty fallback array")
		}
		mark := r.Mark()
		lv, lerr := left.decode(r, pathTo(path, indexFrame(0)), DecodeContext{})
		var out schema.FallbackValue
		if lerr == nil {
			out = schema.FallbackLeft(lv)
			if r.More() {
				rv, rerr := right.decode(r, pathTo(path, indexFrame(1)), DecodeContext{})
				if rerr != nil {
					return nil, rerr
				}
				out = schema.FallbackBoth(lv, rv)
			}
		} else {
			if err := r.Reset(mark); err != nil {
				return nil, wirePath(path, err)
			}
			rv, rerr := right.decode(r, pathTo(path, indexFrame(0)), DecodeContext{})
			if rerr != nil {
				return nil, errors.New(errors.PhaseDecode, errors.KindBothCasesMissing).
					Path(path...).Detail("neither side decoded the fallback payload").Cause(lerr).Build()
			}
			out = schema.FallbackRight(rv)
		}
		for r.More() {
			if err := r.Skip(); err != nil {
				return nil, wirePath(path, err)
			}
		}
		if err := r.ReadEndArray(); err != nil {
			return nil, wirePath(path, err)
		}
		return out, nil
	}
	return &Decoder{decode: decode}, nil
}
