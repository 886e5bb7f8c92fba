package codec

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/wire"
)

// EncodeContext carries per-call instructions between composed encoders.
type EncodeContext struct {
	// Inline makes a product encoder write its fields into the enclosing
	// open document instead of starting its own. Used by the
	// discriminator sum-type strategy.
	Inline bool

	// KeepNulls writes absent optional fields as explicit nulls instead
	// of omitting them.
	KeepNulls bool
}

// DecodeContext carries per-call instructions between composed decoders.
type DecodeContext struct {
	// IgnoreField names one wire field a product decoder must silently
	// skip even under a reject-extra-fields policy; an enclosing sum
	// decoder has already consumed it as the discriminator.
	IgnoreField string
}

type encodeFunc func(w wire.Writer, v any, path []string, ctx EncodeContext) error
type decodeFunc func(r wire.Reader, path []string, ctx DecodeContext) (any, error)

// Encoder writes values of one descriptor to the wire. Encoders are
// immutable after compilation and safe for unrestricted concurrent use;
// each call must own its Writer.
type Encoder struct {
	encode encodeFunc

	// absent reports values the record codec may omit entirely, such as
	// an unset optional. nil means never absent.
	absent func(v any) bool

	// canInline marks product-shaped encoders able to write their fields
	// into an enclosing document.
	canInline bool
}

// Decoder reads values of one descriptor from the wire. Decoders are
// immutable after compilation and safe for unrestricted concurrent use;
// each call must own its Reader.
type Decoder struct {
	decode decodeFunc

	// missing produces the decoder's designated fallback for a field
	// absent from the wire. nil means the decoder has none.
	missing func(path []string) (any, error)
}

func (e *Encoder) isAbsent(v any) bool {
	return e.absent != nil && e.absent(v)
}

// EncodeValue writes v to w.
func (e *Encoder) EncodeValue(w wire.Writer, v any) error {
	return e.encode(w, v, nil, EncodeContext{})
}

// EncodeValueContext writes v to w under explicit context, for callers
// that need the keep-nulls policy.
func (e *Encoder) EncodeValueContext(w wire.Writer, v any, ctx EncodeContext) error {
	return e.encode(w, v, nil, ctx)
}

// ToValue encodes v through the tree surface.
func (e *Encoder) ToValue(v any) (wire.Value, error) {
	vw := wire.NewValueWriter()
	if err := e.encode(vw, v, nil, EncodeContext{}); err != nil {
		return wire.Value{}, err
	}
	return vw.Value()
}

// Marshal encodes v through the byte surface and returns BSON document
// bytes. It fails when the descriptor's wire form is not a document.
func (e *Encoder) Marshal(v any) ([]byte, error) {
	dw := wire.NewDocumentWriter()
	if err := e.encode(dw, v, nil, EncodeContext{}); err != nil {
		return nil, err
	}
	return dw.Bytes()
}

// MarshalValue encodes v through the byte surface and returns the root
// value's type and raw value bytes, usable for non-document wire forms.
func (e *Encoder) MarshalValue(v any) (bsontype.Type, []byte, error) {
	dw := wire.NewDocumentWriter()
	if err := e.encode(dw, v, nil, EncodeContext{}); err != nil {
		return 0, nil, err
	}
	return dw.Result()
}

// DecodeValue reads one value from r.
func (d *Decoder) DecodeValue(r wire.Reader) (any, error) {
	return d.decode(r, nil, DecodeContext{})
}

// FromValue decodes through the tree surface.
func (d *Decoder) FromValue(v wire.Value) (any, error) {
	return d.decode(wire.NewTreeReader(v), nil, DecodeContext{})
}

// Unmarshal decodes BSON document bytes through the byte surface.
func (d *Decoder) Unmarshal(doc []byte) (any, error) {
	return d.decode(wire.NewDocumentReader(doc), nil, DecodeContext{})
}

// UnmarshalValue decodes a raw wire value of any type.
func (d *Decoder) UnmarshalValue(t bsontype.Type, data []byte) (any, error) {
	return d.decode(wire.NewValueReader(t, data), nil, DecodeContext{})
}

// Codec pairs the encoder and decoder compiled from one descriptor.
type Codec struct {
	Encoder *Encoder
	Decoder *Decoder
}

// Marshal encodes v to BSON document bytes.
func (c *Codec) Marshal(v any) ([]byte, error) { return c.Encoder.Marshal(v) }

// Unmarshal decodes BSON document bytes.
func (c *Codec) Unmarshal(doc []byte) (any, error) { return c.Decoder.Unmarshal(doc) }

// RoundTripValue is a convenience for tests and tools: encode v through
// the tree surface, then decode it back.
func (c *Codec) RoundTripValue(v any) (any, error) {
	tv, err := c.Encoder.ToValue(v)
	if err != nil {
		return nil, err
	}
	return c.Decoder.FromValue(tv)
}

// pathTo extends path with one frame, always copying so sibling branches
// never share backing arrays.
func pathTo(path []string, frame string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	out = append(out, frame)
	return out
}

// wirePath wraps a low-level wire error with positional context.
func wirePath(path []string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*errors.Error); ok && len(e.Path) == 0 && len(path) > 0 {
		clone := *e
		clone.Path = append([]string{}, path...)
		return &clone
	}
	return err
}
