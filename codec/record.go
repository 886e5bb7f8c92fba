package codec

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

type recordField struct {
	meta     schema.Field
	wireName string
	enc      *Encoder
	dec      *Decoder
	retained bool // written on encode
}

// compileRecordFields derives per-field codecs and the decode-side
// name→index lookup shared by Record.
func (c *compiler) compileRecordFields(name string, fields []schema.Field, path []string, needEnc, needDec bool) ([]recordField, map[string]int, error) {
	compiled := make([]recordField, len(fields))
	lookup := make(map[string]int, len(fields))

	addName := func(n string, idx int) error {
		if prev, ok := lookup[n]; ok && prev != idx {
			return errors.Malformed(path, "record %s: wire name %q claimed by fields %d and %d", name, n, prev, idx)
		}
		lookup[n] = idx
		return nil
	}

	for i, f := range fields {
		if f.Schema == nil {
			return nil, nil, errors.Malformed(pathTo(path, f.Name), "record %s: field %q has no descriptor", name, f.Name)
		}
		rf := recordField{
			meta:     f,
			wireName: f.WireName(),
			retained: !f.Transient && !f.Excluded,
		}
		fieldPath := pathTo(path, f.Name)
		if needEnc {
			enc, err := c.encoder(f.Schema, fieldPath)
			if err != nil {
				return nil, nil, err
			}
			rf.enc = enc
		}
		if needDec {
			dec, err := c.decoder(f.Schema, fieldPath)
			if err != nil {
				return nil, nil, err
			}
			rf.dec = dec
		}
		compiled[i] = rf

		if f.Excluded {
			continue
		}
		if err := addName(f.Name, i); err != nil {
			return nil, nil, err
		}
		if f.NameOverride != "" {
			if err := addName(f.NameOverride, i); err != nil {
				return nil, nil, err
			}
		}
		for _, alias := range f.Aliases {
			if err := addName(alias, i); err != nil {
				return nil, nil, err
			}
		}
	}
	return compiled, lookup, nil
}

// identityField reports whether the field list qualifies for the native
// identifier encoding: exactly one retained field whose wire name is the
// identity tag.
func identityField(fields []recordField) (int, bool) {
	idx := -1
	for i, f := range fields {
		if !f.retained {
			continue
		}
		if idx >= 0 {
			return -1, false
		}
		idx = i
	}
	if idx < 0 || fields[idx].wireName != wire.IdentityTag {
		return -1, false
	}
	return idx, true
}

func encodeIdentityValue(w wire.Writer, v any, path []string) error {
	switch id := v.(type) {
	case string:
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(path...).Detail("invalid object id %q", id).Cause(err).Build()
		}
		return wirePath(path, w.WriteObjectID(oid))
	case primitive.ObjectID:
		return wirePath(path, w.WriteObjectID(id))
	default:
		return encodeMismatch(path, "hex string or primitive.ObjectID", v)
	}
}

// identityArg converts a decoded ObjectID into the representation the
// field descriptor expects.
func identityArg(fieldSchema schema.Schema, oid primitive.ObjectID) any {
	if p, ok := fieldSchema.(*schema.Primitive); ok && p.Kind == schema.KindObjectID {
		return oid
	}
	return oid.Hex()
}

func (c *compiler) recordEncoder(t *schema.Record, path []string) (*Encoder, error) {
	fields, _, err := c.compileRecordFields(t.Name, t.Fields, path, true, false)
	if err != nil {
		return nil, err
	}
	idIdx, isIdentity := identityField(fields)

	encode := func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
		if isIdentity && !ctx.Inline {
			f := fields[idIdx]
			return encodeIdentityValue(w, f.meta.Get(v), pathTo(path, f.wireName))
		}
		if !ctx.Inline {
			if err := w.WriteStartDocument(); err != nil {
				return wirePath(path, err)
			}
		}
		for _, f := range fields {
			if !f.retained {
				continue
			}
			fv := f.meta.Get(v)
			if f.enc.isAbsent(fv) && !ctx.KeepNulls {
				continue
			}
			if err := w.WriteName(f.wireName); err != nil {
				return wirePath(path, err)
			}
			if err := f.enc.encode(w, fv, pathTo(path, f.wireName), EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
				return err
			}
		}
		if !ctx.Inline {
			if err := w.WriteEndDocument(); err != nil {
				return wirePath(path, err)
			}
		}
		return nil
	}

	return &Encoder{encode: encode, canInline: true}, nil
}

func (c *compiler) recordDecoder(t *schema.Record, path []string) (*Decoder, error) {
	if t.Construct == nil {
		return nil, errors.Malformed(path, "record %s has no constructor", t.Name)
	}
	fields, lookup, err := c.compileRecordFields(t.Name, t.Fields, path, false, true)
	if err != nil {
		return nil, err
	}
	idIdx, isIdentity := identityField(fields)

	decode := func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
		if isIdentity {
			if bt, err := r.Peek(); err == nil && bt == bsontype.ObjectID {
				oid, err := r.ReadObjectID()
				if err != nil {
					return nil, wirePath(path, err)
				}
				args := make([]any, len(fields))
				args[idIdx] = identityArg(fields[idIdx].meta.Schema, oid)
				if err := fillMissing(fields, args, seenOnly(len(fields), idIdx), path); err != nil {
					return nil, err
				}
				v, err := t.Construct(args)
				if err != nil {
					return nil, errors.Construction(path, err)
				}
				return v, nil
			}
		}

		if err := r.ReadStartDocument(); err != nil {
			return nil, wirePath(path, err)
		}
		args := make([]any, len(fields))
		seen := make([]bool, len(fields))
		for r.More() {
			name, err := r.ReadName()
			if err != nil {
				return nil, wirePath(path, err)
			}
			if ctx.IgnoreField != "" && name == ctx.IgnoreField {
				if err := r.Skip(); err != nil {
					return nil, wirePath(path, err)
				}
				continue
			}
			idx, ok := lookup[name]
			if !ok {
				if t.RejectExtraFields {
					return nil, errors.ExtraField(path, name)
				}
				if err := r.Skip(); err != nil {
					return nil, wirePath(path, err)
				}
				continue
			}
			if seen[idx] {
				return nil, errors.DuplicateField(path, name)
			}
			seen[idx] = true
			fv, err := fields[idx].dec.decode(r, pathTo(path, name), DecodeContext{})
			if err != nil {
				return nil, err
			}
			args[idx] = fv
		}
		if err := r.ReadEndDocument(); err != nil {
			return nil, wirePath(path, err)
		}
		if err := fillMissing(fields, args, seen, path); err != nil {
			return nil, err
		}
		v, err := t.Construct(args)
		if err != nil {
			return nil, errors.Construction(path, err)
		}
		return v, nil
	}

	return &Decoder{decode: decode}, nil
}

func seenOnly(n, idx int) []bool {
	seen := make([]bool, n)
	seen[idx] = true
	return seen
}

// fillMissing resolves every field absent from the wire: declared default
// first, then the field decoder's designated missing fallback, else fail
// naming the field.
func fillMissing(fields []recordField, args []any, seen []bool, path []string) error {
	for i, f := range fields {
		if seen[i] {
			continue
		}
		if f.meta.HasDefault && (f.meta.Optional || f.meta.Transient || f.meta.Excluded) {
			args[i] = f.meta.Default
			continue
		}
		if f.dec.missing != nil {
			v, err := f.dec.missing(pathTo(path, f.wireName))
			if err != nil {
				return err
			}
			args[i] = v
			continue
		}
		return errors.FieldMissing(path, f.wireName)
	}
	return nil
}

func (c *compiler) genericEncoder(t *schema.GenericRecord, path []string) (*Encoder, error) {
	fields, _, err := c.compileRecordFields(t.Name, t.Fields, path, true, false)
	if err != nil {
		return nil, err
	}
	idIdx, isIdentity := identityField(fields)

	encode := func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
		m, ok := v.(map[string]any)
		if !ok {
			return encodeMismatch(path, "map[string]any", v)
		}
		if isIdentity && !ctx.Inline {
			f := fields[idIdx]
			return encodeIdentityValue(w, m[f.meta.Name], pathTo(path, f.wireName))
		}
		if !ctx.Inline {
			if err := w.WriteStartDocument(); err != nil {
				return wirePath(path, err)
			}
		}
		for _, f := range fields {
			fv, present := m[f.meta.Name]
			if !present {
				continue
			}
			if f.enc.isAbsent(fv) && !ctx.KeepNulls {
				continue
			}
			if err := w.WriteName(f.meta.Name); err != nil {
				return wirePath(path, err)
			}
			if err := f.enc.encode(w, fv, pathTo(path, f.meta.Name), EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
				return err
			}
		}
		if !ctx.Inline {
			if err := w.WriteEndDocument(); err != nil {
				return wirePath(path, err)
			}
		}
		return nil
	}

	return &Encoder{encode: encode, canInline: true}, nil
}

func (c *compiler) genericDecoder(t *schema.GenericRecord, path []string) (*Decoder, error) {
	fields, _, err := c.compileRecordFields(t.Name, t.Fields, path, false, true)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[f.meta.Name] = i
	}
	_, isIdentity := identityField(fields)

	decode := func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
		if isIdentity {
			if bt, err := r.Peek(); err == nil && bt == bsontype.ObjectID {
				oid, err := r.ReadObjectID()
				if err != nil {
					return nil, wirePath(path, err)
				}
				return map[string]any{wire.IdentityTag: oid.Hex()}, nil
			}
		}
		if err := r.ReadStartDocument(); err != nil {
			return nil, wirePath(path, err)
		}
		out := make(map[string]any, len(fields))
		for r.More() {
			name, err := r.ReadName()
			if err != nil {
				return nil, wirePath(path, err)
			}
			idx, ok := byName[name]
			if !ok {
				// fields outside the declared list are ignored; the
				// generic view carries no extra-field machinery
				if err := r.Skip(); err != nil {
					return nil, wirePath(path, err)
				}
				continue
			}
			fv, err := fields[idx].dec.decode(r, pathTo(path, name), DecodeContext{})
			if err != nil {
				return nil, err
			}
			out[name] = fv
		}
		if err := r.ReadEndDocument(); err != nil {
			return nil, wirePath(path, err)
		}
		return out, nil
	}

	return &Decoder{decode: decode}, nil
}
