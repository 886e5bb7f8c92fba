package codec

import (
	"slices"

	"github.com/wirebind/bsonic/errors"
	"github.com/wirebind/bsonic/schema"
	"github.com/wirebind/bsonic/wire"
)

type enumCase struct {
	meta        schema.Case
	name        string // effective wire name after class name mapping
	payloadFree bool
	enc         *Encoder
	dec         *Decoder
}

var unitSchema = &schema.Primitive{Kind: schema.KindUnit}

// compileEnumCases resolves effective names and per-case payload codecs.
// Payload-free cases borrow the unit codec so every strategy can treat
// them uniformly.
func (c *compiler) compileEnumCases(t *schema.Enum, path []string, needEnc, needDec bool) ([]enumCase, map[string]int, error) {
	cases := make([]enumCase, len(t.Cases))
	lookup := make(map[string]int, len(t.Cases))

	addName := func(n string, idx int) error {
		if prev, ok := lookup[n]; ok && prev != idx {
			return errors.Malformed(path, "enum %s: case name %q claimed by cases %d and %d", t.Name, n, prev, idx)
		}
		lookup[n] = idx
		return nil
	}

	for i, cs := range t.Cases {
		if cs.Construct == nil || cs.Deconstruct == nil {
			return nil, nil, errors.Malformed(pathTo(path, cs.Name), "enum %s: case %q lacks construct/deconstruct", t.Name, cs.Name)
		}
		ec := enumCase{
			meta:        cs,
			name:        c.cfg.mapName(cs.WireName()),
			payloadFree: cs.Schema == nil,
		}
		payload := cs.Schema
		if payload == nil {
			payload = unitSchema
		}
		casePath := pathTo(path, ec.name)
		if needEnc {
			enc, err := c.encoder(payload, casePath)
			if err != nil {
				return nil, nil, err
			}
			ec.enc = enc
		}
		if needDec {
			dec, err := c.decoder(payload, casePath)
			if err != nil {
				return nil, nil, err
			}
			ec.dec = dec
		}
		cases[i] = ec

		if err := addName(ec.name, i); err != nil {
			return nil, nil, err
		}
		// aliases are matched verbatim, outside the class name mapping
		for _, alias := range cs.Aliases {
			if err := addName(alias, i); err != nil {
				return nil, nil, err
			}
		}
	}
	return cases, lookup, nil
}

type enumStrategy int

const (
	enumWrapper enumStrategy = iota
	enumDiscriminator
	enumBareString
	enumBacktracking
)

// pickStrategy orders the representation choices: an explicit
// no-discriminator mark wins, then a discriminator name (type-level first,
// then configuration), then the caseless string form, then the wrapper.
func pickStrategy(t *schema.Enum, cfg Config) (enumStrategy, string) {
	if t.NoDiscriminator {
		return enumBacktracking, ""
	}
	if t.Discriminator != "" {
		return enumDiscriminator, t.Discriminator
	}
	if d, ok := cfg.handling().(DiscriminatorField); ok {
		return enumDiscriminator, d.Name
	}
	allFree := true
	for _, cs := range t.Cases {
		if cs.Schema != nil {
			allFree = false
			break
		}
	}
	if allFree && len(t.Cases) > 0 {
		return enumBareString, ""
	}
	return enumWrapper, ""
}

// selectCase finds the first non-transient case whose deconstructor claims
// the value.
func selectCase(cases []enumCase, v any) (int, any, bool) {
	for i, cs := range cases {
		if cs.meta.Transient {
			continue
		}
		if payload, ok := cs.meta.Deconstruct(v); ok {
			return i, payload, true
		}
	}
	return -1, nil, false
}

func noCaseMatched(t *schema.Enum, path []string, v any) error {
	return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
		Path(path...).
		Expected("a value covered by enum " + t.Name).
		Value(v).
		Detail("value of type %T matches no case", v).
		Build()
}

func (c *compiler) enumEncoder(t *schema.Enum, path []string) (*Encoder, error) {
	cases, _, err := c.compileEnumCases(t, path, true, false)
	if err != nil {
		return nil, err
	}
	strategy, discName := pickStrategy(t, c.cfg)

	if strategy == enumDiscriminator {
		for _, cs := range cases {
			if !cs.payloadFree && !cs.enc.canInline {
				return nil, errors.Malformed(pathTo(path, cs.name),
					"enum %s: case %q does not produce a document and cannot carry discriminator %q", t.Name, cs.name, discName)
			}
		}
	}

	encode := func(w wire.Writer, v any, path []string, ctx EncodeContext) error {
		idx, payload, ok := selectCase(cases, v)
		if !ok {
			return noCaseMatched(t, path, v)
		}
		cs := cases[idx]
		casePath := pathTo(path, cs.name)

		switch strategy {
		case enumBareString:
			return wirePath(path, w.WriteString(cs.name))

		case enumDiscriminator:
			field := discName
			if cs.meta.Discriminator != "" {
				field = cs.meta.Discriminator
			}
			if !ctx.Inline {
				if err := w.WriteStartDocument(); err != nil {
					return wirePath(path, err)
				}
			}
			if err := w.WriteName(field); err != nil {
				return wirePath(path, err)
			}
			if err := w.WriteString(cs.name); err != nil {
				return wirePath(path, err)
			}
			if !cs.payloadFree {
				if err := cs.enc.encode(w, payload, casePath, EncodeContext{Inline: true, KeepNulls: ctx.KeepNulls}); err != nil {
					return err
				}
			}
			if !ctx.Inline {
				if err := w.WriteEndDocument(); err != nil {
					return wirePath(path, err)
				}
			}
			return nil

		case enumBacktracking:
			return cs.enc.encode(w, payload, casePath, EncodeContext{KeepNulls: ctx.KeepNulls})

		default: // wrapper
			if err := w.WriteStartDocument(); err != nil {
				return wirePath(path, err)
			}
			if err := w.WriteName(cs.name); err != nil {
				return wirePath(path, err)
			}
			if err := cs.enc.encode(w, payload, casePath, EncodeContext{KeepNulls: ctx.KeepNulls}); err != nil {
				return err
			}
			return wirePath(path, w.WriteEndDocument())
		}
	}

	return &Encoder{encode: encode, canInline: strategy == enumDiscriminator}, nil
}

func (c *compiler) enumDecoder(t *schema.Enum, path []string) (*Decoder, error) {
	cases, lookup, err := c.compileEnumCases(t, path, false, true)
	if err != nil {
		return nil, err
	}
	strategy, discName := pickStrategy(t, c.cfg)
	accepted := acceptedDiscriminators(t, discName)

	decode := func(r wire.Reader, path []string, ctx DecodeContext) (any, error) {
		switch strategy {
		case enumBareString:
			name, err := r.ReadString()
			if err != nil {
				return nil, wirePath(path, err)
			}
			idx, ok := lookup[name]
			if !ok {
				return nil, errors.UnrecognizedEnum(path, name)
			}
			return cases[idx].meta.Construct(schema.Unit), nil

		case enumDiscriminator:
			return decodeDiscriminated(r, path, t, cases, lookup, accepted)

		case enumBacktracking:
			for _, cs := range cases {
				mark := r.Mark()
				payload, err := cs.dec.decode(r, pathTo(path, cs.name), DecodeContext{})
				if err == nil {
					return cs.meta.Construct(payload), nil
				}
				if rerr := r.Reset(mark); rerr != nil {
					return nil, wirePath(path, rerr)
				}
			}
			return nil, errors.AllCasesFailed(path, t.Name)

		default: // wrapper
			return decodeWrapped(r, path, t, cases, lookup)
		}
	}

	return &Decoder{decode: decode}, nil
}

// decodeWrapped expects a single-field document whose key names the case.
func decodeWrapped(r wire.Reader, path []string, t *schema.Enum, cases []enumCase, lookup map[string]int) (any, error) {
	if err := r.ReadStartDocument(); err != nil {
		return nil, wirePath(path, err)
	}
	if !r.More() {
		return nil, errors.InvalidData(errors.PhaseDecode, path, "enum "+t.Name+": expected a single-field document, got an empty one")
	}
	name, err := r.ReadName()
	if err != nil {
		return nil, wirePath(path, err)
	}
	idx, ok := lookup[name]
	if !ok {
		return nil, errors.InvalidDiscriminator(path, name)
	}
	cs := cases[idx]
	payload, err := cs.dec.decode(r, pathTo(path, name), DecodeContext{})
	if err != nil {
		return nil, err
	}
	if r.More() {
		extra, err := r.ReadName()
		if err != nil {
			return nil, wirePath(path, err)
		}
		return nil, errors.InvalidData(errors.PhaseDecode, path, "enum "+t.Name+": unexpected second field "+extra)
	}
	if err := r.ReadEndDocument(); err != nil {
		return nil, wirePath(path, err)
	}
	return cs.meta.Construct(payload), nil
}

// acceptedDiscriminators collects the enum's discriminator field name plus
// every per-case hint, in declaration order.
func acceptedDiscriminators(t *schema.Enum, discName string) []string {
	accepted := []string{discName}
	for _, cs := range t.Cases {
		if cs.Discriminator != "" && !slices.Contains(accepted, cs.Discriminator) {
			accepted = append(accepted, cs.Discriminator)
		}
	}
	return accepted
}

// decodeDiscriminated scans the document for a field matching any accepted
// discriminator name, then rewinds and hands the whole document to the
// selected case, telling it to step over the already-consumed tag.
func decodeDiscriminated(r wire.Reader, path []string, t *schema.Enum, cases []enumCase, lookup map[string]int, accepted []string) (any, error) {
	mark := r.Mark()
	if err := r.ReadStartDocument(); err != nil {
		return nil, wirePath(path, err)
	}
	caseName := ""
	matched := ""
	found := false
	for r.More() {
		name, err := r.ReadName()
		if err != nil {
			return nil, wirePath(path, err)
		}
		if slices.Contains(accepted, name) {
			caseName, err = r.ReadString()
			if err != nil {
				return nil, wirePath(path, err)
			}
			matched = name
			found = true
			break
		}
		if err := r.Skip(); err != nil {
			return nil, wirePath(path, err)
		}
	}
	if !found {
		return nil, errors.MissingDiscriminator(path, accepted)
	}
	idx, ok := lookup[caseName]
	if !ok {
		return nil, errors.InvalidDiscriminator(path, caseName)
	}
	if err := r.Reset(mark); err != nil {
		return nil, wirePath(path, err)
	}
	cs := cases[idx]
	if cs.payloadFree {
		if err := drainDocument(r); err != nil {
			return nil, wirePath(path, err)
		}
		return cs.meta.Construct(schema.Unit), nil
	}
	payload, err := cs.dec.decode(r, pathTo(path, cs.name), DecodeContext{IgnoreField: matched})
	if err != nil {
		return nil, err
	}
	return cs.meta.Construct(payload), nil
}

func drainDocument(r wire.Reader) error {
	if err := r.ReadStartDocument(); err != nil {
		return err
	}
	for r.More() {
		if _, err := r.ReadName(); err != nil {
			return err
		}
		if err := r.Skip(); err != nil {
			return err
		}
	}
	return r.ReadEndDocument()
}
