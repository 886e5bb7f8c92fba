package dyn

import (
	"sync"

	"github.com/wirebind/bsonic/schema"
)

var (
	schemaOnce sync.Once
	self       schema.Schema
)

// Schema returns the self-describing descriptor for Value. The default
// dynamic mapping delegates to codecs compiled from it, so every shape of
// the union except NodeRef is representable through it.
func Schema() schema.Schema {
	schemaOnce.Do(func() { self = buildSchema() })
	return self
}

var primitiveKinds = []schema.PrimitiveKind{
	schema.KindUnit, schema.KindBool,
	schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
	schema.KindFloat32, schema.KindFloat64,
	schema.KindChar, schema.KindString, schema.KindBytes,
	schema.KindTime, schema.KindDuration,
	schema.KindUUID, schema.KindDecimal, schema.KindObjectID,
	schema.KindCurrency,
	schema.KindDay, schema.KindMonth, schema.KindYear,
}

func buildSchema() schema.Schema {
	var root *schema.Enum
	lazy := &schema.Lazy{Resolve: func() schema.Schema { return root }}
	str := &schema.Primitive{Kind: schema.KindString}

	valueItems := func(items []Value) []any {
		out := make([]any, len(items))
		for i, v := range items {
			out[i] = v
		}
		return out
	}
	castItems := func(payload any) []Value {
		items := payload.([]any)
		out := make([]Value, len(items))
		for i, v := range items {
			out[i] = v.(Value)
		}
		return out
	}

	primCases := make([]schema.Case, len(primitiveKinds))
	for i, kind := range primitiveKinds {
		kind := kind
		primCases[i] = schema.Case{
			Name:   kind.String(),
			Schema: &schema.Primitive{Kind: kind},
			Deconstruct: func(v any) (any, bool) {
				p, ok := v.(*Primitive)
				if !ok || p.Kind != kind {
					return nil, false
				}
				return p.Value, true
			},
			Construct: func(payload any) any {
				return &Primitive{Kind: kind, Value: payload}
			},
		}
	}

	root = &schema.Enum{
		Name: "DynamicValue",
		Cases: []schema.Case{
			{
				Name:   "Record",
				Schema: &schema.Map{Key: str, Value: lazy},
				Deconstruct: func(v any) (any, bool) {
					r, ok := v.(*Record)
					if !ok {
						return nil, false
					}
					pairs := make([]schema.Pair, len(r.Entries))
					for i, e := range r.Entries {
						pairs[i] = schema.Pair{First: e.Key, Second: e.Value}
					}
					return pairs, true
				},
				Construct: func(payload any) any {
					pairs := payload.([]schema.Pair)
					entries := make([]Entry, len(pairs))
					for i, p := range pairs {
						entries[i] = Entry{Key: p.First.(string), Value: p.Second.(Value)}
					}
					return &Record{Entries: entries}
				},
			},
			{
				Name:   "Sequence",
				Schema: &schema.Sequence{Elem: lazy},
				Deconstruct: func(v any) (any, bool) {
					s, ok := v.(*Sequence)
					if !ok {
						return nil, false
					}
					return valueItems(s.Items), true
				},
				Construct: func(payload any) any {
					return &Sequence{Items: castItems(payload)}
				},
			},
			{
				Name:   "Set",
				Schema: &schema.Sequence{Elem: lazy},
				Deconstruct: func(v any) (any, bool) {
					s, ok := v.(*SetValue)
					if !ok {
						return nil, false
					}
					return valueItems(s.Items), true
				},
				Construct: func(payload any) any {
					return &SetValue{Items: castItems(payload)}
				},
			},
			{
				Name:   "Primitive",
				Schema: &schema.Enum{Name: "Primitive", Cases: primCases},
				Deconstruct: func(v any) (any, bool) {
					p, ok := v.(*Primitive)
					return p, ok
				},
				Construct: func(payload any) any {
					return payload
				},
			},
			{
				Name: "Singleton",
				Deconstruct: func(v any) (any, bool) {
					_, ok := v.(*Singleton)
					return schema.Unit, ok
				},
				Construct: func(any) any { return &Singleton{} },
			},
			{
				Name:   "SomeValue",
				Schema: lazy,
				Deconstruct: func(v any) (any, bool) {
					s, ok := v.(*SomeValue)
					if !ok {
						return nil, false
					}
					return s.Value, true
				},
				Construct: func(payload any) any {
					return &SomeValue{Value: payload.(Value)}
				},
			},
			{
				Name: "NoneValue",
				Deconstruct: func(v any) (any, bool) {
					_, ok := v.(*NoneValue)
					return schema.Unit, ok
				},
				Construct: func(any) any { return &NoneValue{} },
			},
			{
				Name:   "Dictionary",
				Schema: &schema.Sequence{Elem: &schema.Tuple2{First: lazy, Second: lazy}},
				Deconstruct: func(v any) (any, bool) {
					d, ok := v.(*Dictionary)
					if !ok {
						return nil, false
					}
					out := make([]any, len(d.Entries))
					for i, e := range d.Entries {
						out[i] = schema.Pair{First: e.Key, Second: e.Value}
					}
					return out, true
				},
				Construct: func(payload any) any {
					pairs := payload.([]any)
					entries := make([]DictEntry, len(pairs))
					for i, p := range pairs {
						pr := p.(schema.Pair)
						entries[i] = DictEntry{Key: pr.First.(Value), Value: pr.Second.(Value)}
					}
					return &Dictionary{Entries: entries}
				},
			},
			{
				Name:   "Tuple",
				Schema: &schema.Tuple2{First: lazy, Second: lazy},
				Deconstruct: func(v any) (any, bool) {
					t, ok := v.(*Tuple)
					if !ok {
						return nil, false
					}
					return schema.Pair{First: t.First, Second: t.Second}, true
				},
				Construct: func(payload any) any {
					p := payload.(schema.Pair)
					return &Tuple{First: p.First.(Value), Second: p.Second.(Value)}
				},
			},
			{
				Name:   "LeftValue",
				Schema: lazy,
				Deconstruct: func(v any) (any, bool) {
					l, ok := v.(*LeftValue)
					if !ok {
						return nil, false
					}
					return l.Value, true
				},
				Construct: func(payload any) any {
					return &LeftValue{Value: payload.(Value)}
				},
			},
			{
				Name:   "RightValue",
				Schema: lazy,
				Deconstruct: func(v any) (any, bool) {
					r, ok := v.(*RightValue)
					if !ok {
						return nil, false
					}
					return r.Value, true
				},
				Construct: func(payload any) any {
					return &RightValue{Value: payload.(Value)}
				},
			},
			{
				Name:   "BothValue",
				Schema: &schema.Tuple2{First: lazy, Second: lazy},
				Deconstruct: func(v any) (any, bool) {
					b, ok := v.(*BothValue)
					if !ok {
						return nil, false
					}
					return schema.Pair{First: b.Left, Second: b.Right}, true
				},
				Construct: func(payload any) any {
					p := payload.(schema.Pair)
					return &BothValue{Left: p.First.(Value), Right: p.Second.(Value)}
				},
			},
			{
				Name:   "Enumeration",
				Schema: &schema.Tuple2{First: str, Second: lazy},
				Deconstruct: func(v any) (any, bool) {
					e, ok := v.(*Enumeration)
					if !ok {
						return nil, false
					}
					return schema.Pair{First: e.Case, Second: e.Value}, true
				},
				Construct: func(payload any) any {
					p := payload.(schema.Pair)
					return &Enumeration{Case: p.First.(string), Value: p.Second.(Value)}
				},
			},
			{
				Name:   "Error",
				Schema: str,
				Deconstruct: func(v any) (any, bool) {
					e, ok := v.(*Error)
					if !ok {
						return nil, false
					}
					return e.Message, true
				},
				Construct: func(payload any) any {
					return &Error{Message: payload.(string)}
				},
			},
		},
	}
	return root
}
