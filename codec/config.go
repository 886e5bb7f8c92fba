package codec

// SumTypeHandling selects the wire form for Enum descriptors that carry
// no explicit per-type strategy.
type SumTypeHandling interface {
	sumTypeHandling()
}

// WrapperByCaseName encodes a sum value as a single-key document
// {caseName: payload}.
type WrapperByCaseName struct{}

// DiscriminatorField inlines the case's fields and adds one extra field
// named Name holding the case name.
type DiscriminatorField struct {
	Name string
}

func (WrapperByCaseName) sumTypeHandling()  {}
func (DiscriminatorField) sumTypeHandling() {}

// Config is the immutable compiler configuration, threaded explicitly
// through every recursive compile call and never mutated. The zero value
// selects the wrapper strategy with the identity class-name mapping.
type Config struct {
	SumTypeHandling SumTypeHandling

	// ClassNameMapping rewrites effective case names on both encode and
	// decode. It must be pure.
	ClassNameMapping func(string) string
}

func (c Config) handling() SumTypeHandling {
	if c.SumTypeHandling == nil {
		return WrapperByCaseName{}
	}
	return c.SumTypeHandling
}

func (c Config) mapName(name string) string {
	if c.ClassNameMapping == nil {
		return name
	}
	return c.ClassNameMapping(name)
}
