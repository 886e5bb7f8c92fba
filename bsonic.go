// Package bsonic derives BSON encoder/decoder pairs from type
// descriptors, without reflection. A descriptor (package schema) is
// compiled once into a reusable Codec (package codec); the compiled
// artifacts are immutable and safe for concurrent use.
//
// This file is a thin convenience surface over the codec package for the
// common compile-and-use-once case. Callers on a hot path should compile
// once and hold on to the Codec.
package bsonic

import (
	"github.com/wirebind/bsonic/codec"
	"github.com/wirebind/bsonic/schema"
)

// Compile derives a codec for s under the default configuration.
func Compile(s schema.Schema) (*codec.Codec, error) {
	return codec.Compile(s, codec.Config{})
}

// Marshal compiles s and encodes v to BSON document bytes.
func Marshal(s schema.Schema, v any) ([]byte, error) {
	c, err := Compile(s)
	if err != nil {
		return nil, err
	}
	return c.Marshal(v)
}

// Unmarshal compiles s and decodes BSON document bytes.
func Unmarshal(s schema.Schema, doc []byte) (any, error) {
	c, err := Compile(s)
	if err != nil {
		return nil, err
	}
	return c.Unmarshal(doc)
}
