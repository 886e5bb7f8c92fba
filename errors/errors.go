package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile Phase = "compile" // descriptor compilation
	PhaseEncode  Phase = "encode"  // value to wire
	PhaseDecode  Phase = "decode"  // wire to value
)

// Kind categorizes the error
type Kind string

const (
	KindExtraField           Kind = "invalid_extra_field"
	KindDuplicateField       Kind = "duplicate_field"
	KindFieldMissing         Kind = "field_missing"
	KindMissingDiscriminator Kind = "missing_disambiguator"
	KindInvalidDiscriminator Kind = "invalid_disambiguator"
	KindUnrecognizedEnum     Kind = "unrecognized_enum_string"
	KindBothCasesPresent     Kind = "both_cases_present"
	KindBothCasesMissing     Kind = "both_cases_missing"
	KindAllCasesFailed       Kind = "all_subtypes_failed"
	KindConstruction         Kind = "construction_failed"
	KindUnsupportedShape     Kind = "unsupported_dynamic_shape"
	KindTypeMismatch         Kind = "type_mismatch"
	KindInvalidData          Kind = "invalid_data"
	KindMalformedSchema      Kind = "malformed_descriptor"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Expected string
	Actual   string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Expected != "" || e.Actual != "" {
		b.WriteString(": ")
		if e.Expected != "" && e.Actual != "" {
			b.WriteString("expected ")
			b.WriteString(e.Expected)
			b.WriteString(", got ")
			b.WriteString(e.Actual)
		} else if e.Expected != "" {
			b.WriteString("expected ")
			b.WriteString(e.Expected)
		} else {
			b.WriteString("got ")
			b.WriteString(e.Actual)
		}
	}

	if e.Detail != "" {
		if e.Expected != "" || e.Actual != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Fatal reports whether the error is a construction-time descriptor error
// rather than a data error.
func (e *Error) Fatal() bool {
	return e.Kind == KindMalformedSchema
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Expected sets the expected shape description
func (b *Builder) Expected(s string) *Builder {
	b.err.Expected = s
	return b
}

// Actual sets the observed shape description
func (b *Builder) Actual(s string) *Builder {
	b.err.Actual = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// ExtraField creates an error for an unknown wire field under a
// reject-extra-fields policy.
func ExtraField(path []string, fieldName string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindExtraField,
		Path:   path,
		Detail: fmt.Sprintf("unexpected field %q", fieldName),
		Value:  fieldName,
	}
}

// DuplicateField creates an error for a wire field seen twice.
func DuplicateField(path []string, fieldName string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindDuplicateField,
		Path:   path,
		Detail: fmt.Sprintf("duplicate field %q", fieldName),
		Value:  fieldName,
	}
}

// FieldMissing creates an error for a declared field absent from the wire
// with no default and no decoder fallback.
func FieldMissing(path []string, fieldName string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("missing field %q", fieldName),
		Value:  fieldName,
	}
}

// MissingDiscriminator creates an error for a sum-type document carrying
// none of the accepted discriminator fields.
func MissingDiscriminator(path []string, expectedNames []string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMissingDiscriminator,
		Path:   path,
		Detail: fmt.Sprintf("none of the discriminator fields %v present", expectedNames),
	}
}

// InvalidDiscriminator creates an error for a discriminator value naming no
// known case.
func InvalidDiscriminator(path []string, value string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidDiscriminator,
		Path:   path,
		Detail: fmt.Sprintf("unknown case %q", value),
		Value:  value,
	}
}

// UnrecognizedEnum creates an error for a bare enum string naming no case.
func UnrecognizedEnum(path []string, value string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnrecognizedEnum,
		Path:   path,
		Detail: fmt.Sprintf("unrecognized enum value %q", value),
		Value:  value,
	}
}

// AllCasesFailed creates an error for a backtracking decode where every
// case decoder failed.
func AllCasesFailed(path []string, typeName string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindAllCasesFailed,
		Path:   path,
		Detail: fmt.Sprintf("no case of %s matched the document", typeName),
	}
}

// Construction wraps a value-constructor failure as a decode error.
func Construction(path []string, cause error) *Error {
	return &Error{
		Phase: PhaseDecode,
		Kind:  KindConstruction,
		Path:  path,
		Cause: cause,
	}
}

// UnsupportedShape creates an error for a dynamic value shape that direct
// mapping cannot represent.
func UnsupportedShape(phase Phase, path []string, shape string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedShape,
		Path:   path,
		Detail: fmt.Sprintf("dynamic shape %s is not representable in direct mapping", shape),
		Value:  shape,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, expected, actual string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		Expected: expected,
		Actual:   actual,
	}
}

// Malformed creates a fatal construction-time descriptor error. It is
// distinct from every data-decode error above.
func Malformed(path []string, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindMalformedSchema,
		Path:   path,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Prepend returns err with frame pushed onto the front of its path when err
// is a structured Error, and err unchanged otherwise. The original error is
// not mutated; decoders share error values across retries.
func Prepend(frame string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		path := make([]string, 0, len(e.Path)+1)
		path = append(path, frame)
		path = append(path, e.Path...)
		clone := *e
		clone.Path = path
		return &clone
	}
	return err
}
