package schema

// PrimitiveKind identifies a leaf scalar kind. The codec package owns the
// wire mapping for each kind.
type PrimitiveKind uint8

const (
	KindUnit PrimitiveKind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindChar
	KindString
	KindBytes
	KindTime
	KindDuration
	KindUUID
	KindDecimal
	KindObjectID
	KindCurrency
	KindDay
	KindMonth
	KindYear
)

var kindNames = [...]string{
	KindUnit:     "unit",
	KindBool:     "bool",
	KindInt8:     "int8",
	KindInt16:    "int16",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindChar:     "char",
	KindString:   "string",
	KindBytes:    "bytes",
	KindTime:     "time",
	KindDuration: "duration",
	KindUUID:     "uuid",
	KindDecimal:  "decimal",
	KindObjectID: "objectid",
	KindCurrency: "currency",
	KindDay:      "day",
	KindMonth:    "month",
	KindYear:     "year",
}

func (k PrimitiveKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// FieldNameable reports whether values of this kind can serve as native
// document keys.
func (k PrimitiveKind) FieldNameable() bool {
	switch k {
	case KindString, KindInt32, KindInt64:
		return true
	default:
		return false
	}
}
