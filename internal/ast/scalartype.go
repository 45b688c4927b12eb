package ast

// scalarTypeNames maps TC surface type-name spellings to their
// ScalarType. Shared by the parser (parameter and cast types) and by
// Sema.
var scalarTypeNames = map[string]ScalarType{
	"bool":    {Kind: KindBool},
	"uint8":   {Kind: KindUIntScalar, Bits: 8},
	"uint16":  {Kind: KindUIntScalar, Bits: 16},
	"uint32":  {Kind: KindUIntScalar, Bits: 32},
	"uint64":  {Kind: KindUIntScalar, Bits: 64},
	"int8":    {Kind: KindIntScalar, Bits: 8},
	"int16":   {Kind: KindIntScalar, Bits: 16},
	"int32":   {Kind: KindIntScalar, Bits: 32},
	"int64":   {Kind: KindIntScalar, Bits: 64},
	"float16": {Kind: KindFloatScalar, Bits: 16},
	"float32": {Kind: KindFloatScalar, Bits: 32},
	"float64": {Kind: KindFloatScalar, Bits: 64},

	// "float" and "double" are C-style spellings of float32/float64, and
	// "size_t" is taken to be uint64, the same choice made for the
	// numeric literal "z" suffix.
	"float":  {Kind: KindFloatScalar, Bits: 32},
	"double": {Kind: KindFloatScalar, Bits: 64},
	"size_t": {Kind: KindUIntScalar, Bits: 64},
}

// ScalarTypeByName looks up a surface type-name spelling.
func ScalarTypeByName(name string) (ScalarType, bool) {
	t, ok := scalarTypeNames[name]
	return t, ok
}

// IsScalarTypeName reports whether name spells a scalar type rather than
// a tensor/parameter/builtin identifier.
func IsScalarTypeName(name string) bool {
	_, ok := scalarTypeNames[name]
	return ok
}
