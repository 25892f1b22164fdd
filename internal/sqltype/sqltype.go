// Package sqltype holds the source type-code contract: the numeric codes a
// cursor reports per column and the fixed mapping from those codes to the
// three semantic types. The mapping is resolved once at schema-derivation
// time; per-cell logic switches on the already-resolved semantic type.
package sqltype

// Code is a source database column type code. Values mirror the standard SQL
// type codes so adapters and drivers agree on the wire numbers.
type Code int

const (
	Bit           Code = -7
	TinyInt       Code = -6
	BigInt        Code = -5
	LongVarBinary Code = -4
	VarBinary     Code = -3
	Binary        Code = -2
	LongVarChar   Code = -1
	Char          Code = 1
	Numeric       Code = 2
	Decimal       Code = 3
	Integer       Code = 4
	SmallInt      Code = 5
	Float         Code = 6
	Real          Code = 7
	Double        Code = 8
	VarChar       Code = 12
	Boolean       Code = 16
	Blob          Code = 2004
	Clob          Code = 2005

	// Other is the explicit "unrecognized" code; it maps to Text like every
	// other code outside the integer and floating-point families.
	Other Code = 1111
)

// Semantic is the three-way simplification of a source database's richer
// type system.
type Semantic uint8

const (
	SemanticInteger Semantic = iota
	SemanticFloat
	SemanticText
)

func (s Semantic) String() string {
	switch s {
	case SemanticInteger:
		return "Integer"
	case SemanticFloat:
		return "FloatingPoint"
	default:
		return "Text"
	}
}

// Map resolves a source type code to its semantic type. Unrecognized codes
// map to Text; the code itself stays part of the column so the text path can
// still distinguish large objects from plain strings.
func Map(code Code) Semantic {
	switch code {
	case Integer, Bit, Binary, Boolean, VarBinary, SmallInt, TinyInt, BigInt:
		return SemanticInteger
	case Float, Double, Numeric, Decimal, Real:
		return SemanticFloat
	default:
		return SemanticText
	}
}
