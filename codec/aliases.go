package codec

import (
	"github.com/wippyai/amqp-codec/codec/internal/format"
)

type Category = format.Category
type SubCategory = format.SubCategory

const (
	CategoryDescribed = format.Described
	CategoryFixed     = format.Fixed
	CategoryVariable  = format.Variable
	CategoryCompound  = format.Compound
	CategoryArray     = format.Array
)

const (
	SubDescribed = format.SubDescribed
	Fixed0       = format.Fixed0
	Fixed1       = format.Fixed1
	Fixed2       = format.Fixed2
	Fixed4       = format.Fixed4
	Fixed8       = format.Fixed8
	Fixed16      = format.Fixed16
	Variable1    = format.Variable1
	Variable4    = format.Variable4
	Compound1    = format.Compound1
	Compound4    = format.Compound4
	Array1       = format.Array1
	Array4       = format.Array4
)

// Classify maps a format byte to its subcategory using the high nibble.
func Classify(code byte) (SubCategory, error) {
	return format.Classify(code)
}

// CodeName returns the AMQP type name for a format code.
func CodeName(code byte) string {
	return format.CodeName(code)
}

// Format codes.
const (
	CodeDescribed  = format.CodeDescribed
	CodeNull       = format.CodeNull
	CodeBoolTrue   = format.CodeBoolTrue
	CodeBoolFalse  = format.CodeBoolFalse
	CodeUint0      = format.CodeUint0
	CodeUlong0     = format.CodeUlong0
	CodeList0      = format.CodeList0
	CodeUbyte      = format.CodeUbyte
	CodeByte       = format.CodeByte
	CodeSmallUint  = format.CodeSmallUint
	CodeSmallUlong = format.CodeSmallUlong
	CodeSmallInt   = format.CodeSmallInt
	CodeSmallLong  = format.CodeSmallLong
	CodeBool       = format.CodeBool
	CodeUshort     = format.CodeUshort
	CodeShort      = format.CodeShort
	CodeUint       = format.CodeUint
	CodeInt        = format.CodeInt
	CodeFloat      = format.CodeFloat
	CodeChar       = format.CodeChar
	CodeDecimal32  = format.CodeDecimal32
	CodeUlong      = format.CodeUlong
	CodeLong       = format.CodeLong
	CodeDouble     = format.CodeDouble
	CodeTimestamp  = format.CodeTimestamp
	CodeDecimal64  = format.CodeDecimal64
	CodeDecimal128 = format.CodeDecimal128
	CodeUUID       = format.CodeUUID
	CodeVbin8      = format.CodeVbin8
	CodeStr8       = format.CodeStr8
	CodeStr8UTF16  = format.CodeStr8UTF16
	CodeSym8       = format.CodeSym8
	CodeVbin32     = format.CodeVbin32
	CodeStr32      = format.CodeStr32
	CodeStr32UTF16 = format.CodeStr32UTF16
	CodeSym32      = format.CodeSym32
	CodeList8      = format.CodeList8
	CodeMap8       = format.CodeMap8
	CodeList32     = format.CodeList32
	CodeMap32      = format.CodeMap32
	CodeArray8     = format.CodeArray8
	CodeArray32    = format.CodeArray32
)
