package format

// AMQP 1.0 format codes.
const (
	CodeDescribed byte = 0x00

	CodeNull       byte = 0x40
	CodeBoolTrue   byte = 0x41
	CodeBoolFalse  byte = 0x42
	CodeUint0      byte = 0x43
	CodeUlong0     byte = 0x44
	CodeList0      byte = 0x45
	CodeUbyte      byte = 0x50
	CodeByte       byte = 0x51
	CodeSmallUint  byte = 0x52
	CodeSmallUlong byte = 0x53
	CodeSmallInt   byte = 0x54
	CodeSmallLong  byte = 0x55
	CodeBool       byte = 0x56
	CodeUshort     byte = 0x60
	CodeShort      byte = 0x61
	CodeUint       byte = 0x70
	CodeInt        byte = 0x71
	CodeFloat      byte = 0x72
	CodeChar       byte = 0x73
	CodeDecimal32  byte = 0x74
	CodeUlong      byte = 0x80
	CodeLong       byte = 0x81
	CodeDouble     byte = 0x82
	CodeTimestamp  byte = 0x83
	CodeDecimal64  byte = 0x84
	CodeDecimal128 byte = 0x94
	CodeUUID       byte = 0x98

	CodeVbin8      byte = 0xa0
	CodeStr8       byte = 0xa1
	CodeStr8UTF16  byte = 0xa2
	CodeSym8       byte = 0xa3
	CodeVbin32     byte = 0xb0
	CodeStr32      byte = 0xb1
	CodeStr32UTF16 byte = 0xb2
	CodeSym32      byte = 0xb3
	CodeList8      byte = 0xc0
	CodeMap8       byte = 0xc1
	CodeList32     byte = 0xd0
	CodeMap32      byte = 0xd1
	CodeArray8     byte = 0xe0
	CodeArray32    byte = 0xf0
)

var codeNames = map[byte]string{
	CodeDescribed:  "described",
	CodeNull:       "null",
	CodeBoolTrue:   "true",
	CodeBoolFalse:  "false",
	CodeUint0:      "uint0",
	CodeUlong0:     "ulong0",
	CodeList0:      "list0",
	CodeUbyte:      "ubyte",
	CodeByte:       "byte",
	CodeSmallUint:  "smalluint",
	CodeSmallUlong: "smallulong",
	CodeSmallInt:   "smallint",
	CodeSmallLong:  "smalllong",
	CodeBool:       "boolean",
	CodeUshort:     "ushort",
	CodeShort:      "short",
	CodeUint:       "uint",
	CodeInt:        "int",
	CodeFloat:      "float",
	CodeChar:       "char",
	CodeDecimal32:  "decimal32",
	CodeUlong:      "ulong",
	CodeLong:       "long",
	CodeDouble:     "double",
	CodeTimestamp:  "timestamp",
	CodeDecimal64:  "decimal64",
	CodeDecimal128: "decimal128",
	CodeUUID:       "uuid",
	CodeVbin8:      "vbin8",
	CodeStr8:       "str8-utf8",
	CodeStr8UTF16:  "str8-utf16",
	CodeSym8:       "sym8",
	CodeVbin32:     "vbin32",
	CodeStr32:      "str32-utf8",
	CodeStr32UTF16: "str32-utf16",
	CodeSym32:      "sym32",
	CodeList8:      "list8",
	CodeMap8:       "map8",
	CodeList32:     "list32",
	CodeMap32:      "map32",
	CodeArray8:     "array8",
	CodeArray32:    "array32",
}

// CodeName returns the encoding name of a format code, or "" if the code is
// not in the AMQP type table.
func CodeName(code byte) string {
	return codeNames[code]
}
