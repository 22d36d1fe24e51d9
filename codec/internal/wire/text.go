package wire

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// utf16BE has no byte order mark; AMQP fixes the byte order.
var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// UTF16Len returns the UTF-16 encoded length of s in bytes, or false if s is
// not valid UTF-8.
func UTF16Len(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return 0, false
		}
		if r >= 0x10000 {
			n += 4
		} else {
			n += 2
		}
		i += size
	}
	return n, true
}

// EncodeUTF16 converts UTF-8 s to UTF-16BE.
func EncodeUTF16(s string) ([]byte, error) {
	return utf16BE.NewEncoder().Bytes([]byte(s))
}

// DecodeUTF16 converts UTF-16BE src to a UTF-8 string. Unpaired surrogates
// are rejected rather than replaced.
func DecodeUTF16(src []byte) (string, bool) {
	if len(src)%2 != 0 {
		return "", false
	}
	out, err := utf16BE.NewDecoder().Bytes(src)
	if err != nil {
		return "", false
	}
	for i := 0; i+1 < len(src); i += 2 {
		hi := uint16(src[i])<<8 | uint16(src[i+1])
		switch {
		case hi >= 0xD800 && hi <= 0xDBFF:
			if i+3 >= len(src) {
				return "", false
			}
			lo := uint16(src[i+2])<<8 | uint16(src[i+3])
			if lo < 0xDC00 || lo > 0xDFFF {
				return "", false
			}
			i += 2
		case hi >= 0xDC00 && hi <= 0xDFFF:
			return "", false
		}
	}
	return string(out), true
}

// FirstNonASCII returns the index of the first byte of s above 0x7F, or -1.
func FirstNonASCII(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return i
		}
	}
	return -1
}

// ValidChar rejects surrogates (0xD800-0xDFFF) and values >= 0x110000.
func ValidChar(r rune) bool {
	if r >= 0xD800 && r <= 0xDFFF {
		return false
	}
	return r >= 0 && r < 0x110000
}
