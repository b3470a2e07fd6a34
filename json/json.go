// Package json provides small, allocation-conscious helpers for hand
// writing JSON into a byte buffer, without going through encoding/json's
// reflection-based marshal.
package json

import (
	"strconv"
)

func Int(dst []byte, src int) []byte {
	return strconv.AppendInt(dst, int64(src), 10)
}

func U32(dst []byte, src uint32) []byte {
	return strconv.AppendUint(dst, uint64(src), 10)
}

func U64(dst []byte, src uint64) []byte {
	return strconv.AppendUint(dst, src, 10)
}

func Bool(dst []byte, val bool) []byte {
	if val {
		return append(dst, `true`...)
	}
	return append(dst, `false`...)
}

// String appends src as a quoted JSON string, escaping only the
// characters that would otherwise break the enclosing quotes.
func String(dst []byte, src string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
