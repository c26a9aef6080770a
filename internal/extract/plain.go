package extract

import (
	"bytes"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// extractPlain returns content as a string. UTF-16 input (detected by BOM)
// is transcoded; anything else is treated as UTF-8 with invalid sequences
// replaced, so exports from Windows tools still index cleanly.
func extractPlain(content []byte) (string, error) {
	if s, ok := decodeUTF16(content); ok {
		return s, nil
	}
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return string(content), nil
}

func decodeUTF16(content []byte) (string, bool) {
	if len(content) < 2 || len(content)%2 != 0 {
		return "", false
	}
	var littleEndian bool
	switch {
	case bytes.HasPrefix(content, []byte{0xFF, 0xFE}):
		littleEndian = true
	case bytes.HasPrefix(content, []byte{0xFE, 0xFF}):
		littleEndian = false
	default:
		return "", false
	}
	content = content[2:]
	units := make([]uint16, len(content)/2)
	for i := range units {
		if littleEndian {
			units[i] = uint16(content[2*i]) | uint16(content[2*i+1])<<8
		} else {
			units[i] = uint16(content[2*i])<<8 | uint16(content[2*i+1])
		}
	}
	return string(utf16.Decode(units)), true
}
