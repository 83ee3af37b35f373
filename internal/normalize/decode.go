// Package normalize turns raw source bytes into the flat, trimmed line
// sequence the line classifier consumes.
package normalize

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// FallbackEncodings is tried in order after any declared charset.
var FallbackEncodings = []string{"utf-8", "gbk", "gb2312", "latin1"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts data to a string. The declared charset (may be empty) is
// tried first, then FallbackEncodings; the first decode that yields no
// replacement runes wins. If none does, invalid bytes are dropped.
func Decode(data []byte, declared string) string {
	data = bytes.TrimPrefix(data, utf8BOM)

	names := FallbackEncodings
	if declared != "" {
		names = append([]string{declared}, FallbackEncodings...)
	}
	for _, name := range names {
		if s, ok := decodeAs(data, name); ok {
			return s
		}
	}
	return strings.ToValidUTF8(string(data), "")
}

func decodeAs(data []byte, name string) (string, bool) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		if utf8.Valid(data) {
			return string(data), true
		}
		return "", false
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
