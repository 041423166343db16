package tablequery

import (
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// shouldKeep reports whether encodeURIComponent leaves c unescaped.
func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// EscapeComponent percent-encodes s like encodeURIComponent: every UTF-8 byte
// outside A-Z a-z 0-9 - _ . ! ~ * ' ( ) is escaped.
func EscapeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !shouldKeep(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldKeep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// UnescapeComponent reverses EscapeComponent. A '+' is kept literally. A
// malformed escape leaves s unchanged.
func UnescapeComponent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// param is one key/value pair of a query string, in order of appearance.
type param struct {
	key   string
	value string
}

// parseParams splits a raw query into form-decoded pairs, keeping their
// order. Unlike url.ParseQuery it never drops a pair: a malformed escape
// keeps the raw text and ';' is an ordinary character.
func parseParams(rawQuery string) []param {
	var out []param
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		out = append(out, param{key: formUnescape(key), value: formUnescape(value)})
	}
	return out
}

func formUnescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return strings.ReplaceAll(s, "+", " ")
	}
	return out
}
