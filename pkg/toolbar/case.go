package toolbar

import "strings"

// CamelToSnake converts a camelCase identifier to SCREAMING_SNAKE_CASE by
// prefixing every ASCII upper-case letter with an underscore.
//
//	CamelToSnake("firstName") // "FIRST_NAME"
//	CamelToSnake("ID")        // "_I_D"
func CamelToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteByte(c)
	}
	return strings.ToUpper(b.String())
}
