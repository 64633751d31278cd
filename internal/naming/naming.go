package naming

import (
	"strings"
	"unicode"
)

// CamelToSnake converts a CamelCase string to snake_case.
// Consecutive uppercase letters (acronyms) are kept together:
// "ID" → "id", "UserID" → "user_id", "CreatedAt" → "created_at".
func CamelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				next := rune(0)
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				if unicode.IsLower(prev) || (unicode.IsUpper(prev) && unicode.IsLower(next)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var initialisms = map[string]string{
	"id":   "ID",
	"ip":   "IP",
	"db":   "DB",
	"api":  "API",
	"sql":  "SQL",
	"url":  "URL",
	"uri":  "URI",
	"http": "HTTP",
	"html": "HTML",
	"json": "JSON",
	"uuid": "UUID",
}

// SnakeToCamel converts a snake_case string to CamelCase, upper-casing
// common initialisms: "user_id" → "UserID", "api_keys" → "APIKeys".
func SnakeToCamel(s string) string {
	var b strings.Builder
	for part := range strings.SplitSeq(s, "_") {
		if part == "" {
			continue
		}
		if up, ok := initialisms[part]; ok {
			b.WriteString(up)
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
