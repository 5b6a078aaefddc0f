package generator

import (
	"strconv"
	"strings"
	"text/template"
	"unicode"
)

// FuncMap returns the helper functions available to every quill template.
// The map is built fresh on each call so callers can extend it safely.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"pascalCase":     PascalCase,     // user_name → UserName
		"camelCase":      CamelCase,      // user_name → userName
		"snakeCase":      SnakeCase,      // UserName → user_name
		"screamingSnake": ScreamingSnake, // UserName → USER_NAME
		"kebabCase":      KebabCase,      // UserName → user-name
		"plural":         Pluralize,      // user → users
		"pyString":       PyString,       // hi → "hi"
		"upper":          strings.ToUpper,
		"lower":          strings.ToLower,
		"join":           strings.Join,
		"hasPrefix":      strings.HasPrefix,
		"indent":         Indent,
	}
}

// acronyms that keep their capitalisation when converting to PascalCase.
var acronyms = map[string]string{
	"id":   "ID",
	"url":  "URL",
	"api":  "API",
	"uuid": "UUID",
	"http": "HTTP",
	"json": "JSON",
	"sql":  "SQL",
	"s3":   "S3",
	"sqs":  "SQS",
	"sns":  "SNS",
}

// PascalCase converts snake_case or camelCase to PascalCase.
// Examples: user_name → UserName, userName → UserName, user_id → UserID
func PascalCase(s string) string {
	if s == "" {
		return ""
	}
	if strings.Contains(s, "_") {
		var b strings.Builder
		for _, part := range strings.Split(s, "_") {
			b.WriteString(capitalizeWord(part))
		}
		return b.String()
	}
	return upperFirst(s)
}

func capitalizeWord(s string) string {
	if s == "" {
		return ""
	}
	if acronym, ok := acronyms[strings.ToLower(s)]; ok {
		return acronym
	}
	return upperFirst(s)
}

func upperFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// CamelCase converts snake_case or PascalCase to camelCase.
// Examples: user_name → userName, UserName → userName
func CamelCase(s string) string {
	if s == "" {
		return ""
	}
	if strings.Contains(s, "_") {
		parts := strings.Split(s, "_")
		var b strings.Builder
		first := true
		for _, part := range parts {
			if part == "" {
				continue
			}
			if first {
				b.WriteString(strings.ToLower(part))
				first = false
				continue
			}
			b.WriteString(upperFirst(strings.ToLower(part)))
		}
		return b.String()
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// SnakeCase converts PascalCase or camelCase to snake_case. Runs of capitals
// are treated as one word: HTTPServer → http_server, UserID → user_id.
// Existing underscores are kept, so User_Profile and UserProfile both map to
// user_profile.
func SnakeCase(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 && runes[i-1] != '_' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ScreamingSnake converts a name to SCREAMING_SNAKE_CASE.
func ScreamingSnake(s string) string {
	return strings.ToUpper(SnakeCase(s))
}

// KebabCase converts a name to kebab-case.
func KebabCase(s string) string {
	return strings.ReplaceAll(SnakeCase(s), "_", "-")
}

// PyString renders s as a double-quoted Python string literal.
func PyString(s string) string {
	return strconv.Quote(s)
}

// Indent prefixes every non-empty line of s with n spaces.
func Indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}
