package emitter

import (
	"regexp"
	"strings"
)

var (
	callPrefixRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*\(`)
	comparisonRe = regexp.MustCompile(`===|!==|==|!=|>=|<=|\s[<>]\s`)
)

var keywordPrefixes = []string{"await ", "typeof ", "!"}

// LooksLikeCode reports whether text can be embedded as a boolean expression:
// it starts with a call or a recognised keyword followed by an operand, is a
// comparison, or is a string literal.
func LooksLikeCode(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if t == "true" || t == "false" {
		return true
	}
	if callPrefixRe.MatchString(t) || comparisonRe.MatchString(t) {
		return true
	}
	for _, p := range keywordPrefixes {
		if strings.HasPrefix(t, p) && strings.TrimSpace(t[len(p):]) != "" {
			return true
		}
	}
	if len(t) >= 2 {
		q := t[0]
		if (q == '"' || q == '\'' || q == '`') && t[len(t)-1] == q {
			return true
		}
	}
	return false
}

// FormatExpected turns a test's expected-result text into the expression used
// in the final assertion. Prose becomes the literal true; the caller keeps the
// original text as a comment.
func FormatExpected(text string) string {
	if LooksLikeCode(text) {
		return strings.TrimSpace(text)
	}
	return "true"
}

func pythonExpr(expr string) string {
	switch expr {
	case "true":
		return "True"
	case "false":
		return "False"
	}
	return expr
}
