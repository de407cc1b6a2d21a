package emitter

import (
	"strings"
	"unicode"

	"github.com/rahul/stepwright/internal/step"
)

type writer struct {
	b     strings.Builder
	lang  step.Language
	depth int
	code  int // code lines written so far, comments excluded
	mark  int
}

func newWriter(lang step.Language) *writer {
	return &writer{lang: lang}
}

func (w *writer) String() string {
	return w.b.String()
}

func (w *writer) unit() string {
	switch w.lang {
	case step.Python, step.Java:
		return "    "
	}
	return "  "
}

// line writes one line at the current depth. Embedded newlines are indented
// line by line.
func (w *writer) line(text string) {
	w.code++
	w.write(text)
}

func (w *writer) write(text string) {
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			w.b.WriteString("\n")
			continue
		}
		w.b.WriteString(strings.Repeat(w.unit(), w.depth))
		w.b.WriteString(l)
		w.b.WriteString("\n")
	}
}

func (w *writer) blank() {
	w.b.WriteString("\n")
}

func (w *writer) indent()  { w.depth++ }
func (w *writer) outdent() { w.depth-- }

// markBody records where a python function body starts.
func (w *writer) markBody() { w.mark = w.code }

// closeBody keeps a comment-only python body valid.
func (w *writer) closeBody() {
	if w.code == w.mark {
		w.line("pass")
	}
	w.outdent()
}

func (w *writer) comment(text string) {
	prefix := "// "
	if w.lang == step.Python {
		prefix = "# "
	}
	for _, l := range strings.Split(text, "\n") {
		w.write(prefix + l)
	}
}

// quote renders s as a string literal: single quotes for JS/TS, double quotes
// for Python and Java.
func (w *writer) quote(s string) string {
	q := '"'
	if w.lang == step.TypeScript || w.lang == step.JavaScript {
		q = '\''
	}
	var b strings.Builder
	b.WriteRune(q)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case q:
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(q)
	return b.String()
}

func (w *writer) js() bool {
	return w.lang == step.TypeScript || w.lang == step.JavaScript
}

func (w *writer) ts() bool {
	return w.lang == step.TypeScript
}

func words(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// snakeName turns a test name into a python function name.
func snakeName(name string) string {
	parts := words(name)
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	n := strings.Join(parts, "_")
	if n == "" {
		n = "generated"
	}
	return "test_" + n
}

// pascalName turns a test name into a Java identifier.
func pascalName(name string) string {
	var b strings.Builder
	for _, p := range words(name) {
		rs := []rune(strings.ToLower(p))
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	n := b.String()
	if n == "" || unicode.IsDigit([]rune(n)[0]) {
		n = "Generated" + n
	}
	return n
}

func camelName(name string) string {
	p := []rune(pascalName(name))
	p[0] = unicode.ToLower(p[0])
	return string(p)
}
