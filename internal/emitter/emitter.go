// Package emitter turns a step sequence into test source code for a
// (framework, language) target. Emission is a pure function of its inputs.
package emitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rahul/stepwright/internal/step"
)

// Options carries the test-level inputs that are not part of the steps.
type Options struct {
	BaseURL        string
	TestName       string
	ExpectedResult string
}

func (o Options) name() string {
	if n := strings.TrimSpace(o.TestName); n != "" {
		return n
	}
	return "Generated test"
}

// dialect emits one framework. Language differences live inside each dialect.
type dialect interface {
	open(w *writer, opts Options, seq step.Sequence)
	step(w *writer, index int, s step.Step, opts Options)
	expect(w *writer, expr string)
	close(w *writer)
}

// Emit renders seq as a test for target. Unsupported targets and malformed
// steps degrade to comment lines; Emit never fails.
func Emit(seq step.Sequence, target step.Target, opts Options) string {
	w := newWriter(target.Language)
	if !target.Supported() {
		emitGeneric(w, seq, target, opts)
		return w.String()
	}

	d := dialectFor(target)
	d.open(w, opts, seq)
	for i, s := range seq {
		if err := s.Validate(i); err != nil {
			w.comment(fmt.Sprintf("Skipped: %v", err))
			continue
		}
		w.comment(fmt.Sprintf("%d. %s", i+1, s.Label()))
		d.step(w, i, s, opts)
	}
	emitExpected(w, d, opts.ExpectedResult)
	d.close(w)
	return w.String()
}

// EmitLoaded emits either kind of ingested step list. Opaque lines become
// comments inside the target's test skeleton.
func EmitLoaded(loaded step.Loaded, target step.Target, opts Options) string {
	switch l := loaded.(type) {
	case step.Structured:
		return Emit(l.Steps, target, opts)
	case step.Opaque:
		w := newWriter(target.Language)
		if !target.Supported() {
			w.comment(fmt.Sprintf("%s (%s has no dedicated template)", opts.name(), target))
			for i, line := range l.Lines {
				w.comment(fmt.Sprintf("%d. %s", i+1, line))
			}
			return w.String()
		}
		d := dialectFor(target)
		d.open(w, opts, nil)
		w.comment("Manual steps; implement each one below.")
		for i, line := range l.Lines {
			w.comment(fmt.Sprintf("%d. %s", i+1, line))
		}
		emitExpected(w, d, opts.ExpectedResult)
		d.close(w)
		return w.String()
	}
	return ""
}

func dialectFor(t step.Target) dialect {
	switch t.Framework {
	case step.Playwright:
		return playwright{}
	case step.Selenium:
		return selenium{}
	case step.Cypress:
		return cypress{}
	default:
		return puppeteer{runner: t.Framework}
	}
}

func emitExpected(w *writer, d dialect, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	w.blank()
	for _, line := range strings.Split(text, "\n") {
		w.comment("Expected: " + strings.TrimSpace(line))
	}
	d.expect(w, FormatExpected(text))
}

func emitGeneric(w *writer, seq step.Sequence, target step.Target, opts Options) {
	w.comment(fmt.Sprintf("%s (%s has no dedicated template)", opts.name(), target))
	for i, s := range seq {
		label := s.Label()
		if s.Type == step.TypeNavigate || s.Type == step.TypeAPICall {
			label = strings.Replace(label, s.URL, step.ResolveURL(opts.BaseURL, s.URL), 1)
		}
		w.comment(fmt.Sprintf("%d. %s", i+1, label))
	}
	if e := strings.TrimSpace(opts.ExpectedResult); e != "" {
		w.comment("Expected: " + e)
	}
}

// apiPlaceholder is used by targets without a native HTTP assertion idiom.
func apiPlaceholder(w *writer, s step.Step, opts Options) {
	w.comment(fmt.Sprintf("API call: %s %s (expect %d); not generated for this target",
		strings.ToUpper(s.Method), step.ResolveURL(opts.BaseURL, s.URL), s.Status()))
}

// jsonLiteral returns raw when it is valid JSON (and therefore a valid JS
// literal), otherwise a quoted string.
func jsonLiteral(w *writer, raw string) string {
	raw = strings.TrimSpace(raw)
	if json.Valid([]byte(raw)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(raw)); err == nil {
			return buf.String()
		}
		return raw
	}
	return w.quote(raw)
}

// headersLiteral returns the headers object, or "" when headers are absent or
// not a JSON object.
func headersLiteral(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(data)
}
