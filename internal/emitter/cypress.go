package emitter

import (
	"fmt"
	"strings"

	"github.com/rahul/stepwright/internal/step"
)

type cypress struct{}

func (cypress) open(w *writer, opts Options, _ step.Sequence) {
	if w.ts() {
		w.line("/// <reference types=\"cypress\" />")
		w.blank()
	}
	w.line(fmt.Sprintf("describe(%s, () => {", w.quote(opts.name())))
	w.indent()
	w.line(fmt.Sprintf("it(%s, () => {", w.quote(opts.name())))
	w.indent()
}

func (cypress) step(w *writer, _ int, s step.Step, opts Options) {
	sel := w.quote(s.Selector)
	switch s.Type {
	case step.TypeNavigate:
		w.line(fmt.Sprintf("cy.visit(%s);", w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
	case step.TypeClick:
		w.line(fmt.Sprintf("cy.get(%s).click();", sel))
	case step.TypeFill:
		w.line(fmt.Sprintf("cy.get(%s).clear().type(%s);", sel, w.quote(s.Value)))
	case step.TypeWait:
		w.line(fmt.Sprintf("cy.get(%s).should('exist');", sel))
	case step.TypeWaitForPageLoad:
		if s.Signal() == step.SignalDOMContentLoaded {
			w.line("cy.document().its('readyState').should('not.eq', 'loading');")
		} else {
			w.line("cy.document().its('readyState').should('eq', 'complete');")
		}
	case step.TypeVerifyElement:
		w.line(fmt.Sprintf("cy.get(%s).should('be.visible');", sel))
	case step.TypeAssert:
		w.line(fmt.Sprintf("expect(%s).to.be.ok;", s.Condition()))
	case step.TypeCustom:
		w.line(s.Condition())
	case step.TypeAPICall:
		w.line("cy.request({")
		w.indent()
		w.line(fmt.Sprintf("method: %s,", w.quote(strings.ToUpper(s.Method))))
		w.line(fmt.Sprintf("url: %s,", w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
		if h := headersLiteral(s.Headers); h != "" {
			w.line(fmt.Sprintf("headers: %s,", h))
		}
		if strings.TrimSpace(s.Body) != "" {
			w.line(fmt.Sprintf("body: %s,", jsonLiteral(w, s.Body)))
		}
		w.line("failOnStatusCode: false,")
		w.outdent()
		w.line(fmt.Sprintf("}).its('status').should('eq', %d);", s.Status()))
	}
}

func (cypress) expect(w *writer, expr string) {
	w.line(fmt.Sprintf("expect(%s).to.be.ok;", expr))
}

func (cypress) close(w *writer) {
	w.outdent()
	w.line("});")
	w.outdent()
	w.line("});")
}
