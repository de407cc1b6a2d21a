package emitter

import (
	"fmt"

	"github.com/rahul/stepwright/internal/step"
)

// puppeteer drives a puppeteer page from jest, mocha or vitest.
type puppeteer struct {
	runner step.Framework
}

func (p puppeteer) open(w *writer, opts Options, _ step.Sequence) {
	if w.ts() {
		w.line("import puppeteer, { Browser, Page } from 'puppeteer';")
		switch p.runner {
		case step.Vitest:
			w.line("import { afterAll, beforeAll, describe, expect, it } from 'vitest';")
		case step.Mocha:
			w.line("import { expect } from 'chai';")
		}
	} else {
		w.line("const puppeteer = require('puppeteer');")
		switch p.runner {
		case step.Vitest:
			w.line("const { afterAll, beforeAll, describe, expect, it } = require('vitest');")
		case step.Mocha:
			w.line("const { expect } = require('chai');")
		}
	}
	w.blank()

	before, after := "beforeAll", "afterAll"
	if p.runner == step.Mocha {
		before, after = "before", "after"
	}

	w.line(fmt.Sprintf("describe(%s, () => {", w.quote(opts.name())))
	w.indent()
	if w.ts() {
		w.line("let browser: Browser;")
		w.line("let page: Page;")
	} else {
		w.line("let browser;")
		w.line("let page;")
	}
	w.blank()
	w.line(before + "(async () => {")
	w.line(w.unit() + "browser = await puppeteer.launch();")
	w.line(w.unit() + "page = await browser.newPage();")
	w.line("});")
	w.blank()
	w.line(after + "(async () => {")
	w.line(w.unit() + "await browser.close();")
	w.line("});")
	w.blank()
	w.line(fmt.Sprintf("it(%s, async () => {", w.quote(opts.name())))
	w.indent()
}

func (p puppeteer) step(w *writer, i int, s step.Step, opts Options) {
	sel := w.quote(s.Selector)
	switch s.Type {
	case step.TypeNavigate:
		w.line(fmt.Sprintf("await page.goto(%s);", w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
	case step.TypeClick:
		w.line(fmt.Sprintf("await page.click(%s);", sel))
	case step.TypeFill:
		w.line(fmt.Sprintf("await page.type(%s, %s);", sel, w.quote(s.Value)))
	case step.TypeWait:
		w.line(fmt.Sprintf("await page.waitForSelector(%s);", sel))
	case step.TypeWaitForPageLoad:
		switch s.Signal() {
		case step.SignalNetworkIdle:
			w.line("await page.waitForNetworkIdle();")
		case step.SignalDOMContentLoaded:
			w.line("await page.waitForFunction(() => document.readyState !== 'loading');")
		default:
			w.line("await page.waitForFunction(() => document.readyState === 'complete');")
		}
	case step.TypeVerifyElement:
		binding := fmt.Sprintf("element%d", i+1)
		handle := binding
		if w.ts() {
			handle += "!"
		}
		w.line(fmt.Sprintf("const %s = await page.$(%s);", binding, sel))
		if p.runner == step.Mocha {
			w.line(fmt.Sprintf("expect(%s).to.not.equal(null);", binding))
			w.line(fmt.Sprintf("expect(await %s.isVisible()).to.equal(true);", handle))
		} else {
			w.line(fmt.Sprintf("expect(%s).not.toBeNull();", binding))
			w.line(fmt.Sprintf("expect(await %s.isVisible()).toBe(true);", handle))
		}
	case step.TypeAssert:
		p.truthy(w, s.Condition())
	case step.TypeCustom:
		w.line(s.Condition())
	case step.TypeAPICall:
		apiPlaceholder(w, s, opts)
	}
}

func (p puppeteer) truthy(w *writer, expr string) {
	if p.runner == step.Mocha {
		w.line(fmt.Sprintf("expect(%s).to.be.ok;", expr))
		return
	}
	w.line(fmt.Sprintf("expect(%s).toBeTruthy();", expr))
}

func (p puppeteer) expect(w *writer, expr string) {
	p.truthy(w, expr)
}

func (puppeteer) close(w *writer) {
	w.outdent()
	w.line("});")
	w.outdent()
	w.line("});")
}
