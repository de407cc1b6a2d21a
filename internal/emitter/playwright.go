package emitter

import (
	"fmt"
	"strings"

	"github.com/rahul/stepwright/internal/step"
)

type playwright struct{}

func usesAPI(seq step.Sequence) bool {
	for _, s := range seq {
		if s.Type == step.TypeAPICall {
			return true
		}
	}
	return false
}

func (playwright) open(w *writer, opts Options, seq step.Sequence) {
	switch w.lang {
	case step.Python:
		w.line("from playwright.sync_api import Page, expect")
		w.blank()
		w.blank()
		w.line(fmt.Sprintf("def %s(page: Page):", snakeName(opts.name())))
		w.indent()
		w.markBody()
	case step.Java:
		w.line("import com.microsoft.playwright.*;")
		w.line("import com.microsoft.playwright.options.LoadState;")
		w.line("import org.junit.jupiter.api.Test;")
		w.blank()
		w.line("import static com.microsoft.playwright.assertions.PlaywrightAssertions.assertThat;")
		w.line("import static org.junit.jupiter.api.Assertions.*;")
		w.blank()
		w.line(fmt.Sprintf("public class %sTest {", pascalName(opts.name())))
		w.indent()
		w.line("@Test")
		w.line(fmt.Sprintf("void %s() {", camelName(opts.name())))
		w.indent()
		w.line("try (Playwright playwright = Playwright.create()) {")
		w.indent()
		w.line("Browser browser = playwright.chromium().launch();")
		w.line("Page page = browser.newPage();")
	default:
		if w.ts() {
			w.line("import { test, expect } from '@playwright/test';")
		} else {
			w.line("const { test, expect } = require('@playwright/test');")
		}
		w.blank()
		fixtures := "{ page }"
		if usesAPI(seq) {
			fixtures = "{ page, request }"
		}
		w.line(fmt.Sprintf("test(%s, async (%s) => {", w.quote(opts.name()), fixtures))
		w.indent()
	}
}

func (playwright) step(w *writer, i int, s step.Step, opts Options) {
	sel := w.quote(s.Selector)
	switch w.lang {
	case step.Python:
		switch s.Type {
		case step.TypeNavigate:
			w.line(fmt.Sprintf("page.goto(%s)", w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
		case step.TypeClick:
			w.line(fmt.Sprintf("page.click(%s)", sel))
		case step.TypeFill:
			w.line(fmt.Sprintf("page.fill(%s, %s)", sel, w.quote(s.Value)))
		case step.TypeWait:
			w.line(fmt.Sprintf("page.wait_for_selector(%s)", sel))
		case step.TypeWaitForPageLoad:
			w.line(fmt.Sprintf("page.wait_for_load_state(%s)", w.quote(s.Signal())))
		case step.TypeVerifyElement:
			w.line(fmt.Sprintf("expect(page.locator(%s)).to_be_visible()", sel))
		case step.TypeAssert:
			w.line("assert " + s.Condition())
		case step.TypeCustom:
			w.line(s.Condition())
		case step.TypeAPICall:
			apiPlaceholder(w, s, opts)
		}
	case step.Java:
		switch s.Type {
		case step.TypeNavigate:
			w.line(fmt.Sprintf("page.navigate(%s);", w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
		case step.TypeClick:
			w.line(fmt.Sprintf("page.click(%s);", sel))
		case step.TypeFill:
			w.line(fmt.Sprintf("page.fill(%s, %s);", sel, w.quote(s.Value)))
		case step.TypeWait:
			w.line(fmt.Sprintf("page.waitForSelector(%s);", sel))
		case step.TypeWaitForPageLoad:
			w.line(fmt.Sprintf("page.waitForLoadState(LoadState.%s);", strings.ToUpper(s.Signal())))
		case step.TypeVerifyElement:
			w.line(fmt.Sprintf("assertThat(page.locator(%s)).isVisible();", sel))
		case step.TypeAssert:
			w.line(fmt.Sprintf("assertTrue(%s);", s.Condition()))
		case step.TypeCustom:
			w.line(s.Condition())
		case step.TypeAPICall:
			apiPlaceholder(w, s, opts)
		}
	default:
		switch s.Type {
		case step.TypeNavigate:
			w.line(fmt.Sprintf("await page.goto(%s);", w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
		case step.TypeClick:
			w.line(fmt.Sprintf("await page.click(%s);", sel))
		case step.TypeFill:
			w.line(fmt.Sprintf("await page.fill(%s, %s);", sel, w.quote(s.Value)))
		case step.TypeWait:
			w.line(fmt.Sprintf("await page.waitForSelector(%s);", sel))
		case step.TypeWaitForPageLoad:
			w.line(fmt.Sprintf("await page.waitForLoadState(%s);", w.quote(s.Signal())))
		case step.TypeVerifyElement:
			w.line(fmt.Sprintf("await expect(page.locator(%s)).toBeVisible();", sel))
		case step.TypeAssert:
			w.line(fmt.Sprintf("expect(%s).toBeTruthy();", s.Condition()))
		case step.TypeCustom:
			w.line(s.Condition())
		case step.TypeAPICall:
			name := fmt.Sprintf("response%d", i+1)
			w.line(fmt.Sprintf("const %s = await request.fetch(%s, {", name, w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
			w.indent()
			w.line(fmt.Sprintf("method: %s,", w.quote(strings.ToUpper(s.Method))))
			if h := headersLiteral(s.Headers); h != "" {
				w.line(fmt.Sprintf("headers: %s,", h))
			}
			if strings.TrimSpace(s.Body) != "" {
				w.line(fmt.Sprintf("data: %s,", jsonLiteral(w, s.Body)))
			}
			w.outdent()
			w.line("});")
			w.line(fmt.Sprintf("expect(%s.status()).toBe(%d);", name, s.Status()))
		}
	}
}

func (playwright) expect(w *writer, expr string) {
	switch w.lang {
	case step.Python:
		w.line("assert " + pythonExpr(expr))
	case step.Java:
		w.line(fmt.Sprintf("assertTrue(%s);", expr))
	default:
		w.line(fmt.Sprintf("expect(%s).toBeTruthy();", expr))
	}
}

func (playwright) close(w *writer) {
	switch w.lang {
	case step.Python:
		w.closeBody()
	case step.Java:
		w.outdent()
		w.line("}")
		w.outdent()
		w.line("}")
		w.outdent()
		w.line("}")
	default:
		w.outdent()
		w.line("});")
	}
}
