package emitter

import (
	"fmt"

	"github.com/rahul/stepwright/internal/step"
)

type selenium struct{}

// by renders a typed locator in the driver idiom of the writer's language.
func by(w *writer, selector string) string {
	loc := ClassifySelector(selector)
	v := w.quote(loc.Value)
	switch w.lang {
	case step.Python:
		switch loc.Kind {
		case LocatorID:
			return "By.ID, " + v
		case LocatorClass:
			return "By.CLASS_NAME, " + v
		}
		return "By.CSS_SELECTOR, " + v
	case step.Java:
		switch loc.Kind {
		case LocatorID:
			return fmt.Sprintf("By.id(%s)", v)
		case LocatorClass:
			return fmt.Sprintf("By.className(%s)", v)
		}
		return fmt.Sprintf("By.cssSelector(%s)", v)
	default:
		switch loc.Kind {
		case LocatorID:
			return fmt.Sprintf("By.id(%s)", v)
		case LocatorClass:
			return fmt.Sprintf("By.className(%s)", v)
		}
		return fmt.Sprintf("By.css(%s)", v)
	}
}

// readyCheck is the document.readyState comparison matching a load signal.
func readyCheck(signal string) (state string, notLoading bool) {
	if signal == step.SignalDOMContentLoaded {
		return "loading", true
	}
	return "complete", false
}

func (selenium) open(w *writer, opts Options, _ step.Sequence) {
	switch w.lang {
	case step.Python:
		w.line("from selenium import webdriver")
		w.line("from selenium.webdriver.common.by import By")
		w.line("from selenium.webdriver.support import expected_conditions as EC")
		w.line("from selenium.webdriver.support.ui import WebDriverWait")
		w.blank()
		w.blank()
		w.line(fmt.Sprintf("def %s():", snakeName(opts.name())))
		w.indent()
		w.line("driver = webdriver.Chrome()")
		w.line("try:")
		w.indent()
		w.markBody()
	case step.Java:
		w.line("import java.time.Duration;")
		w.line("import org.junit.jupiter.api.Test;")
		w.line("import org.openqa.selenium.*;")
		w.line("import org.openqa.selenium.chrome.ChromeDriver;")
		w.line("import org.openqa.selenium.support.ui.ExpectedConditions;")
		w.line("import org.openqa.selenium.support.ui.WebDriverWait;")
		w.blank()
		w.line("import static org.junit.jupiter.api.Assertions.*;")
		w.blank()
		w.line(fmt.Sprintf("public class %sTest {", pascalName(opts.name())))
		w.indent()
		w.line("@Test")
		w.line(fmt.Sprintf("void %s() {", camelName(opts.name())))
		w.indent()
		w.line("WebDriver driver = new ChromeDriver();")
		w.line("try {")
		w.indent()
	default:
		if w.ts() {
			w.line("import { Builder, By, until, WebDriver } from 'selenium-webdriver';")
			w.line("import assert from 'assert';")
		} else {
			w.line("const { Builder, By, until } = require('selenium-webdriver');")
			w.line("const assert = require('assert');")
		}
		w.blank()
		w.line(fmt.Sprintf("describe(%s, function () {", w.quote(opts.name())))
		w.indent()
		if w.ts() {
			w.line("let driver: WebDriver;")
		} else {
			w.line("let driver;")
		}
		w.line("this.timeout(60000);")
		w.blank()
		w.line("before(async () => {")
		w.line(w.unit() + "driver = await new Builder().forBrowser('chrome').build();")
		w.line("});")
		w.blank()
		w.line("after(async () => {")
		w.line(w.unit() + "await driver.quit();")
		w.line("});")
		w.blank()
		w.line(fmt.Sprintf("it(%s, async () => {", w.quote(opts.name())))
		w.indent()
	}
}

func (selenium) step(w *writer, i int, s step.Step, opts Options) {
	loc := ""
	if s.Selector != "" {
		loc = by(w, s.Selector)
	}
	binding := fmt.Sprintf("element%d", i+1)
	switch w.lang {
	case step.Python:
		binding = fmt.Sprintf("element_%d", i+1)
		switch s.Type {
		case step.TypeNavigate:
			w.line(fmt.Sprintf("driver.get(%s)", w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
		case step.TypeClick:
			w.line(fmt.Sprintf("driver.find_element(%s).click()", loc))
		case step.TypeFill:
			w.line(fmt.Sprintf("driver.find_element(%s).clear()", loc))
			w.line(fmt.Sprintf("driver.find_element(%s).send_keys(%s)", loc, w.quote(s.Value)))
		case step.TypeWait:
			w.line(fmt.Sprintf("WebDriverWait(driver, 10).until(EC.presence_of_element_located((%s)))", loc))
		case step.TypeWaitForPageLoad:
			state, notLoading := readyCheck(s.Signal())
			op := "=="
			if notLoading {
				op = "!="
			}
			w.line(fmt.Sprintf("WebDriverWait(driver, 10).until(lambda d: d.execute_script(\"return document.readyState\") %s %s)", op, w.quote(state)))
		case step.TypeVerifyElement:
			w.line(fmt.Sprintf("%s = driver.find_element(%s)", binding, loc))
			w.line(fmt.Sprintf("assert %s.is_displayed()", binding))
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
			w.line(fmt.Sprintf("driver.get(%s);", w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
		case step.TypeClick:
			w.line(fmt.Sprintf("driver.findElement(%s).click();", loc))
		case step.TypeFill:
			w.line(fmt.Sprintf("driver.findElement(%s).clear();", loc))
			w.line(fmt.Sprintf("driver.findElement(%s).sendKeys(%s);", loc, w.quote(s.Value)))
		case step.TypeWait:
			w.line(fmt.Sprintf("new WebDriverWait(driver, Duration.ofSeconds(10)).until(ExpectedConditions.presenceOfElementLocated(%s));", loc))
		case step.TypeWaitForPageLoad:
			state, notLoading := readyCheck(s.Signal())
			cmp := fmt.Sprintf(".equals(%s)", w.quote(state))
			if notLoading {
				cmp = fmt.Sprintf(".equals(%s) == false", w.quote(state))
			}
			w.line(fmt.Sprintf("new WebDriverWait(driver, Duration.ofSeconds(10)).until(d -> ((JavascriptExecutor) d).executeScript(\"return document.readyState\")%s);", cmp))
		case step.TypeVerifyElement:
			w.line(fmt.Sprintf("WebElement %s = driver.findElement(%s);", binding, loc))
			w.line(fmt.Sprintf("assertTrue(%s.isDisplayed());", binding))
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
			w.line(fmt.Sprintf("await driver.get(%s);", w.quote(step.ResolveURL(opts.BaseURL, s.URL))))
		case step.TypeClick:
			w.line(fmt.Sprintf("await driver.findElement(%s).click();", loc))
		case step.TypeFill:
			w.line(fmt.Sprintf("await driver.findElement(%s).clear();", loc))
			w.line(fmt.Sprintf("await driver.findElement(%s).sendKeys(%s);", loc, w.quote(s.Value)))
		case step.TypeWait:
			w.line(fmt.Sprintf("await driver.wait(until.elementLocated(%s), 10000);", loc))
		case step.TypeWaitForPageLoad:
			state, notLoading := readyCheck(s.Signal())
			op := "==="
			if notLoading {
				op = "!=="
			}
			w.line(fmt.Sprintf("await driver.wait(async () => (await driver.executeScript('return document.readyState')) %s %s, 10000);", op, w.quote(state)))
		case step.TypeVerifyElement:
			w.line(fmt.Sprintf("const %s = await driver.findElement(%s);", binding, loc))
			w.line(fmt.Sprintf("assert.ok(await %s.isDisplayed());", binding))
		case step.TypeAssert:
			w.line(fmt.Sprintf("assert.ok(%s);", s.Condition()))
		case step.TypeCustom:
			w.line(s.Condition())
		case step.TypeAPICall:
			apiPlaceholder(w, s, opts)
		}
	}
}

func (selenium) expect(w *writer, expr string) {
	switch w.lang {
	case step.Python:
		w.line("assert " + pythonExpr(expr))
	case step.Java:
		w.line(fmt.Sprintf("assertTrue(%s);", expr))
	default:
		w.line(fmt.Sprintf("assert.ok(%s);", expr))
	}
}

func (selenium) close(w *writer) {
	switch w.lang {
	case step.Python:
		w.closeBody()
		w.line("finally:")
		w.indent()
		w.line("driver.quit()")
		w.outdent()
		w.outdent()
	case step.Java:
		w.outdent()
		w.line("} finally {")
		w.indent()
		w.line("driver.quit();")
		w.outdent()
		w.line("}")
		w.outdent()
		w.line("}")
		w.outdent()
		w.line("}")
	default:
		w.outdent()
		w.line("});")
		w.outdent()
		w.line("});")
	}
}
