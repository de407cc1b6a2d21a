package emitter

import (
	"testing"

	"github.com/rahul/stepwright/internal/step"
)

func TestClassifySelector(t *testing.T) {
	tests := []struct {
		in   string
		want Locator
	}{
		{"#login", Locator{LocatorID, "login"}},
		{"#a .b", Locator{LocatorID, "a .b"}},
		{".btn", Locator{LocatorClass, "btn"}},
		{".btn.primary", Locator{LocatorClass, "btn.primary"}},
		{"button", Locator{LocatorCSS, "button"}},
		{"div > #x", Locator{LocatorCSS, "div > #x"}},
		{"", Locator{LocatorCSS, ""}},
		{"#", Locator{LocatorID, ""}},
	}
	for _, tt := range tests {
		if got := ClassifySelector(tt.in); got != tt.want {
			t.Errorf("ClassifySelector(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestFormatExpected(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"expect(page).toHaveTitle('Home')", "expect(page).toHaveTitle('Home')"},
		{"await page.isVisible('#ok')", "await page.isVisible('#ok')"},
		{"document.title === 'Home'", "document.title === 'Home'"},
		{"count >= 3", "count >= 3"},
		{"'welcome'", "'welcome'"},
		{"!error", "!error"},
		{"!", "true"},
		{" ! ", "true"},
		{"await ", "true"},
		{"false", "false"},
		{"User sees the dashboard", "true"},
		{"User sees (dashboard)", "true"},
		{"", "true"},
		{"   ", "true"},
	}
	for _, tt := range tests {
		got := FormatExpected(tt.in)
		if got != tt.want {
			t.Errorf("FormatExpected(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got == "" {
			t.Errorf("FormatExpected(%q) returned an empty expression", tt.in)
		}
	}
}

func TestFileName(t *testing.T) {
	opts := Options{TestName: "Login works"}
	tests := []struct {
		target step.Target
		want   string
	}{
		{step.Target{Framework: step.Playwright, Language: step.TypeScript}, "login-works.spec.ts"},
		{step.Target{Framework: step.Jest, Language: step.JavaScript}, "login-works.spec.js"},
		{step.Target{Framework: step.Cypress, Language: step.TypeScript}, "login-works.cy.ts"},
		{step.Target{Framework: step.Selenium, Language: step.Python}, "test_login_works.py"},
		{step.Target{Framework: step.Selenium, Language: step.Java}, "LoginWorksTest.java"},
	}
	for _, tt := range tests {
		if got := FileName(tt.target, opts); got != tt.want {
			t.Errorf("FileName(%s) = %q, want %q", tt.target, got, tt.want)
		}
	}
	if got := FileName(step.Target{Framework: step.Mocha, Language: step.TypeScript}, Options{}); got != "generated-test.spec.ts" {
		t.Errorf("default FileName = %q", got)
	}

	bare := Options{TestName: "!!!"}
	for target, want := range map[step.Target]string{
		{Framework: step.Playwright, Language: step.TypeScript}: "generated.spec.ts",
		{Framework: step.Cypress, Language: step.JavaScript}:    "generated.cy.js",
		{Framework: step.Selenium, Language: step.Python}:        "test_generated.py",
	} {
		if got := FileName(target, bare); got != want {
			t.Errorf("FileName(%s, %q) = %q, want %q", target, bare.TestName, got, want)
		}
	}
}
