package step

import (
	"fmt"
	"strings"
)

// Framework is a test framework the emitter can target.
type Framework string

const (
	Playwright Framework = "playwright"
	Selenium   Framework = "selenium"
	Cypress    Framework = "cypress"
	Jest       Framework = "jest"
	Mocha      Framework = "mocha"
	Vitest     Framework = "vitest"
)

// Language is a source language the emitter can target.
type Language string

const (
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Python     Language = "python"
	Java       Language = "java"
)

var (
	Frameworks = []Framework{Playwright, Selenium, Cypress, Jest, Mocha, Vitest}
	Languages  = []Language{TypeScript, JavaScript, Python, Java}
)

// Target selects the emission idiom.
type Target struct {
	Framework Framework `json:"framework" yaml:"framework"`
	Language  Language  `json:"language" yaml:"language"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Framework, t.Language)
}

// Supported reports whether the pair has a dedicated emission idiom.
// Unsupported pairs are still accepted; they get generic output.
func (t Target) Supported() bool {
	switch t.Framework {
	case Playwright, Selenium:
		return t.Language == TypeScript || t.Language == JavaScript || t.Language == Python || t.Language == Java
	case Cypress, Jest, Mocha, Vitest:
		return t.Language == TypeScript || t.Language == JavaScript
	}
	return false
}

// ParseTarget builds a Target from user-supplied names. Unknown names are an
// error; known but unsupported pairs are not.
func ParseTarget(framework, language string) (Target, error) {
	t := Target{
		Framework: Framework(strings.ToLower(strings.TrimSpace(framework))),
		Language:  Language(strings.ToLower(strings.TrimSpace(language))),
	}
	switch t.Language {
	case "ts":
		t.Language = TypeScript
	case "js":
		t.Language = JavaScript
	case "py":
		t.Language = Python
	}

	okF := false
	for _, f := range Frameworks {
		okF = okF || f == t.Framework
	}
	if !okF {
		return Target{}, fmt.Errorf("unknown framework %q", framework)
	}
	okL := false
	for _, l := range Languages {
		okL = okL || l == t.Language
	}
	if !okL {
		return Target{}, fmt.Errorf("unknown language %q", language)
	}
	return t, nil
}
