package emitter

import (
	"strings"

	"github.com/rahul/stepwright/internal/step"
)

// FileName returns the conventional file name for the test Emit produces
// for target. Java files are named after the emitted class.
func FileName(target step.Target, opts Options) string {
	base := strings.ToLower(strings.Join(words(opts.name()), "-"))
	if base == "" {
		base = "generated"
	}
	switch target.Language {
	case step.Python:
		return snakeName(opts.name()) + ".py"
	case step.Java:
		return pascalName(opts.name()) + "Test.java"
	}
	ext := ".js"
	if target.Language == step.TypeScript {
		ext = ".ts"
	}
	if target.Framework == step.Cypress {
		return base + ".cy" + ext
	}
	return base + ".spec" + ext
}
