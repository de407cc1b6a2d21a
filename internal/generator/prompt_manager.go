package generator

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const defaultPrompt = `You turn a plain-language description of a web test into a structured test case.

Always answer by calling the propose_test_case tool. Each step has a type and only the fields
that type needs:
- navigate: url (relative paths are resolved against the application base url)
- click, wait, verifyElement: selector (prefer #id, then .class, then css)
- fill: selector and value
- waitForPageLoad: action set to networkidle, load or domcontentloaded
- assert, custom: action holding the condition or statement
- api_call: method, url, optional headers (JSON object text), body, expectedStatus

Keep steps small and in execution order. The expected result is one short sentence, or a code
expression when the user gave one.`

// PromptManager assembles the system prompt from markdown files in a
// directory, falling back to a built-in prompt.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// GetGeneratorPrompt joins the .md files of the directory. generator.md
// comes first, then frameworks.md and conventions.md, then the rest by
// name.
func (pm *PromptManager) GetGeneratorPrompt() (string, error) {
	if pm == nil || pm.Directory == "" {
		return defaultPrompt, nil
	}
	files, err := os.ReadDir(pm.Directory)
	if os.IsNotExist(err) {
		return defaultPrompt, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %w", err)
	}

	order := map[string]int{
		"generator.md":   1,
		"frameworks.md":  2,
		"conventions.md": 3,
	}

	sort.Slice(files, func(i, j int) bool {
		oi, okI := order[files[i].Name()]
		oj, okJ := order[files[j].Name()]
		if okI && okJ {
			return oi < oj
		}
		if okI {
			return true
		}
		if okJ {
			return false
		}
		return files[i].Name() < files[j].Name()
	})

	var contents []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		path := filepath.Join(pm.Directory, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
			continue
		}
		contents = append(contents, string(data))
	}

	if len(contents) == 0 {
		return defaultPrompt, nil
	}
	return strings.Join(contents, "\n\n---\n\n"), nil
}
