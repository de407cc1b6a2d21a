// Package testcase defines the stored shape of a test case and the case
// files the CLI reads.
package testcase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rahul/stepwright/internal/record"
	"github.com/rahul/stepwright/internal/step"
)

// TestCase is one stored test. Steps holds the transport form: either one
// JSON step array line, or free-text manual steps.
type TestCase struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Steps          []string          `json:"steps"`
	ExpectedResult string            `json:"expectedResult,omitempty"`
	Framework      string            `json:"framework,omitempty"`
	Language       string            `json:"language,omitempty"`
	BaseURL        string            `json:"baseUrl,omitempty"`
	LastExecution  *record.Execution `json:"lastExecution,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Sequence ingests the stored steps.
func (tc TestCase) Sequence() step.Loaded {
	return step.Load(tc.Steps)
}

// Target returns the stored framework/language pair.
func (tc TestCase) Target() (step.Target, error) {
	return step.ParseTarget(tc.Framework, tc.Language)
}

// Draft is the input for creating a test case.
type Draft struct {
	UserID         string
	Name           string
	Description    string
	Steps          []string
	ExpectedResult string
	Framework      string
	Language       string
	BaseURL        string
}

// New builds a test case from d with a fresh id.
func New(d Draft, now time.Time) TestCase {
	steps := make([]string, len(d.Steps))
	copy(steps, d.Steps)
	return TestCase{
		ID:             uuid.NewString(),
		UserID:         d.UserID,
		Name:           d.Name,
		Description:    d.Description,
		Steps:          steps,
		ExpectedResult: d.ExpectedResult,
		Framework:      d.Framework,
		Language:       d.Language,
		BaseURL:        d.BaseURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name           *string
	Description    *string
	Steps          []string
	ExpectedResult *string
	Framework      *string
	Language       *string
	BaseURL        *string
}

// Apply returns tc with p applied.
func (p Patch) Apply(tc TestCase, now time.Time) TestCase {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&tc.Name, p.Name)
	set(&tc.Description, p.Description)
	set(&tc.ExpectedResult, p.ExpectedResult)
	set(&tc.Framework, p.Framework)
	set(&tc.Language, p.Language)
	set(&tc.BaseURL, p.BaseURL)
	if p.Steps != nil {
		tc.Steps = append([]string(nil), p.Steps...)
	}
	tc.UpdatedAt = now
	return tc
}

// File is the on-disk case format. Structured steps go under steps; free
// text steps under manualSteps.
type File struct {
	Name           string        `yaml:"name"`
	Description    string        `yaml:"description,omitempty"`
	Framework      string        `yaml:"framework,omitempty"`
	Language       string        `yaml:"language,omitempty"`
	BaseURL        string        `yaml:"baseUrl,omitempty"`
	ExpectedResult string        `yaml:"expectedResult,omitempty"`
	Steps          step.Sequence `yaml:"steps,omitempty"`
	ManualSteps    []string      `yaml:"manualSteps,omitempty"`
}

// ReadFile loads a case file. YAML and JSON are both accepted.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read case file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a case file body.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse case file: %w", err)
	}
	if len(f.Steps) > 0 && len(f.ManualSteps) > 0 {
		return File{}, fmt.Errorf("case file %q has both steps and manualSteps", f.Name)
	}
	return f, nil
}

// WriteFile stores f as YAML.
func WriteFile(path string, f File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode case file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Loaded returns the file's steps in ingested form.
func (f File) Loaded() step.Loaded {
	if len(f.ManualSteps) > 0 {
		return step.Opaque{Lines: append([]string(nil), f.ManualSteps...)}
	}
	return step.Structured{Steps: f.Steps}
}

// Draft converts f into a store draft for userID.
func (f File) Draft(userID string) (Draft, error) {
	lines := f.ManualSteps
	if len(lines) == 0 {
		encoded, err := step.Encode(f.Steps)
		if err != nil {
			return Draft{}, err
		}
		lines = encoded
	}
	return Draft{
		UserID:         userID,
		Name:           strings.TrimSpace(f.Name),
		Description:    f.Description,
		Steps:          lines,
		ExpectedResult: f.ExpectedResult,
		Framework:      f.Framework,
		Language:       f.Language,
		BaseURL:        f.BaseURL,
	}, nil
}

// FileFrom converts a stored test case back into the file format.
func FileFrom(tc TestCase) File {
	f := File{
		Name:           tc.Name,
		Description:    tc.Description,
		Framework:      tc.Framework,
		Language:       tc.Language,
		BaseURL:        tc.BaseURL,
		ExpectedResult: tc.ExpectedResult,
	}
	switch l := tc.Sequence().(type) {
	case step.Structured:
		f.Steps = l.Steps
	case step.Opaque:
		f.ManualSteps = l.Lines
	}
	return f
}
