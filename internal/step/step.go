// Package step defines the shared vocabulary of a test: one abstract browser
// or API action per Step, and the ordered Sequence both engines consume.
package step

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type identifies what a step does.
type Type string

const (
	TypeNavigate        Type = "navigate"
	TypeClick           Type = "click"
	TypeFill            Type = "fill"
	TypeWait            Type = "wait"
	TypeWaitForPageLoad Type = "waitForPageLoad"
	TypeVerifyElement   Type = "verifyElement"
	TypeAssert          Type = "assert"
	TypeCustom          Type = "custom"
	TypeAPICall         Type = "api_call"
)

// Types lists every step type in declaration order.
var Types = []Type{
	TypeNavigate, TypeClick, TypeFill, TypeWait, TypeWaitForPageLoad,
	TypeVerifyElement, TypeAssert, TypeCustom, TypeAPICall,
}

// Known reports whether t is one of the declared step types.
func (t Type) Known() bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// Readiness signals accepted by waitForPageLoad steps.
const (
	SignalNetworkIdle      = "networkidle"
	SignalLoad             = "load"
	SignalDOMContentLoaded = "domcontentloaded"
)

// ID is an opaque step identifier. On the wire it may be a string or a number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("step id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("step id must be a scalar, line %d", node.Line)
	}
	if node.Tag == "!!null" {
		*id = ""
		return nil
	}
	*id = ID(node.Value)
	return nil
}

// Step is one test action. Which payload fields are set depends on Type.
type Step struct {
	ID          ID     `json:"id" yaml:"id"`
	Type        Type   `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Action      string `json:"action,omitempty" yaml:"action,omitempty"`

	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`

	Method         string `json:"method,omitempty" yaml:"method,omitempty"`
	Headers        string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body           string `json:"body,omitempty" yaml:"body,omitempty"`
	ExpectedStatus int    `json:"expectedStatus,omitempty" yaml:"expectedStatus,omitempty"`
}

// Sequence is an ordered list of steps. Order is execution and emission order.
type Sequence []Step

// Signal returns the readiness signal of a waitForPageLoad step.
// Action wins over Description; the result is empty when neither names a
// known signal.
func (s Step) Signal() string {
	for _, candidate := range []string{s.Action, s.Description} {
		c := strings.ToLower(strings.TrimSpace(candidate))
		switch c {
		case SignalNetworkIdle, SignalLoad, SignalDOMContentLoaded:
			return c
		}
	}
	return ""
}

// Condition returns the condition or statement text carried by assert and
// custom steps.
func (s Step) Condition() string {
	if c := strings.TrimSpace(s.Action); c != "" {
		return c
	}
	return strings.TrimSpace(s.Description)
}

// Status returns the expected HTTP status of an api_call step, 200 when unset.
func (s Step) Status() int {
	if s.ExpectedStatus == 0 {
		return 200
	}
	return s.ExpectedStatus
}

// Label is a short human-readable name for the step, used in results and
// generic emission.
func (s Step) Label() string {
	if d := strings.TrimSpace(s.Description); d != "" && s.Type != TypeWaitForPageLoad {
		return d
	}
	switch s.Type {
	case TypeNavigate:
		return fmt.Sprintf("Navigate to %s", s.URL)
	case TypeClick:
		return fmt.Sprintf("Click %s", s.Selector)
	case TypeFill:
		return fmt.Sprintf("Fill %s with %q", s.Selector, s.Value)
	case TypeWait:
		return fmt.Sprintf("Wait for %s", s.Selector)
	case TypeWaitForPageLoad:
		if sig := s.Signal(); sig != "" {
			return fmt.Sprintf("Wait for page load (%s)", sig)
		}
		return "Wait for page load"
	case TypeVerifyElement:
		return fmt.Sprintf("Verify %s is visible", s.Selector)
	case TypeAssert:
		return fmt.Sprintf("Assert %s", s.Condition())
	case TypeCustom:
		return s.Condition()
	case TypeAPICall:
		return fmt.Sprintf("%s %s", strings.ToUpper(s.Method), s.URL)
	}
	return string(s.Type)
}
