package step

import (
	"fmt"
	"strings"
)

// ConfigError reports a step whose payload does not match its declared type.
// It is the one error class engines let escape as a hard failure.
type ConfigError struct {
	Index  int
	ID     ID
	Type   Type
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "step %d", e.Index+1)
	if e.ID != "" {
		fmt.Fprintf(&b, " (id %s)", e.ID)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, " [%s]", e.Type)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	return b.String()
}

// payload fields owned by each type; action and description are allowed everywhere.
var required = map[Type][]string{
	TypeNavigate:        {"url"},
	TypeClick:           {"selector"},
	TypeFill:            {"selector", "value"},
	TypeWait:            {"selector"},
	TypeWaitForPageLoad: {},
	TypeVerifyElement:   {"selector"},
	TypeAssert:          {},
	TypeCustom:          {},
	TypeAPICall:         {"method", "url"},
}

var optional = map[Type][]string{
	TypeAPICall: {"headers", "body", "expectedStatus"},
}

func (s Step) fields() map[string]bool {
	return map[string]bool{
		"url":            s.URL != "",
		"selector":       s.Selector != "",
		"value":          s.Value != "",
		"method":         s.Method != "",
		"headers":        s.Headers != "",
		"body":           s.Body != "",
		"expectedStatus": s.ExpectedStatus != 0,
	}
}

// Validate checks that the payload matches the step type. index is only used
// to locate the step in the returned error.
func (s Step) Validate(index int) error {
	fail := func(field, reason string) error {
		return &ConfigError{Index: index, ID: s.ID, Type: s.Type, Field: field, Reason: reason}
	}

	if !s.Type.Known() {
		return fail("type", fmt.Sprintf("unknown step type %q", s.Type))
	}

	present := s.fields()
	allowed := make(map[string]bool)
	for _, f := range required[s.Type] {
		allowed[f] = true
		if !present[f] {
			return fail(f, "required field is missing")
		}
	}
	for _, f := range optional[s.Type] {
		allowed[f] = true
	}
	for _, f := range []string{"url", "selector", "value", "method", "headers", "body", "expectedStatus"} {
		if present[f] && !allowed[f] {
			return fail(f, fmt.Sprintf("field is not used by %s steps", s.Type))
		}
	}

	switch s.Type {
	case TypeWaitForPageLoad:
		if s.Signal() == "" {
			return fail("action", fmt.Sprintf("readiness signal must be one of %s, %s, %s",
				SignalNetworkIdle, SignalLoad, SignalDOMContentLoaded))
		}
	case TypeAssert, TypeCustom:
		if s.Condition() == "" {
			return fail("action", "condition text is missing")
		}
	case TypeAPICall:
		if s.ExpectedStatus != 0 && (s.ExpectedStatus < 100 || s.ExpectedStatus > 599) {
			return fail("expectedStatus", fmt.Sprintf("%d is not an HTTP status", s.ExpectedStatus))
		}
	}
	return nil
}

// Validate checks every step in order and returns the first ConfigError.
// Non-empty ids must be unique within the sequence.
func (seq Sequence) Validate() error {
	seen := make(map[ID]int, len(seq))
	for i, s := range seq {
		if err := s.Validate(i); err != nil {
			return err
		}
		if s.ID == "" {
			continue
		}
		if first, ok := seen[s.ID]; ok {
			return &ConfigError{Index: i, ID: s.ID, Type: s.Type, Field: "id",
				Reason: fmt.Sprintf("duplicate of step %d", first+1)}
		}
		seen[s.ID] = i
	}
	return nil
}
