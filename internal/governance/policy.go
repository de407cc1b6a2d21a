// Package governance decides whether the live engine may take a step.
package governance

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rahul/stepwright/internal/step"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// DefaultDeniedURLs keeps the test window away from local files and
// browser-internal pages.
var DefaultDeniedURLs = []string{`^(?i)file:`, `^(?i)chrome(-extension)?:`, `^(?i)devtools:`}

// Request describes one step about to be taken. URL is set for steps that
// address one.
type Request struct {
	Action string
	URL    string
	RunID  string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

func (r Result) Allowed() bool {
	return r.Effect == EffectAllow
}

// PolicyEngine evaluates browser actions against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine denies listed actions and URLs matching any pattern.
type DefaultPolicyEngine struct {
	DeniedActions map[string]bool
	DeniedURLs    []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedActions: make(map[string]bool),
		DeniedURLs:    make([]*regexp.Regexp, 0),
	}
}

// NewPolicy returns an engine denying DefaultDeniedURLs plus deniedURLs,
// and every step type named in deniedActions.
func NewPolicy(deniedURLs, deniedActions []string) (*DefaultPolicyEngine, error) {
	e := NewDefaultPolicyEngine()
	for _, p := range append(append([]string{}, DefaultDeniedURLs...), deniedURLs...) {
		if err := e.DenyURL(p); err != nil {
			return nil, err
		}
	}
	for _, a := range deniedActions {
		if !step.Type(a).Known() {
			return nil, fmt.Errorf("unknown step type %q in denied actions", a)
		}
		e.DenyAction(a)
	}
	return e, nil
}

func (e *DefaultPolicyEngine) DenyAction(name string) {
	e.DeniedActions[name] = true
}

func (e *DefaultPolicyEngine) DenyURL(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid url pattern %q: %w", pattern, err)
	}
	e.DeniedURLs = append(e.DeniedURLs, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if e.DeniedActions[req.Action] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("action '%s' is restricted by policy", req.Action),
		}, nil
	}

	for _, re := range e.DeniedURLs {
		if req.URL != "" && re.MatchString(req.URL) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("url matches restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "approved by default policy",
	}, nil
}
