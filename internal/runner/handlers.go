package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/stepwright/internal/governance"
	"github.com/rahul/stepwright/internal/step"
	"github.com/rahul/stepwright/internal/window"
)

const crossOriginNote = "cross-origin, watch window"

// outcome is the result of one step handler.
type outcome struct {
	ok          bool
	crossOrigin bool
	cancelled   bool
	message     string
}

func passed(format string, args ...any) outcome {
	return outcome{ok: true, message: fmt.Sprintf(format, args...)}
}

func failed(format string, args ...any) outcome {
	return outcome{message: fmt.Sprintf(format, args...)}
}

func unreachable(action, selector string) outcome {
	return outcome{
		crossOrigin: true,
		message: fmt.Sprintf("Cannot %s %s: page is cross-origin, verify manually in the test window",
			action, selector),
	}
}

var cancelled = outcome{cancelled: true, message: ErrCancelled.Error()}

func (e *execution) handle(ctx context.Context, s step.Step) outcome {
	if out, ok := e.authorize(ctx, s); !ok {
		return out
	}
	switch s.Type {
	case step.TypeNavigate:
		return e.navigate(ctx, s)
	case step.TypeWaitForPageLoad:
		return e.settle(ctx, e.Delays.PageLoad, fmt.Sprintf("Page reached %s", s.Signal()))
	case step.TypeWait:
		return e.settle(ctx, e.Delays.Wait, fmt.Sprintf("Waited for %s", s.Selector))
	case step.TypeClick:
		return e.click(ctx, s)
	case step.TypeFill:
		return e.fill(ctx, s)
	case step.TypeVerifyElement:
		return e.verify(ctx, s)
	case step.TypeAssert:
		return passed("Assertion reached: %s", s.Condition())
	case step.TypeCustom:
		return passed("Custom step recorded, not executed: %s", s.Condition())
	case step.TypeAPICall:
		return passed("API call %s %s not executed live; use the generated code",
			strings.ToUpper(s.Method), step.ResolveURL(e.BaseURL, s.URL))
	}
	return failed("unsupported step type %q", s.Type)
}

// authorize checks s against the policy. A denial is an ordinary step
// failure.
func (e *execution) authorize(ctx context.Context, s step.Step) (outcome, bool) {
	if e.Policy == nil {
		return outcome{}, true
	}
	url := ""
	if s.Type == step.TypeNavigate || s.Type == step.TypeAPICall {
		url = step.ResolveURL(e.BaseURL, s.URL)
	}
	res, err := e.Policy.Evaluate(ctx, governance.Request{Action: string(s.Type), URL: url, RunID: e.id})
	if err != nil {
		return failed("policy check for %s failed: %v", s.Label(), err), false
	}
	e.Logger.LogPolicy(e.id, string(s.Type), url, res.Allowed(), res.Reason)
	if res.Allowed() {
		return outcome{}, true
	}
	if s.Type == step.TypeNavigate {
		return failed("Navigation to %s blocked: %s", url, res.Reason), false
	}
	return failed("%s blocked: %s", s.Label(), res.Reason), false
}

func (e *execution) navigate(ctx context.Context, s step.Step) outcome {
	url := step.ResolveURL(e.BaseURL, s.URL)

	if err := e.win.Navigate(ctx, url); err != nil {
		if e.closed(ctx, err) {
			return cancelled
		}
		return failed("Navigation to %s failed: %v", url, err)
	}
	if err := e.sleep(ctx, e.Delays.Navigate); err != nil {
		return cancelled
	}

	switch e.win.Probe(ctx) {
	case window.Closed:
		return cancelled
	case window.CrossOrigin:
		return passed("Navigated to %s (%s)", url, crossOriginNote)
	default:
		return passed("Navigated to %s", url)
	}
}

// settle waits a fixed delay. It never needs the DOM, so it passes on both
// sides of the origin boundary.
func (e *execution) settle(ctx context.Context, d time.Duration, message string) outcome {
	if err := e.sleep(ctx, d); err != nil {
		return cancelled
	}
	switch e.win.Probe(ctx) {
	case window.Closed:
		return cancelled
	case window.CrossOrigin:
		return passed("%s (%s)", message, crossOriginNote)
	default:
		return passed("%s", message)
	}
}

func (e *execution) click(ctx context.Context, s step.Step) outcome {
	switch e.win.Probe(ctx) {
	case window.Closed:
		return cancelled
	case window.CrossOrigin:
		return unreachable("click", s.Selector)
	}
	if err := e.win.Click(ctx, s.Selector); err != nil {
		return e.actionError(ctx, err, "Click on %s failed", s.Selector)
	}
	if err := e.sleep(ctx, e.Delays.Click); err != nil {
		return cancelled
	}
	return passed("Clicked %s", s.Selector)
}

func (e *execution) fill(ctx context.Context, s step.Step) outcome {
	switch e.win.Probe(ctx) {
	case window.Closed:
		return cancelled
	case window.CrossOrigin:
		return unreachable("fill", s.Selector)
	}
	if err := e.win.Fill(ctx, s.Selector, s.Value); err != nil {
		return e.actionError(ctx, err, "Fill of %s failed", s.Selector)
	}
	if err := e.sleep(ctx, e.Delays.Fill); err != nil {
		return cancelled
	}
	return passed("Filled %s", s.Selector)
}

func (e *execution) verify(ctx context.Context, s step.Step) outcome {
	switch e.win.Probe(ctx) {
	case window.Closed:
		return cancelled
	case window.CrossOrigin:
		return unreachable("verify", s.Selector)
	}
	visible, err := e.win.Visible(ctx, s.Selector)
	if err != nil {
		return e.actionError(ctx, err, "Verification of %s failed", s.Selector)
	}
	if !visible {
		return failed("Element %s is not visible", s.Selector)
	}
	return passed("Element %s is visible", s.Selector)
}

func (e *execution) actionError(ctx context.Context, err error, format string, args ...any) outcome {
	if e.closed(ctx, err) {
		return cancelled
	}
	if errors.Is(err, window.ErrElementNotFound) {
		return failed("Element not found: %s", args...)
	}
	return failed(format+": %v", append(args, err)...)
}
