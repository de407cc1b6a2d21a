// Package notify delivers run summaries to chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/stepwright/internal/observability"
	"github.com/rahul/stepwright/internal/record"
)

// Messenger sends a text message to a preconfigured destination.
type Messenger interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// Escaper is implemented by messengers whose destination parses markup.
// Escape makes free text safe to place outside code spans.
type Escaper interface {
	Escape(text string) string
}

// Notifier fans a message out to every messenger.
type Notifier struct {
	Messengers []Messenger
	Logger     *observability.Logger
}

func New(logger *observability.Logger, messengers ...Messenger) *Notifier {
	return &Notifier{Messengers: messengers, Logger: logger}
}

// Notify sends the summary of exec. Every messenger is tried; the errors of
// those that failed are joined.
func (n *Notifier) Notify(ctx context.Context, testName string, exec record.Execution) error {
	if n == nil || len(n.Messengers) == 0 {
		return nil
	}
	var errs []error
	for _, m := range n.Messengers {
		var escape func(string) string
		if e, ok := m.(Escaper); ok {
			escape = e.Escape
		}
		err := m.Send(ctx, summary(testName, exec, escape))
		n.Logger.LogNotify(m.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Summary renders exec as a short markdown message.
func Summary(testName string, exec record.Execution) string {
	return summary(testName, exec, nil)
}

// summary passes every free-text part through escape, when set. Step labels
// stay in code spans with their backticks replaced.
func summary(testName string, exec record.Execution, escape func(string) string) string {
	if escape == nil {
		escape = func(s string) string { return s }
	}
	icon := "✅"
	if exec.Status != record.StatusPassed {
		icon = "❌"
	}
	if testName == "" {
		testName = exec.TestCaseID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* %s\n", icon, escape(testName), strings.ToUpper(string(exec.Status)))
	fmt.Fprintf(&b, "%d/%d steps passed", exec.PassedSteps, exec.TotalSteps)
	if exec.FailedSteps > 0 {
		fmt.Fprintf(&b, ", %d failed", exec.FailedSteps)
	}
	fmt.Fprintf(&b, " in %s\n", (time.Duration(exec.DurationMs) * time.Millisecond).Round(100*time.Millisecond))
	if exec.ErrorMessage != "" {
		fmt.Fprintf(&b, "> %s\n", escape(exec.ErrorMessage))
	}
	for i, r := range exec.StepResults {
		if r.Status != record.StatusFailed {
			continue
		}
		fmt.Fprintf(&b, "• step %d `%s`: %s\n", i+1, strings.ReplaceAll(r.Step, "`", "'"), escape(r.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}
