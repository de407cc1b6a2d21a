// Package record builds the execution record of one live run.
package record

import (
	"time"

	"github.com/rahul/stepwright/internal/step"
)

// Status is the state of a run or of one step within it.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Step     string `json:"step"`
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration int64  `json:"duration,omitempty"` // milliseconds
}

// Execution is the persisted summary of one live run.
type Execution struct {
	ID           string       `json:"id,omitempty"`
	TestCaseID   string       `json:"testCaseId"`
	Status       Status       `json:"status"`
	StartedAt    time.Time    `json:"startedAt"`
	CompletedAt  time.Time    `json:"completedAt"`
	DurationMs   int64        `json:"durationMs"`
	TotalSteps   int          `json:"totalSteps"`
	PassedSteps  int          `json:"passedSteps"`
	FailedSteps  int          `json:"failedSteps"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	StepResults  []StepResult `json:"stepResults"`
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Builder owns the record of one run from its pending shell to the final
// summary. It is not safe for concurrent use.
type Builder struct {
	testCaseID string
	clock      Clock
	startedAt  time.Time
	results    []StepResult
	started    []time.Time
}

// NewBuilder creates the pending shell for seq: every step pending, start
// time taken now.
func NewBuilder(testCaseID string, seq step.Sequence, clock Clock) *Builder {
	if clock == nil {
		clock = time.Now
	}
	b := &Builder{
		testCaseID: testCaseID,
		clock:      clock,
		startedAt:  clock(),
		results:    make([]StepResult, len(seq)),
		started:    make([]time.Time, len(seq)),
	}
	for i, s := range seq {
		b.results[i] = StepResult{Step: s.Label(), Status: StatusPending}
	}
	return b
}

// Start moves step i to running.
func (b *Builder) Start(i int) {
	b.results[i].Status = StatusRunning
	b.started[i] = b.clock()
}

// Pass moves step i to passed.
func (b *Builder) Pass(i int, message string) {
	b.finish(i, StatusPassed, message)
}

// Fail moves step i to failed.
func (b *Builder) Fail(i int, message string) {
	b.finish(i, StatusFailed, message)
}

func (b *Builder) finish(i int, status Status, message string) {
	r := &b.results[i]
	if r.Status == StatusPassed || r.Status == StatusFailed {
		return
	}
	r.Status = status
	r.Message = message
	if !b.started[i].IsZero() {
		r.Duration = b.clock().Sub(b.started[i]).Milliseconds()
	}
}

// Result returns a copy of step i's current result.
func (b *Builder) Result(i int) StepResult {
	return b.results[i]
}

// Results returns a copy of all step results in order.
func (b *Builder) Results() []StepResult {
	out := make([]StepResult, len(b.results))
	copy(out, b.results)
	return out
}

// Finalize summarises the current results. Counts are computed from the
// results as they stand at this call, so an abort right after a failure
// counts that failure. errorMessage is kept as given.
func (b *Builder) Finalize(errorMessage string) Execution {
	completed := b.clock()
	exec := Execution{
		TestCaseID:   b.testCaseID,
		StartedAt:    b.startedAt,
		CompletedAt:  completed,
		DurationMs:   completed.Sub(b.startedAt).Milliseconds(),
		TotalSteps:   len(b.results),
		ErrorMessage: errorMessage,
		StepResults:  b.Results(),
	}
	for _, r := range exec.StepResults {
		switch r.Status {
		case StatusPassed:
			exec.PassedSteps++
		case StatusFailed:
			exec.FailedSteps++
		}
	}
	exec.Status = StatusPassed
	if exec.FailedSteps > 0 || errorMessage != "" {
		exec.Status = StatusFailed
	}
	return exec
}
