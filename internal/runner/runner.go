// Package runner executes a step sequence live in a spawned browser window
// and records the outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rahul/stepwright/internal/governance"
	"github.com/rahul/stepwright/internal/observability"
	"github.com/rahul/stepwright/internal/record"
	"github.com/rahul/stepwright/internal/step"
	"github.com/rahul/stepwright/internal/testcase"
	"github.com/rahul/stepwright/internal/window"
)

var (
	ErrWindowUnavailable = errors.New("test window unavailable")
	ErrCancelled         = errors.New("run cancelled")
	ErrRunInProgress     = errors.New("a run is already in progress")
	ErrManualSequence    = errors.New("sequence has only manual steps and cannot run live")
)

// ExecutionStore receives the finished record of each run.
type ExecutionStore interface {
	AppendExecution(ctx context.Context, exec record.Execution) (*testcase.TestCase, error)
}

// Delays are the fixed settle times applied after each step kind, plus the
// pacing between steps.
type Delays struct {
	Navigate time.Duration
	PageLoad time.Duration
	Wait     time.Duration
	Click    time.Duration
	Fill     time.Duration
	Pacing   time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Navigate: 3000 * time.Millisecond,
		PageLoad: 2000 * time.Millisecond,
		Wait:     1000 * time.Millisecond,
		Click:    500 * time.Millisecond,
		Fill:     300 * time.Millisecond,
		Pacing:   500 * time.Millisecond,
	}
}

const placeholderHTML = `<!doctype html><html><head><title>stepwright</title></head>` +
	`<body style="font-family:sans-serif;color:#555;display:flex;align-items:center;justify-content:center;height:100vh;margin:0">` +
	`<p>Preparing test run...</p></body></html>`

// Runner drives one live run at a time. A second Run while one is active
// returns ErrRunInProgress.
type Runner struct {
	Opener  window.Opener
	Store   ExecutionStore
	Policy  governance.PolicyEngine
	Logger  *observability.Logger
	BaseURL string
	Delays  Delays
	Clock   record.Clock
	// OnStep, when set, observes every step transition.
	OnStep func(index int, result record.StepResult)

	mu     sync.Mutex
	active bool
	stop   context.CancelFunc
}

func New(opener window.Opener, store ExecutionStore) *Runner {
	return &Runner{
		Opener: opener,
		Store:  store,
		Delays: DefaultDelays(),
	}
}

// Stop cancels the active run, if any.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		r.stop()
	}
}

// RunLoaded runs an ingested sequence. Opaque sequences cannot run live.
func (r *Runner) RunLoaded(ctx context.Context, testCaseID string, loaded step.Loaded) (record.Execution, error) {
	switch l := loaded.(type) {
	case step.Structured:
		return r.Run(ctx, testCaseID, l.Steps)
	case step.Opaque:
		return record.Execution{}, ErrManualSequence
	default:
		return record.Execution{}, fmt.Errorf("unknown sequence form %T", loaded)
	}
}

// Run executes seq in a new test window and persists the record.
//
// A malformed sequence returns its *step.ConfigError and a window that cannot
// be opened returns ErrWindowUnavailable; neither touches the store. Step
// failures are reported in the returned record with a nil error. Stopping the
// run or closing the window returns ErrCancelled with the partial record,
// which is not persisted.
func (r *Runner) Run(ctx context.Context, testCaseID string, seq step.Sequence) (record.Execution, error) {
	if err := seq.Validate(); err != nil {
		return record.Execution{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := r.begin(cancel); err != nil {
		return record.Execution{}, err
	}
	defer r.end()

	runID := uuid.NewString()
	r.Logger.LogRun(runID, testCaseID, "start", map[string]any{"steps": len(seq)})
	observability.SetStatus(observability.PhaseRunning, "opening test window")
	defer observability.SetStatus(observability.PhaseIdle, "")

	win, err := r.Opener.Open(ctx)
	if err != nil {
		r.Logger.LogRun(runID, testCaseID, "window_unavailable", map[string]any{"error": err.Error()})
		return record.Execution{}, fmt.Errorf("%w: %v", ErrWindowUnavailable, err)
	}
	defer win.Close()

	go func() {
		select {
		case <-win.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	run := &execution{
		Runner:  r,
		id:      runID,
		win:     win,
		seq:     seq,
		builder: record.NewBuilder(testCaseID, seq, r.Clock),
	}
	exec, err := run.execute(ctx)
	exec.ID = runID
	if err != nil {
		r.Logger.LogRun(runID, testCaseID, "cancelled", map[string]any{"error": err.Error()})
		return exec, err
	}

	r.persist(ctx, exec)
	r.Logger.LogRun(runID, testCaseID, "finish", map[string]any{
		"status": exec.Status, "passed": exec.PassedSteps, "failed": exec.FailedSteps,
	})
	return exec, nil
}

func (r *Runner) begin(cancel context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return ErrRunInProgress
	}
	r.active = true
	r.stop = cancel
	return nil
}

func (r *Runner) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.stop = nil
}

// persist appends exec once. Failures are logged and do not change the
// verdict.
func (r *Runner) persist(ctx context.Context, exec record.Execution) {
	if r.Store == nil {
		return
	}
	_, err := r.Store.AppendExecution(context.WithoutCancel(ctx), exec)
	r.Logger.LogPersist(exec.ID, exec.TestCaseID, err)
	if err != nil {
		log.Printf("failed to save execution for %s: %v", exec.TestCaseID, err)
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ErrCancelled
	}
}

// execution is the state of one run.
type execution struct {
	*Runner
	id      string
	win     window.Window
	seq     step.Sequence
	builder *record.Builder
}

func (e *execution) execute(ctx context.Context) (record.Execution, error) {
	if err := e.win.Placeholder(ctx, placeholderHTML); err != nil {
		if e.closed(ctx, err) {
			return e.builder.Finalize(ErrCancelled.Error()), ErrCancelled
		}
		log.Printf("failed to set placeholder content: %v", err)
	}

	start := 0
	if len(e.seq) > 0 && e.seq[0].Type == step.TypeNavigate {
		// The leading navigation is performed here and not again in the loop.
		if abort, err := e.step(ctx, 0); err != nil || abort != "" {
			return e.builder.Finalize(abort), err
		}
		start = 1
	}

	for i := start; i < len(e.seq); i++ {
		if i > 0 {
			if err := e.sleep(ctx, e.Delays.Pacing); err != nil {
				return e.builder.Finalize(err.Error()), err
			}
		}
		abort, err := e.step(ctx, i)
		if err != nil {
			return e.builder.Finalize(err.Error()), err
		}
		if abort != "" {
			return e.builder.Finalize(abort), nil
		}
	}

	summary := ""
	if n := e.manualChecks(); n > 0 {
		summary = fmt.Sprintf("%d step(s) could not be checked across origins; verify them in the test window", n)
	}
	return e.builder.Finalize(summary), nil
}

// step runs step i through its state transitions. It returns a non-empty
// abort reason when the run must stop, or ErrCancelled.
func (e *execution) step(ctx context.Context, i int) (string, error) {
	s := e.seq[i]
	e.builder.Start(i)
	e.notify(i)
	observability.SetStatus(observability.PhaseRunning, s.Label())

	out := e.handle(ctx, s)
	if out.cancelled {
		return "", ErrCancelled
	}
	if out.ok {
		e.builder.Pass(i, out.message)
	} else {
		e.builder.Fail(i, out.message)
	}
	e.notify(i)

	if !out.ok && !out.crossOrigin {
		return fmt.Sprintf("Step %d failed: %s", i+1, out.message), nil
	}
	return "", nil
}

func (e *execution) notify(i int) {
	res := e.builder.Result(i)
	e.Logger.LogStep(e.id, i, res.Step, string(res.Status), res.Message)
	if e.OnStep != nil {
		e.OnStep(i, res)
	}
}

func (e *execution) manualChecks() int {
	n := 0
	for _, r := range e.builder.Results() {
		if r.Status == record.StatusFailed {
			n++
		}
	}
	return n
}

// closed reports whether err means the window or the run is gone.
func (e *execution) closed(ctx context.Context, err error) bool {
	return errors.Is(err, window.ErrClosed) || errors.Is(err, ErrCancelled) || ctx.Err() != nil
}
