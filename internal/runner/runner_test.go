package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rahul/stepwright/internal/governance"
	"github.com/rahul/stepwright/internal/record"
	"github.com/rahul/stepwright/internal/step"
	"github.com/rahul/stepwright/internal/testcase"
	"github.com/rahul/stepwright/internal/window"
)

// fakeWindow is a scripted test window. Navigating to a URL listed in
// foreign makes every later probe report CrossOrigin.
type fakeWindow struct {
	mu          sync.Mutex
	foreign     map[string]bool
	missing     map[string]bool
	hidden      map[string]bool
	closeOn     string
	access      window.Access
	navigations []string
	actions     []string
	done        chan struct{}
	closed      bool
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		foreign: map[string]bool{},
		missing: map[string]bool{},
		hidden:  map[string]bool{},
		done:    make(chan struct{}),
	}
}

func (w *fakeWindow) Placeholder(ctx context.Context, html string) error { return nil }

func (w *fakeWindow) Navigate(ctx context.Context, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.navigations = append(w.navigations, url)
	if w.foreign[url] {
		w.access = window.CrossOrigin
	}
	return nil
}

func (w *fakeWindow) Probe(ctx context.Context) window.Access {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.access
}

func (w *fakeWindow) act(kind, selector string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actions = append(w.actions, kind+" "+selector)
	if selector == w.closeOn {
		w.access = window.Closed
		close(w.done)
		return window.ErrClosed
	}
	if w.missing[selector] {
		return window.ErrElementNotFound
	}
	return nil
}

func (w *fakeWindow) Click(ctx context.Context, selector string) error {
	return w.act("click", selector)
}

func (w *fakeWindow) Fill(ctx context.Context, selector, value string) error {
	return w.act("fill", selector)
}

func (w *fakeWindow) Visible(ctx context.Context, selector string) (bool, error) {
	if err := w.act("verify", selector); err != nil {
		return false, err
	}
	return !w.hidden[selector], nil
}

func (w *fakeWindow) Done() <-chan struct{} { return w.done }

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

type fakeOpener struct {
	win   *fakeWindow
	err   error
	opens int
}

func (o *fakeOpener) Open(ctx context.Context) (window.Window, error) {
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	return o.win, nil
}

type fakeStore struct {
	mu    sync.Mutex
	execs []record.Execution
	err   error
}

func (s *fakeStore) AppendExecution(ctx context.Context, exec record.Execution) (*testcase.TestCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execs = append(s.execs, exec)
	if s.err != nil {
		return nil, s.err
	}
	return &testcase.TestCase{ID: exec.TestCaseID, LastExecution: &exec}, nil
}

func newRunner(win *fakeWindow, store *fakeStore) (*Runner, *fakeOpener, *[]record.StepResult) {
	opener := &fakeOpener{win: win}
	r := New(opener, store)
	r.Delays = Delays{}
	r.BaseURL = "http://localhost:3000"
	var transitions []record.StepResult
	r.OnStep = func(i int, res record.StepResult) {
		transitions = append(transitions, res)
	}
	return r, opener, &transitions
}

func loginSeq() step.Sequence {
	return step.Sequence{
		{ID: "1", Type: step.TypeNavigate, URL: "/login"},
		{ID: "2", Type: step.TypeFill, Selector: "#email", Value: "a@b.com"},
		{ID: "3", Type: step.TypeFill, Selector: "#password", Value: "x"},
		{ID: "4", Type: step.TypeClick, Selector: "#submit"},
		{ID: "5", Type: step.TypeWaitForPageLoad, Action: "networkidle"},
		{ID: "6", Type: step.TypeVerifyElement, Selector: "#dashboard"},
		{ID: "7", Type: step.TypeAssert, Action: "user is logged in"},
	}
}

func TestRunAllPassed(t *testing.T) {
	win := newFakeWindow()
	store := &fakeStore{}
	r, _, _ := newRunner(win, store)

	exec, err := r.Run(context.Background(), "tc-1", loginSeq())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if exec.Status != record.StatusPassed || exec.PassedSteps != 7 || exec.FailedSteps != 0 {
		t.Errorf("exec = %+v", exec)
	}
	if len(store.execs) != 1 {
		t.Fatalf("AppendExecution called %d times, want 1", len(store.execs))
	}
	if store.execs[0].TestCaseID != "tc-1" || store.execs[0].ID == "" {
		t.Errorf("stored exec = %+v", store.execs[0])
	}
	if !win.closed {
		t.Error("window was not released")
	}
	want := []string{"fill #email", "fill #password", "click #submit", "verify #dashboard"}
	if strings.Join(win.actions, ",") != strings.Join(want, ",") {
		t.Errorf("actions = %v, want %v", win.actions, want)
	}
}

func TestLeadingNavigateRunsOnce(t *testing.T) {
	win := newFakeWindow()
	r, _, transitions := newRunner(win, &fakeStore{})

	exec, err := r.Run(context.Background(), "tc", loginSeq())
	if err != nil {
		t.Fatal(err)
	}
	if len(win.navigations) != 1 || win.navigations[0] != "http://localhost:3000/login" {
		t.Errorf("navigations = %v, want one resolved login url", win.navigations)
	}
	if exec.StepResults[0].Status != record.StatusPassed {
		t.Errorf("navigate step = %+v", exec.StepResults[0])
	}
	// running + terminal per step
	if got := len(*transitions); got != 2*len(loginSeq()) {
		t.Errorf("got %d transitions, want %d", got, 2*len(loginSeq()))
	}
}

func TestFailureAbortsAndLeavesRestPending(t *testing.T) {
	win := newFakeWindow()
	win.missing["#password"] = true
	store := &fakeStore{}
	r, _, _ := newRunner(win, store)

	exec, err := r.Run(context.Background(), "tc", loginSeq())
	if err != nil {
		t.Fatalf("Run returned %v; step failures belong in the record", err)
	}
	if exec.Status != record.StatusFailed {
		t.Errorf("Status = %s, want failed", exec.Status)
	}
	if exec.StepResults[2].Status != record.StatusFailed {
		t.Errorf("failing step = %+v", exec.StepResults[2])
	}
	for i := 3; i < len(exec.StepResults); i++ {
		if exec.StepResults[i].Status != record.StatusPending {
			t.Errorf("step %d = %s, want pending", i, exec.StepResults[i].Status)
		}
	}
	if exec.PassedSteps != 2 || exec.FailedSteps != 1 {
		t.Errorf("counts = %d/%d, want 2/1", exec.PassedSteps, exec.FailedSteps)
	}
	if !strings.Contains(exec.ErrorMessage, "Step 3 failed") {
		t.Errorf("ErrorMessage = %q", exec.ErrorMessage)
	}
	if len(store.execs) != 1 || store.execs[0].Status != record.StatusFailed {
		t.Errorf("store got %+v, want one failed execution", store.execs)
	}
}

func TestCrossOriginFailureContinues(t *testing.T) {
	win := newFakeWindow()
	win.foreign["https://accounts.example.com/signin"] = true
	store := &fakeStore{}
	r, _, _ := newRunner(win, store)

	seq := step.Sequence{
		{ID: "1", Type: step.TypeNavigate, URL: "https://accounts.example.com/signin"},
		{ID: "2", Type: step.TypeClick, Selector: "#continue"},
		{ID: "3", Type: step.TypeWait, Selector: "#done"},
		{ID: "4", Type: step.TypeFill, Selector: "#code", Value: "1234"},
		{ID: "5", Type: step.TypeCustom, Action: "check the inbox"},
	}
	exec, err := r.Run(context.Background(), "tc", seq)
	if err != nil {
		t.Fatal(err)
	}

	if msg := exec.StepResults[0].Message; exec.StepResults[0].Status != record.StatusPassed || !strings.Contains(msg, "cross-origin") {
		t.Errorf("navigate = %+v", exec.StepResults[0])
	}
	if r := exec.StepResults[1]; r.Status != record.StatusFailed || !strings.Contains(r.Message, "verify manually") {
		t.Errorf("click = %+v", r)
	}
	for i := 1; i < len(exec.StepResults); i++ {
		if exec.StepResults[i].Status == record.StatusPending {
			t.Errorf("step %d left pending after a cross-origin failure", i)
		}
	}
	if exec.StepResults[2].Status != record.StatusPassed || exec.StepResults[4].Status != record.StatusPassed {
		t.Errorf("wait/custom should pass cross-origin: %+v", exec.StepResults)
	}
	if exec.Status != record.StatusFailed || exec.FailedSteps != 2 {
		t.Errorf("exec = %+v", exec)
	}
	if len(win.actions) != 0 {
		t.Errorf("DOM actions attempted cross-origin: %v", win.actions)
	}
	if len(store.execs) != 1 {
		t.Errorf("AppendExecution called %d times, want 1", len(store.execs))
	}
}

func TestWindowUnavailable(t *testing.T) {
	store := &fakeStore{}
	opener := &fakeOpener{err: errors.New("popup blocked")}
	r := New(opener, store)
	r.Delays = Delays{}
	transitions := 0
	r.OnStep = func(int, record.StepResult) { transitions++ }

	_, err := r.Run(context.Background(), "tc", loginSeq())
	if !errors.Is(err, ErrWindowUnavailable) {
		t.Fatalf("err = %v, want ErrWindowUnavailable", err)
	}
	if !strings.Contains(err.Error(), "window unavailable") {
		t.Errorf("message %q does not say window unavailable", err)
	}
	if transitions != 0 {
		t.Errorf("got %d transitions, want 0", transitions)
	}
	if len(store.execs) != 0 {
		t.Errorf("AppendExecution called %d times, want 0", len(store.execs))
	}
}

func TestConfigErrorIsHardFailure(t *testing.T) {
	win := newFakeWindow()
	store := &fakeStore{}
	r, opener, _ := newRunner(win, store)

	seq := step.Sequence{{ID: "1", Type: step.TypeFill, Selector: "#email"}}
	_, err := r.Run(context.Background(), "tc", seq)
	var cfgErr *step.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *step.ConfigError", err)
	}
	if opener.opens != 0 || len(store.execs) != 0 {
		t.Errorf("malformed sequence reached the window (%d) or store (%d)", opener.opens, len(store.execs))
	}
}

func TestClosedWindowCancels(t *testing.T) {
	win := newFakeWindow()
	win.closeOn = "#submit"
	store := &fakeStore{}
	r, _, _ := newRunner(win, store)

	exec, err := r.Run(context.Background(), "tc", loginSeq())
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if len(store.execs) != 0 {
		t.Errorf("cancelled run was persisted")
	}
	if exec.StepResults[3].Status == record.StatusPassed {
		t.Errorf("closing step reported passed")
	}
	if exec.StepResults[4].Status != record.StatusPending {
		t.Errorf("step after close = %s, want pending", exec.StepResults[4].Status)
	}
}

func TestStopCancelsDuringDelay(t *testing.T) {
	win := newFakeWindow()
	store := &fakeStore{}
	r, _, _ := newRunner(win, store)
	r.Delays = Delays{Navigate: time.Hour}

	errc := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), "tc", loginSeq())
		errc <- err
	}()

	deadline := time.After(5 * time.Second)
	for {
		r.mu.Lock()
		active := r.active
		r.mu.Unlock()
		if active {
			break
		}
		select {
		case <-deadline:
			t.Fatal("run never started")
		case <-time.After(time.Millisecond):
		}
	}
	r.Stop()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrCancelled) {
			t.Errorf("err = %v, want ErrCancelled", err)
		}
	case <-deadline:
		t.Fatal("Stop did not halt the run")
	}
	if len(store.execs) != 0 {
		t.Error("stopped run was persisted")
	}
}

func TestSecondRunRejected(t *testing.T) {
	r, _, _ := newRunner(newFakeWindow(), &fakeStore{})
	if err := r.begin(func() {}); err != nil {
		t.Fatal(err)
	}
	defer r.end()
	if _, err := r.Run(context.Background(), "tc", loginSeq()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("err = %v, want ErrRunInProgress", err)
	}
}

func TestPersistenceFailureDoesNotChangeVerdict(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	r, _, _ := newRunner(newFakeWindow(), store)
	exec, err := r.Run(context.Background(), "tc", loginSeq())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if exec.Status != record.StatusPassed || len(store.execs) != 1 {
		t.Errorf("exec = %s, appends = %d", exec.Status, len(store.execs))
	}
}

func TestPolicyBlocksNavigation(t *testing.T) {
	win := newFakeWindow()
	r, _, _ := newRunner(win, &fakeStore{})
	policy, err := governance.NewPolicy(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Policy = policy

	seq := step.Sequence{
		{ID: "1", Type: step.TypeNavigate, URL: "file:///etc/passwd"},
		{ID: "2", Type: step.TypeClick, Selector: "#a"},
	}
	exec, err := r.Run(context.Background(), "tc", seq)
	if err != nil {
		t.Fatal(err)
	}
	if exec.StepResults[0].Status != record.StatusFailed || !strings.Contains(exec.StepResults[0].Message, "blocked") {
		t.Errorf("navigate = %+v", exec.StepResults[0])
	}
	if exec.StepResults[1].Status != record.StatusPending || len(win.navigations) != 0 {
		t.Errorf("run continued past a blocked navigation: %+v", exec.StepResults)
	}
}

func TestPolicyDeniesStepType(t *testing.T) {
	win := newFakeWindow()
	store := &fakeStore{}
	r, _, _ := newRunner(win, store)
	policy, err := governance.NewPolicy(nil, []string{"fill"})
	if err != nil {
		t.Fatal(err)
	}
	r.Policy = policy

	exec, err := r.Run(context.Background(), "tc", loginSeq())
	if err != nil {
		t.Fatal(err)
	}
	if exec.Status != record.StatusFailed || exec.StepResults[0].Status != record.StatusPassed {
		t.Fatalf("exec = %s, first step = %+v", exec.Status, exec.StepResults[0])
	}
	fill := exec.StepResults[1]
	if fill.Status != record.StatusFailed || !strings.Contains(fill.Message, "blocked") || !strings.Contains(fill.Message, "restricted by policy") {
		t.Errorf("fill = %+v", fill)
	}
	if exec.StepResults[2].Status != record.StatusPending || len(win.actions) != 0 {
		t.Errorf("run continued past a denied step: %+v, actions %v", exec.StepResults, win.actions)
	}
	if !strings.HasPrefix(exec.ErrorMessage, "Step 2 failed") || len(store.execs) != 1 {
		t.Errorf("error = %q, appends = %d", exec.ErrorMessage, len(store.execs))
	}
}

func TestAPICallAndHiddenElement(t *testing.T) {
	win := newFakeWindow()
	win.hidden["#toast"] = true
	r, _, _ := newRunner(win, &fakeStore{})

	seq := step.Sequence{
		{ID: "1", Type: step.TypeAPICall, Method: "get", URL: "/api/health"},
		{ID: "2", Type: step.TypeVerifyElement, Selector: "#toast"},
	}
	exec, err := r.Run(context.Background(), "tc", seq)
	if err != nil {
		t.Fatal(err)
	}
	if r := exec.StepResults[0]; r.Status != record.StatusPassed || !strings.Contains(r.Message, "GET http://localhost:3000/api/health") {
		t.Errorf("api_call = %+v", r)
	}
	if r := exec.StepResults[1]; r.Status != record.StatusFailed || !strings.Contains(r.Message, "not visible") {
		t.Errorf("verify = %+v", r)
	}
}

func TestRunLoadedOpaque(t *testing.T) {
	r, opener, _ := newRunner(newFakeWindow(), &fakeStore{})
	_, err := r.RunLoaded(context.Background(), "tc", step.Load([]string{"Open the app", "Click login"}))
	if !errors.Is(err, ErrManualSequence) {
		t.Errorf("err = %v, want ErrManualSequence", err)
	}
	if opener.opens != 0 {
		t.Error("opaque sequence opened a window")
	}
}

func TestRunLoadedStructured(t *testing.T) {
	store := &fakeStore{}
	r, opener, _ := newRunner(newFakeWindow(), store)
	lines, err := step.Encode(loginSeq())
	if err != nil {
		t.Fatal(err)
	}
	exec, err := r.RunLoaded(context.Background(), "tc", step.Load(lines))
	if err != nil {
		t.Fatalf("RunLoaded failed: %v", err)
	}
	if exec.Status != record.StatusPassed || exec.TotalSteps != len(loginSeq()) {
		t.Errorf("exec = %s, %d steps", exec.Status, exec.TotalSteps)
	}
	if opener.opens != 1 || len(store.execs) != 1 {
		t.Errorf("opens = %d, appends = %d", opener.opens, len(store.execs))
	}
}
