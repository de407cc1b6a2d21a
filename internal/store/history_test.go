package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rahul/stepwright/internal/record"
	"github.com/rahul/stepwright/internal/step"
	"github.com/rahul/stepwright/internal/testcase"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stepwright.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return s
}

func loginDraft(t *testing.T, user string) testcase.Draft {
	t.Helper()
	lines, err := step.Encode(step.Sequence{
		{ID: "1", Type: step.TypeNavigate, URL: "/login"},
		{ID: "2", Type: step.TypeClick, Selector: "#submit"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return testcase.Draft{UserID: user, Name: "Login", Steps: lines, Framework: "playwright", Language: "typescript"}
}

func TestCreateGetList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Create(ctx, loginDraft(t, "alice"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Create(ctx, testcase.Draft{UserID: "alice", Name: "Manual", Steps: []string{"Open the page"}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Create(ctx, testcase.Draft{UserID: "bob", Name: "Other"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Login" || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("GetByID = %+v", got)
	}
	if _, ok := got.Sequence().(step.Structured); !ok {
		t.Errorf("stored steps lost their structure: %v", got.Steps)
	}

	list, err := s.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Manual" {
		t.Errorf("ListForUser = %+v, want newest first", list)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	created, err := s.Create(ctx, loginDraft(t, "alice"))
	if err != nil {
		t.Fatal(err)
	}

	name := "Login v2"
	updated, err := s.Update(ctx, created.ID, testcase.Patch{Name: &name})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != name || updated.Framework != "playwright" {
		t.Errorf("Update = %+v", updated)
	}
	reloaded, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Name != name || !reloaded.UpdatedAt.After(reloaded.CreatedAt) {
		t.Errorf("reloaded = %+v", reloaded)
	}

	if _, err := s.Update(ctx, "missing", testcase.Patch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	created, err := s.Create(ctx, loginDraft(t, "alice"))
	if err != nil {
		t.Fatal(err)
	}

	ok, err := s.Delete(ctx, created.ID)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	ok, err = s.Delete(ctx, created.ID)
	if err != nil || ok {
		t.Errorf("second Delete = %v, %v, want false", ok, err)
	}
}

func TestAppendExecution(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	created, err := s.Create(ctx, loginDraft(t, "alice"))
	if err != nil {
		t.Fatal(err)
	}

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, status := range []record.Status{record.StatusFailed, record.StatusPassed} {
		exec := record.Execution{
			TestCaseID:  created.ID,
			Status:      status,
			StartedAt:   started.Add(time.Duration(i) * time.Minute),
			CompletedAt: started.Add(time.Duration(i)*time.Minute + 4*time.Second),
			DurationMs:  4000,
			TotalSteps:  2,
			PassedSteps: 2 - i,
			StepResults: []record.StepResult{
				{Step: "Navigate to /login", Status: record.StatusPassed, Duration: 3000},
				{Step: "Click #submit", Status: record.StatusPending},
			},
		}
		tc, err := s.AppendExecution(ctx, exec)
		if err != nil {
			t.Fatalf("AppendExecution failed: %v", err)
		}
		if tc.LastExecution == nil || tc.LastExecution.Status != status {
			t.Errorf("LastExecution = %+v, want status %s", tc.LastExecution, status)
		}
	}

	history, err := s.ListExecutions(ctx, created.ID, 0)
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d executions, want 2", len(history))
	}
	if history[0].Status != record.StatusPassed || history[1].Status != record.StatusFailed {
		t.Errorf("history not newest first: %s, %s", history[0].Status, history[1].Status)
	}
	if history[1].StepResults[1].Status != record.StatusPending || history[1].StepResults[0].Duration != 3000 {
		t.Errorf("step results = %+v", history[1].StepResults)
	}
	if !history[1].StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", history[1].StartedAt, started)
	}

	if _, err := s.AppendExecution(ctx, record.Execution{TestCaseID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("AppendExecution(missing) err = %v, want ErrNotFound", err)
	}
}
