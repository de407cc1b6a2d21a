package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rahul/stepwright/internal/record"
	"github.com/rahul/stepwright/internal/testcase"
)

const caseColumns = `id, user_id, name, description, steps, expected_result, framework, language, base_url, created_at, updated_at`

const executionColumns = `id, test_case_id, status, started_at, completed_at, duration_ms,
	total_steps, passed_steps, failed_steps, error_message, step_results`

// caseRow is a test case as stored: steps as a JSON list, times as text.
type caseRow struct {
	ID             string
	UserID         string
	Name           string
	Description    string
	Steps          string
	ExpectedResult string
	Framework      string
	Language       string
	BaseURL        string
	CreatedAt      string
	UpdatedAt      string
}

func (r caseRow) args() []any {
	return []any{r.ID, r.UserID, r.Name, r.Description, r.Steps, r.ExpectedResult,
		r.Framework, r.Language, r.BaseURL, r.CreatedAt, r.UpdatedAt}
}

// executionRow is an execution record as stored.
type executionRow struct {
	ID           string
	TestCaseID   string
	Status       string
	StartedAt    string
	CompletedAt  string
	DurationMs   int64
	TotalSteps   int
	PassedSteps  int
	FailedSteps  int
	ErrorMessage string
	StepResults  string
}

func (r executionRow) args() []any {
	return []any{r.ID, r.TestCaseID, r.Status, r.StartedAt, r.CompletedAt, r.DurationMs,
		r.TotalSteps, r.PassedSteps, r.FailedSteps, r.ErrorMessage, r.StepResults}
}

type scanner interface {
	Scan(dest ...any) error
}

// timeLayout has a fixed-width fraction so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad stored time %q: %w", s, err)
	}
	return t, nil
}

func toCaseRow(tc testcase.TestCase) (caseRow, error) {
	steps := tc.Steps
	if steps == nil {
		steps = []string{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return caseRow{}, err
	}
	return caseRow{
		ID:             tc.ID,
		UserID:         tc.UserID,
		Name:           tc.Name,
		Description:    tc.Description,
		Steps:          string(data),
		ExpectedResult: tc.ExpectedResult,
		Framework:      tc.Framework,
		Language:       tc.Language,
		BaseURL:        tc.BaseURL,
		CreatedAt:      formatTime(tc.CreatedAt),
		UpdatedAt:      formatTime(tc.UpdatedAt),
	}, nil
}

func scanCase(s scanner) (testcase.TestCase, error) {
	var r caseRow
	var description, expected, framework, language, baseURL *string
	if err := s.Scan(&r.ID, &r.UserID, &r.Name, &description, &r.Steps, &expected,
		&framework, &language, &baseURL, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return testcase.TestCase{}, err
	}
	tc := testcase.TestCase{
		ID:             r.ID,
		UserID:         r.UserID,
		Name:           r.Name,
		Description:    deref(description),
		ExpectedResult: deref(expected),
		Framework:      deref(framework),
		Language:       deref(language),
		BaseURL:        deref(baseURL),
	}
	if err := json.Unmarshal([]byte(r.Steps), &tc.Steps); err != nil {
		return testcase.TestCase{}, fmt.Errorf("bad stored steps for %s: %w", r.ID, err)
	}
	var err error
	if tc.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return testcase.TestCase{}, err
	}
	if tc.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return testcase.TestCase{}, err
	}
	return tc, nil
}

func toExecutionRow(exec record.Execution) (executionRow, error) {
	results := exec.StepResults
	if results == nil {
		results = []record.StepResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return executionRow{}, err
	}
	return executionRow{
		ID:           exec.ID,
		TestCaseID:   exec.TestCaseID,
		Status:       string(exec.Status),
		StartedAt:    formatTime(exec.StartedAt),
		CompletedAt:  formatTime(exec.CompletedAt),
		DurationMs:   exec.DurationMs,
		TotalSteps:   exec.TotalSteps,
		PassedSteps:  exec.PassedSteps,
		FailedSteps:  exec.FailedSteps,
		ErrorMessage: exec.ErrorMessage,
		StepResults:  string(data),
	}, nil
}

func scanExecution(s scanner) (record.Execution, error) {
	var r executionRow
	var errorMessage *string
	if err := s.Scan(&r.ID, &r.TestCaseID, &r.Status, &r.StartedAt, &r.CompletedAt, &r.DurationMs,
		&r.TotalSteps, &r.PassedSteps, &r.FailedSteps, &errorMessage, &r.StepResults); err != nil {
		return record.Execution{}, err
	}
	exec := record.Execution{
		ID:           r.ID,
		TestCaseID:   r.TestCaseID,
		Status:       record.Status(r.Status),
		DurationMs:   r.DurationMs,
		TotalSteps:   r.TotalSteps,
		PassedSteps:  r.PassedSteps,
		FailedSteps:  r.FailedSteps,
		ErrorMessage: deref(errorMessage),
	}
	if err := json.Unmarshal([]byte(r.StepResults), &exec.StepResults); err != nil {
		return record.Execution{}, fmt.Errorf("bad stored step results for %s: %w", r.ID, err)
	}
	var err error
	if exec.StartedAt, err = parseTime(r.StartedAt); err != nil {
		return record.Execution{}, err
	}
	if exec.CompletedAt, err = parseTime(r.CompletedAt); err != nil {
		return record.Execution{}, err
	}
	return exec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
