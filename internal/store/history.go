// Package store persists test cases and their execution history in sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"

	"github.com/rahul/stepwright/internal/record"
	"github.com/rahul/stepwright/internal/testcase"
)

var ErrNotFound = errors.New("test case not found")

type Store struct {
	DB  *sql.DB
	now func() time.Time
}

func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	queries := []string{
		`CREATE TABLE IF NOT EXISTS test_cases (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			steps TEXT NOT NULL,
			expected_result TEXT,
			framework TEXT,
			language TEXT,
			base_url TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			test_case_id TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			duration_ms INTEGER,
			total_steps INTEGER,
			passed_steps INTEGER,
			failed_steps INTEGER,
			error_message TEXT,
			step_results TEXT,
			seq INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_executions_case ON executions (test_case_id, seq);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialise schema: %w", err)
		}
	}

	return &Store{DB: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) ListForUser(ctx context.Context, userID string) ([]testcase.TestCase, error) {
	query := `SELECT ` + caseColumns + ` FROM test_cases WHERE user_id = ? ORDER BY updated_at DESC, name`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []testcase.TestCase
	for rows.Next() {
		tc, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, id string) (*testcase.TestCase, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM test_cases WHERE id = ?`, id)
	tc, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	last, err := s.ListExecutions(ctx, id, 1)
	if err != nil {
		return nil, err
	}
	if len(last) > 0 {
		tc.LastExecution = &last[0]
	}
	return &tc, nil
}

func (s *Store) Create(ctx context.Context, d testcase.Draft) (*testcase.TestCase, error) {
	tc := testcase.New(d, s.now().UTC())
	row, err := toCaseRow(tc)
	if err != nil {
		return nil, err
	}
	query := `INSERT INTO test_cases (` + caseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.DB.ExecContext(ctx, query, row.args()...); err != nil {
		return nil, fmt.Errorf("failed to create test case: %w", err)
	}
	return &tc, nil
}

func (s *Store) Update(ctx context.Context, id string, p testcase.Patch) (*testcase.TestCase, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tc := p.Apply(*current, s.now().UTC())
	row, err := toCaseRow(tc)
	if err != nil {
		return nil, err
	}
	query := `UPDATE test_cases SET name = ?, description = ?, steps = ?, expected_result = ?,
		framework = ?, language = ?, base_url = ?, updated_at = ? WHERE id = ?`
	_, err = s.DB.ExecContext(ctx, query,
		row.Name, row.Description, row.Steps, row.ExpectedResult,
		row.Framework, row.Language, row.BaseURL, row.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update test case: %w", err)
	}
	return &tc, nil
}

// Delete removes a test case and its history. It reports whether the case
// existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM test_cases WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM executions WHERE test_case_id = ?`, id); err != nil {
		return n > 0, err
	}
	return n > 0, nil
}

// AppendExecution stores exec against its test case and returns the case
// with LastExecution set.
func (s *Store) AppendExecution(ctx context.Context, exec record.Execution) (*testcase.TestCase, error) {
	if exec.ID == "" {
		exec.ID = uuid.NewString()
	}
	var exists int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM test_cases WHERE id = ?`, exec.TestCaseID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	row, err := toExecutionRow(exec)
	if err != nil {
		return nil, err
	}
	query := `INSERT INTO executions (` + executionColumns + `, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM executions WHERE test_case_id = ?))`
	args := append(row.args(), exec.TestCaseID)
	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to append execution: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, `UPDATE test_cases SET updated_at = ? WHERE id = ?`,
		formatTime(s.now().UTC()), exec.TestCaseID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, exec.TestCaseID)
}

// ListExecutions returns up to limit executions of a test case, newest
// first. A limit of zero or less returns all of them.
func (s *Store) ListExecutions(ctx context.Context, testCaseID string, limit int) ([]record.Execution, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + executionColumns + ` FROM executions WHERE test_case_id = ? ORDER BY seq DESC LIMIT ?`
	rows, err := s.DB.QueryContext(ctx, query, testCaseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []record.Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, exec)
	}
	return history, rows.Err()
}
