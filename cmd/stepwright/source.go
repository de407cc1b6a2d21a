package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rahul/stepwright/internal/step"
	"github.com/rahul/stepwright/internal/testcase"
)

// source is a test case loaded either from a case file or from the store.
type source struct {
	ID             string
	Name           string
	Loaded         step.Loaded
	ExpectedResult string
	Framework      string
	Language       string
	BaseURL        string
	File           *testcase.File
}

// loadSource treats arg as a case file when it exists on disk, otherwise as
// a stored test case id.
func loadSource(ctx context.Context, a *app, arg string) (*source, error) {
	if _, err := os.Stat(arg); err == nil {
		f, err := testcase.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		return &source{
			Name:           f.Name,
			Loaded:         f.Loaded(),
			ExpectedResult: f.ExpectedResult,
			Framework:      f.Framework,
			Language:       f.Language,
			BaseURL:        f.BaseURL,
			File:           &f,
		}, nil
	}

	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	tc, err := s.GetByID(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("%s is neither a case file nor a stored test case: %w", arg, err)
	}
	return &source{
		ID:             tc.ID,
		Name:           tc.Name,
		Loaded:         tc.Sequence(),
		ExpectedResult: tc.ExpectedResult,
		Framework:      tc.Framework,
		Language:       tc.Language,
		BaseURL:        tc.BaseURL,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
