package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rahul/stepwright/internal/emitter"
	"github.com/rahul/stepwright/internal/observability"
	"github.com/rahul/stepwright/internal/step"
)

var (
	emitFramework string
	emitLanguage  string
	emitBaseURL   string
	emitName      string
	emitOut       string
)

var emitCmd = &cobra.Command{
	Use:   "emit [case.yaml | test-case-id]",
	Short: "Generate framework source code for a test case",
	Long: "Generate source code for a (framework, language) target.\n\n" +
		"Frameworks: " + joinNames(step.Frameworks) + "\n" +
		"Languages:  " + joinNames(step.Languages),
	Args: cobra.ExactArgs(1),
	RunE: runEmit,
}

func runEmit(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	src, err := loadSource(cmd.Context(), a, args[0])
	if err != nil {
		return err
	}

	target, err := step.ParseTarget(
		firstNonEmpty(emitFramework, src.Framework, string(step.Playwright)),
		firstNonEmpty(emitLanguage, src.Language, string(step.TypeScript)),
	)
	if err != nil {
		return err
	}
	if !target.Supported() {
		fmt.Fprintf(os.Stderr, "  %s has no dedicated template; emitting comments only\n", target)
	}

	observability.SetStatus(observability.PhaseEmitting, src.Name)
	defer observability.SetStatus(observability.PhaseIdle, "")

	opts := emitter.Options{
		BaseURL:        firstNonEmpty(emitBaseURL, src.BaseURL, a.cfg.App.BaseURL),
		TestName:       firstNonEmpty(emitName, src.Name),
		ExpectedResult: src.ExpectedResult,
	}
	code := emitter.EmitLoaded(src.Loaded, target, opts)
	steps := 0
	if s, ok := src.Loaded.(step.Structured); ok {
		steps = len(s.Steps)
	}
	a.logger.LogEmit(target.String(), steps, strings.Count(code, "\n"))

	if emitOut == "" {
		fmt.Print(code)
		return nil
	}
	out := emitOut
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, emitter.FileName(target, opts))
	}
	if err := os.WriteFile(out, []byte(code), 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "  wrote %s\n", out)
	return nil
}

func joinNames[T ~string](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

func init() {
	emitCmd.Flags().StringVarP(&emitFramework, "framework", "f", "", "target framework (defaults to the case's, then playwright)")
	emitCmd.Flags().StringVarP(&emitLanguage, "language", "l", "", "target language (defaults to the case's, then typescript)")
	emitCmd.Flags().StringVar(&emitBaseURL, "base-url", "", "base url for relative navigation")
	emitCmd.Flags().StringVar(&emitName, "name", "", "test name")
	emitCmd.Flags().StringVarP(&emitOut, "out", "o", "", "output file or directory (stdout when empty)")
	rootCmd.AddCommand(emitCmd)
}
