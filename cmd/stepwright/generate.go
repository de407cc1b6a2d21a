package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rahul/stepwright/internal/generator"
	"github.com/rahul/stepwright/internal/testcase"
	"github.com/rahul/stepwright/pkg/config"
)

var (
	genPage      string
	genOut       string
	genSave      bool
	genFramework string
	genLanguage  string
)

var generateCmd = &cobra.Command{
	Use:   "generate \"description of the test\"",
	Short: "Draft a structured test case from a plain-language description",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	llm, err := newModel(a.cfg)
	if err != nil {
		return err
	}
	g := generator.New(llm, generator.NewPromptManager(a.cfg.App.PromptsDir), generator.NewPageReader(), a.logger)

	p, err := g.Generate(ctx, generator.Request{
		Prompt:    args[0],
		PageURL:   genPage,
		BaseURL:   a.cfg.App.BaseURL,
		Framework: genFramework,
		Language:  genLanguage,
	})
	if err != nil {
		return err
	}

	f := testcase.File{
		Name:           p.Name,
		Description:    p.Description,
		Framework:      genFramework,
		Language:       genLanguage,
		BaseURL:        a.cfg.App.BaseURL,
		ExpectedResult: p.ExpectedResult,
		Steps:          p.Steps,
	}

	if genOut != "" {
		if err := testcase.WriteFile(genOut, f); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "  wrote %s (%d steps)\n", genOut, len(p.Steps))
	} else if err := printFile(f); err != nil {
		return err
	}

	if genSave {
		s, err := a.openStore()
		if err != nil {
			return err
		}
		d, err := f.Draft(a.cfg.App.User)
		if err != nil {
			return err
		}
		tc, err := s.Create(ctx, d)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "  saved as %s\n", tc.ID)
	}
	return nil
}

// newModel builds the chat model for the first enabled provider.
func newModel(cfg *config.Config) (llms.Model, error) {
	name, p := cfg.GetDefaultProvider()
	switch name {
	case "":
		return nil, errors.New("no enabled provider in config")
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(p.APIKey),
			openai.WithModel(p.Model),
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("provider %s is not supported", name)
	}
}

func init() {
	generateCmd.Flags().StringVar(&genPage, "page", "", "url of a page to give the model as context")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "write the case file here instead of stdout")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "store the generated test case")
	generateCmd.Flags().StringVarP(&genFramework, "framework", "f", "", "framework the case is meant for")
	generateCmd.Flags().StringVarP(&genLanguage, "language", "l", "", "language the case is meant for")
	rootCmd.AddCommand(generateCmd)
}
