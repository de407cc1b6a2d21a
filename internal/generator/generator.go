// Package generator turns a plain-language test description into a
// structured test case with a language model.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/stepwright/internal/observability"
	"github.com/rahul/stepwright/internal/step"
)

const proposeTool = "propose_test_case"

var ErrNoProposal = errors.New("model did not propose a test case")

// Proposal is the generated test case.
type Proposal struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Steps          step.Sequence `json:"steps"`
	ExpectedResult string        `json:"expectedResult"`
}

// Request describes what to generate.
type Request struct {
	Prompt string
	// PageURL, when set, is fetched and given to the model as context.
	PageURL   string
	BaseURL   string
	Framework string
	Language  string
}

// PageSource provides readable page text for a URL.
type PageSource interface {
	Read(ctx context.Context, url string) (string, error)
}

type Generator struct {
	Model   llms.Model
	Prompts *PromptManager
	Pages   PageSource
	Logger  *observability.Logger
	// MaxAttempts bounds how often an invalid proposal is sent back for
	// correction.
	MaxAttempts int
}

func New(model llms.Model, prompts *PromptManager, pages PageSource, logger *observability.Logger) *Generator {
	return &Generator{
		Model:       model,
		Prompts:     prompts,
		Pages:       pages,
		Logger:      logger,
		MaxAttempts: 3,
	}
}

// Generate asks the model for a test case and validates its steps. An
// invalid proposal is returned to the model with the validation error until
// it is fixed or attempts run out.
func (g *Generator) Generate(ctx context.Context, req Request) (*Proposal, error) {
	observability.SetStatus(observability.PhaseGenerating, req.Prompt)
	defer observability.SetStatus(observability.PhaseIdle, "")

	systemPrompt, err := g.Prompts.GetGeneratorPrompt()
	if err != nil {
		return nil, fmt.Errorf("failed to load generator prompt: %w", err)
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(g.userMessage(ctx, req))},
		},
	}

	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	tools := []llms.Tool{proposeTestCaseTool()}

	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := g.Model.GenerateContent(ctx, messages, llms.WithTools(tools))
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, ErrNoProposal
		}
		choice := resp.Choices[0]
		g.Logger.LogLLM(req.Prompt, choice.Content, choice.ToolCalls)

		call := findCall(choice.ToolCalls)
		if call == nil {
			if choice.Content != "" {
				return nil, fmt.Errorf("%w: %s", ErrNoProposal, truncate(choice.Content, 200))
			}
			return nil, ErrNoProposal
		}

		proposal, err := parseProposal(call.FunctionCall.Arguments)
		if err == nil {
			return proposal, nil
		}
		lastErr = err
		log.Printf("[Generator] attempt %d rejected: %v", i+1, err)

		messages = append(messages,
			llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{*call},
			},
			llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: call.ID,
						Name:       call.FunctionCall.Name,
						Content:    fmt.Sprintf("Error: %v. Call %s again with corrected steps.", err, proposeTool),
					},
				},
			},
		)
	}
	return nil, fmt.Errorf("no valid proposal after %d attempts: %w", attempts, lastErr)
}

func (g *Generator) userMessage(ctx context.Context, req Request) string {
	var b strings.Builder
	b.WriteString(req.Prompt)
	if req.BaseURL != "" {
		fmt.Fprintf(&b, "\n\nApplication base url: %s", req.BaseURL)
	}
	if req.Framework != "" {
		fmt.Fprintf(&b, "\nTarget framework: %s %s", req.Framework, req.Language)
	}
	if req.PageURL != "" && g.Pages != nil {
		page, err := g.Pages.Read(ctx, req.PageURL)
		if err != nil {
			log.Printf("Warning: could not read %s for context: %v", req.PageURL, err)
		} else {
			fmt.Fprintf(&b, "\n\n## Page at %s\n%s", req.PageURL, page)
		}
	}
	return b.String()
}

func findCall(calls []llms.ToolCall) *llms.ToolCall {
	for i := range calls {
		if calls[i].FunctionCall != nil && calls[i].FunctionCall.Name == proposeTool {
			return &calls[i]
		}
	}
	return nil
}

func parseProposal(arguments string) (*Proposal, error) {
	var p Proposal
	if err := json.Unmarshal([]byte(arguments), &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s arguments: %w", proposeTool, err)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, errors.New("name is empty")
	}
	if len(p.Steps) == 0 {
		return nil, errors.New("no steps proposed")
	}
	used := make(map[step.ID]bool, len(p.Steps))
	for _, s := range p.Steps {
		used[s.ID] = true
	}
	next := 1
	for i := range p.Steps {
		if p.Steps[i].ID != "" {
			continue
		}
		for used[step.ID(fmt.Sprint(next))] {
			next++
		}
		p.Steps[i].ID = step.ID(fmt.Sprint(next))
		used[p.Steps[i].ID] = true
	}
	if err := p.Steps.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func proposeTestCaseTool() llms.Tool {
	types := make([]string, len(step.Types))
	for i, t := range step.Types {
		types[i] = string(t)
	}
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        proposeTool,
			Description: "Submit a structured test case: a name, a description, ordered steps and the expected result.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":           str("Short test name"),
					"description":    str("What the test checks"),
					"expectedResult": str("Expected outcome, prose or a code expression"),
					"steps": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"id":             map[string]any{"type": "integer"},
								"type":           map[string]any{"type": "string", "enum": types},
								"description":    str("Human readable step description"),
								"action":         str("Readiness signal for waitForPageLoad, condition for assert/custom"),
								"url":            str("Target url for navigate and api_call"),
								"selector":       str("CSS selector for click, fill, wait, verifyElement"),
								"value":          str("Text to type for fill"),
								"method":         str("HTTP method for api_call"),
								"headers":        str("JSON object of request headers for api_call"),
								"body":           str("Request body for api_call"),
								"expectedStatus": map[string]any{"type": "integer"},
							},
							"required": []string{"type"},
						},
					},
				},
				"required": []string{"name", "steps"},
			},
		},
	}
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
