package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/stepwright/internal/step"
)

// fakeModel replays scripted responses and records what it was sent.
type fakeModel struct {
	responses []*llms.ContentResponse
	calls     [][]llms.MessageContent
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls = append(m.calls, messages)
	if len(m.responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func toolResponse(id, args string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           id,
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: proposeTool, Arguments: args},
		}},
	}}}
}

func textOf(m llms.MessageContent) string {
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(llms.TextContent); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

func textResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}
}

const loginArgs = `{
	"name": "Login works",
	"description": "Valid credentials reach the dashboard",
	"expectedResult": "User sees the dashboard",
	"steps": [
		{"id": 1, "type": "navigate", "url": "/login"},
		{"id": 2, "type": "fill", "selector": "#email", "value": "a@b.com"},
		{"type": "click", "selector": "#submit"}
	]
}`

func TestGenerate(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{toolResponse("call-1", loginArgs)}}
	g := New(model, NewPromptManager(""), nil, nil)

	p, err := g.Generate(context.Background(), Request{Prompt: "test the login form", BaseURL: "http://localhost:3000"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if p.Name != "Login works" || len(p.Steps) != 3 {
		t.Fatalf("proposal = %+v", p)
	}
	if p.Steps[0].ID != "1" || p.Steps[2].ID != "3" {
		t.Errorf("ids = %q, %q", p.Steps[0].ID, p.Steps[2].ID)
	}
	if p.Steps[1].Type != step.TypeFill || p.Steps[1].Value != "a@b.com" {
		t.Errorf("fill step = %+v", p.Steps[1])
	}

	sent := model.calls[0]
	if sent[0].Role != llms.ChatMessageTypeSystem {
		t.Errorf("first message role = %s", sent[0].Role)
	}
	human := textOf(sent[1])
	if !strings.Contains(human, "test the login form") || !strings.Contains(human, "http://localhost:3000") {
		t.Errorf("user message = %q", human)
	}
}

func TestGenerateRetriesInvalidSteps(t *testing.T) {
	bad := `{"name": "x", "steps": [{"id": 1, "type": "fill", "selector": "#email"}]}`
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolResponse("call-1", bad),
		toolResponse("call-2", loginArgs),
	}}
	g := New(model, nil, nil, nil)

	p, err := g.Generate(context.Background(), Request{Prompt: "login"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if p.Name != "Login works" {
		t.Errorf("proposal = %+v", p)
	}
	if len(model.calls) != 2 {
		t.Fatalf("model called %d times, want 2", len(model.calls))
	}
	retry := model.calls[1]
	last := retry[len(retry)-1]
	if last.Role != llms.ChatMessageTypeTool {
		t.Fatalf("last message role = %s, want tool", last.Role)
	}
	resp, ok := last.Parts[0].(llms.ToolCallResponse)
	if !ok || resp.ToolCallID != "call-1" || !strings.Contains(resp.Content, "value") {
		t.Errorf("tool response = %+v", last.Parts[0])
	}
}

func TestGenerateGivesUp(t *testing.T) {
	bad := `{"name": "x", "steps": []}`
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolResponse("a", bad), toolResponse("b", bad), toolResponse("c", bad),
	}}
	g := New(model, nil, nil, nil)
	if _, err := g.Generate(context.Background(), Request{Prompt: "x"}); err == nil || !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("err = %v", err)
	}
}

func TestGenerateTextAnswer(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{textResponse("I need more detail.")}}
	g := New(model, nil, nil, nil)
	_, err := g.Generate(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrNoProposal) || !strings.Contains(err.Error(), "more detail") {
		t.Errorf("err = %v", err)
	}
}

type stubPages struct {
	text string
	err  error
}

func (s stubPages) Read(ctx context.Context, url string) (string, error) {
	return s.text, s.err
}

func TestGenerateWithPageContext(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{toolResponse("1", loginArgs)}}
	g := New(model, nil, stubPages{text: "TITLE: Sign in"}, nil)
	if _, err := g.Generate(context.Background(), Request{Prompt: "login", PageURL: "http://app/login"}); err != nil {
		t.Fatal(err)
	}
	if human := textOf(model.calls[0][1]); !strings.Contains(human, "TITLE: Sign in") {
		t.Errorf("page context missing from %q", human)
	}

	model = &fakeModel{responses: []*llms.ContentResponse{toolResponse("1", loginArgs)}}
	g = New(model, nil, stubPages{err: errors.New("offline")}, nil)
	if _, err := g.Generate(context.Background(), Request{Prompt: "login", PageURL: "http://app/login"}); err != nil {
		t.Errorf("page read failure should not fail generation: %v", err)
	}
}

func TestPageReader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Sign in</title></head><body>
			<article><h1>Sign in to Acme</h1>
			<p>Enter the email address and password for your Acme account to continue to the dashboard.
			Accounts are locked after five failed attempts, so contact support if you forgot the password.</p>
			<p>New here? Create an account from the registration page and confirm your email address first.</p>
			<script>alert('x')</script></article></body></html>`)
	}))
	defer srv.Close()

	reader := NewPageReader()
	text, err := reader.Read(context.Background(), srv.URL+"/login")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !strings.Contains(text, "TITLE:") || !strings.Contains(text, "Sign in") {
		t.Errorf("text = %q", text)
	}
	if strings.Contains(text, "<script>") {
		t.Error("markup leaked into page text")
	}

	if _, err := reader.Read(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected an error for a 404 page")
	}
}

func TestGenerateFillsUniqueIDs(t *testing.T) {
	args := `{"name": "x", "steps": [
		{"type": "navigate", "url": "/"},
		{"id": 1, "type": "click", "selector": "#a"},
		{"type": "click", "selector": "#b"}
	]}`
	model := &fakeModel{responses: []*llms.ContentResponse{toolResponse("1", args)}}
	p, err := New(model, nil, nil, nil).Generate(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	got := []step.ID{p.Steps[0].ID, p.Steps[1].ID, p.Steps[2].ID}
	if got[0] != "2" || got[1] != "1" || got[2] != "3" {
		t.Errorf("ids = %v", got)
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	if got := truncate("héllo wörld", 7); got != "héllo w..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("日本語のテキスト", 3); got != "日本語..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}

func TestGenerateTextAnswerTruncatedOnRunes(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{textResponse(strings.Repeat("é", 300))}}
	_, err := New(model, nil, nil, nil).Generate(context.Background(), Request{Prompt: "x"})
	if err == nil || !utf8.ValidString(err.Error()) || !strings.HasSuffix(err.Error(), strings.Repeat("é", 200)+"...") {
		t.Errorf("err = %v", err)
	}
}
