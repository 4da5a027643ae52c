package openai

import (
	"strings"
	"testing"

	"github.com/blockparty-gg/npcrelay/pkg/provider/llm"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	_, err := New("", "gpt-4o")
	if err == nil {
		t.Fatal("expected error for empty API key, got nil")
	}
}

func TestNew_DefaultsModel(t *testing.T) {
	t.Parallel()
	p, err := New("sk-test", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != defaultModel {
		t.Errorf("model = %q, want %q", p.model, defaultModel)
	}
}

func TestBuildParams_MapsFields(t *testing.T) {
	t.Parallel()
	p, err := New("sk-test", "gpt-4o")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	params, err := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "be brief",
		Messages: []llm.Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
		Temperature: 0.7,
		MaxTokens:   128,
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}

	if string(params.Model) != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", params.Model)
	}
	// System prompt is prepended, so 3 messages total.
	if len(params.Messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(params.Messages))
	}
	if got := params.Temperature.Value; got != 0.7 {
		t.Errorf("temperature = %v, want 0.7", got)
	}
	if got := params.MaxCompletionTokens.Value; got != 128 {
		t.Errorf("max completion tokens = %v, want 128", got)
	}
}

func TestBuildParams_ZeroBudgetOmitted(t *testing.T) {
	t.Parallel()
	p, err := New("sk-test", "gpt-4o")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	params, err := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	if params.MaxCompletionTokens.Valid() {
		t.Error("max completion tokens should be unset when MaxTokens is 0")
	}
	if params.Temperature.Valid() {
		t.Error("temperature should be unset when Temperature is 0")
	}
}

func TestConvertMessage_UnknownRole(t *testing.T) {
	t.Parallel()
	_, err := convertMessage(llm.Message{Role: "tool", Content: "x"})
	if err == nil {
		t.Fatal("expected error for unknown role, got nil")
	}
	if !strings.Contains(err.Error(), "unknown message role") {
		t.Errorf("error should mention unknown role, got: %v", err)
	}
}
