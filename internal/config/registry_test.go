package config

import (
	"errors"
	"testing"

	"github.com/blockparty-gg/npcrelay/pkg/provider/llm"
	llmmock "github.com/blockparty-gg/npcrelay/pkg/provider/llm/mock"
	"github.com/blockparty-gg/npcrelay/pkg/provider/notify"
	notifymock "github.com/blockparty-gg/npcrelay/pkg/provider/notify/mock"
	"github.com/blockparty-gg/npcrelay/pkg/provider/tts"
	ttsmock "github.com/blockparty-gg/npcrelay/pkg/provider/tts/mock"
)

func TestRegistry_CreateCompletion(t *testing.T) {
	r := NewRegistry()

	var gotEntry ProviderEntry
	r.RegisterCompletion("openai", func(e ProviderEntry) (llm.Provider, error) {
		gotEntry = e
		return &llmmock.Provider{}, nil
	})

	entry := ProviderEntry{Name: "openai", APIKey: "sk-test", Model: "gpt-4o"}
	p, err := r.CreateCompletion(entry)
	if err != nil {
		t.Fatalf("CreateCompletion: %v", err)
	}
	if p == nil {
		t.Fatal("CreateCompletion returned nil provider")
	}
	if gotEntry.APIKey != "sk-test" || gotEntry.Model != "gpt-4o" {
		t.Errorf("factory received entry %+v, want %+v", gotEntry, entry)
	}
}

func TestRegistry_CreateSpeech(t *testing.T) {
	r := NewRegistry()
	r.RegisterSpeech("elevenlabs", func(ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{}, nil
	})

	if _, err := r.CreateSpeech(ProviderEntry{Name: "elevenlabs"}); err != nil {
		t.Fatalf("CreateSpeech: %v", err)
	}
}

func TestRegistry_CreateNotify(t *testing.T) {
	r := NewRegistry()
	r.RegisterNotify("callmebot", func(ProviderEntry) (notify.Provider, error) {
		return &notifymock.Provider{}, nil
	})

	if _, err := r.CreateNotify(ProviderEntry{Name: "callmebot"}); err != nil {
		t.Fatalf("CreateNotify: %v", err)
	}
}

func TestRegistry_UnregisteredProvider(t *testing.T) {
	r := NewRegistry()

	if _, err := r.CreateCompletion(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateCompletion error = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateSpeech(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateSpeech error = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateNotify(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateNotify error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_OverwriteRegistration(t *testing.T) {
	r := NewRegistry()

	first := &llmmock.Provider{}
	second := &llmmock.Provider{}
	r.RegisterCompletion("openai", func(ProviderEntry) (llm.Provider, error) { return first, nil })
	r.RegisterCompletion("openai", func(ProviderEntry) (llm.Provider, error) { return second, nil })

	p, err := r.CreateCompletion(ProviderEntry{Name: "openai"})
	if err != nil {
		t.Fatalf("CreateCompletion: %v", err)
	}
	if p != second {
		t.Error("later registration did not overwrite the earlier one")
	}
}
