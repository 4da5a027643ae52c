package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/blockparty-gg/npcrelay/internal/config"
	"github.com/blockparty-gg/npcrelay/internal/observe"
	"github.com/blockparty-gg/npcrelay/pkg/provider/llm"
	llmmock "github.com/blockparty-gg/npcrelay/pkg/provider/llm/mock"
)

func testApp(t *testing.T) *App {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			ListenAddr: "127.0.0.1:0",
			LogLevel:   config.LogInfo,
		},
		Providers: config.ProvidersConfig{
			Completion: config.ProviderEntry{Name: "openai"},
		},
		Chat: config.ChatConfig{
			MaxBubbleChars:   config.DefaultMaxBubbleChars,
			DefaultMaxTokens: config.DefaultMaxTokens,
			MaxTokensCeiling: config.DefaultMaxTokensCeiling,
			Temperature:      config.DefaultTemperature,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	a, err := New(cfg, &Providers{
		Completion: &llmmock.Provider{
			CompleteResponse: &llm.CompletionResponse{Content: "oi"},
		},
	}, logger, metrics)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_RequiresCompletionProvider(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	if _, err := New(&config.Config{}, &Providers{}, logger, metrics); err == nil {
		t.Fatal("expected error for missing completion provider, got nil")
	}
	if _, err := New(&config.Config{}, nil, logger, metrics); err == nil {
		t.Fatal("expected error for nil providers, got nil")
	}
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	a := testApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// Wait for the socket to bind.
	deadline := time.Now().Add(5 * time.Second)
	for a.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not bind in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + a.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	a := testApp(t)

	ctx := context.Background()
	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("first Shutdown: %v", err)
	}
	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}
