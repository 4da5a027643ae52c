// Package api implements the relay's HTTP surface: the NPC chat endpoint,
// the listener WebSocket endpoint, health and status routes, and the
// Prometheus metrics scrape route.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blockparty-gg/npcrelay/internal/config"
	"github.com/blockparty-gg/npcrelay/internal/health"
	"github.com/blockparty-gg/npcrelay/internal/observe"
	"github.com/blockparty-gg/npcrelay/internal/relay"
	"github.com/blockparty-gg/npcrelay/pkg/provider/llm"
	"github.com/blockparty-gg/npcrelay/pkg/provider/notify"
	"github.com/blockparty-gg/npcrelay/pkg/provider/tts"
)

// Per-stage timeouts. Completion bounds the synchronous reply path; the
// other two bound background work that must never pile up.
const (
	completionTimeout = 8 * time.Second
	synthesisTimeout  = 8 * time.Second
	notifyTimeout     = 5 * time.Second
)

// Options collects the dependencies for a [Server]. Speech and Notifier are
// optional; a nil value disables the corresponding stage.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observe.Metrics

	Completion llm.Provider
	Registry   *relay.Registry

	// Speech, SpeechVoice, and SpeechFormat configure the synthesis stage.
	Speech       tts.Provider
	SpeechVoice  tts.VoiceProfile
	SpeechFormat string

	// Notifier configures the outbound notification stage.
	Notifier notify.Provider
}

// Server holds the handler dependencies and the background task tracker.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observe.Metrics

	completion llm.Provider
	registry   *relay.Registry

	speech       tts.Provider
	speechVoice  tts.VoiceProfile
	speechFormat string

	notifier notify.Provider

	// background tracks fire-and-forget goroutines (synthesis, broadcast,
	// notifications) so shutdown can drain them.
	background sync.WaitGroup
}

// NewServer creates a Server from opts. Completion and Registry must be set.
func NewServer(opts Options) *Server {
	return &Server{
		cfg:          opts.Config,
		logger:       opts.Logger.With("component", "api"),
		metrics:      opts.Metrics,
		completion:   opts.Completion,
		registry:     opts.Registry,
		speech:       opts.Speech,
		speechVoice:  opts.SpeechVoice,
		speechFormat: opts.SpeechFormat,
		notifier:     opts.Notifier,
	}
}

// Routes builds the full HTTP handler: API endpoints, health and status
// routes, metrics scrape route, and the observability plus CORS middleware
// stack.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /npc-chat", s.handleChat)
	mux.HandleFunc("GET /listen", s.handleListen)
	mux.Handle("GET /metrics", promhttp.Handler())

	hh := health.New(s.registry, s.speech != nil,
		health.Checker{Name: "completion", Check: func(_ context.Context) error {
			if s.completion == nil {
				return errors.New("completion provider not configured")
			}
			return nil
		}},
	)
	hh.Register(mux)

	if s.cfg.Server.Debug {
		mux.HandleFunc("GET /debug-env", s.handleDebugEnv)
	}

	return CORS(observe.Middleware(s.metrics)(mux))
}

// Wait blocks until all in-flight background tasks complete. Called during
// graceful shutdown.
func (s *Server) Wait() {
	s.background.Wait()
}

// go1 runs fn on a tracked goroutine.
func (s *Server) go1(fn func()) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fn()
	}()
}
