// Package health provides HTTP health and status check handlers.
//
// The package exposes three endpoints:
//
//   - /health: liveness probe; always returns 200 with the current
//     listener count and server time.
//   - /audio-status: reports the audio fan-out state, connected listener
//     count and whether speech synthesis is configured.
//   - /readyz: readiness probe; returns 200 only when all registered
//     [Checker] functions pass.
//
// Responses are JSON objects with a top-level "status" field ("ok" or "fail").
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout is the maximum time a single readiness check may take before
// the context is cancelled.
const checkTimeout = 5 * time.Second

// ListenerCounter reports the number of currently connected audio listeners.
// Implemented by the relay registry.
type ListenerCounter interface {
	Count() int
}

// Checker is a named health check function. The Check function should return
// nil when the dependency is healthy and a non-nil error describing the
// failure otherwise.
type Checker struct {
	// Name is a short, human-readable label for this check (e.g.
	// "completion", "speech"). It appears as a key in the JSON response.
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// healthResult is the JSON response body for /health.
type healthResult struct {
	Status    string    `json:"status"`
	Listeners int       `json:"listeners"`
	Time      time.Time `json:"time"`
}

// audioStatusResult is the JSON response body for /audio-status.
type audioStatusResult struct {
	Listeners        int  `json:"listeners"`
	SpeechConfigured bool `json:"speech_configured"`
}

// readyResult is the JSON response body for /readyz.
type readyResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the health and status endpoints. It is safe for concurrent
// use; the checker list is fixed at construction time.
type Handler struct {
	listeners        ListenerCounter
	speechConfigured bool
	checkers         []Checker
}

// New creates a [Handler]. listeners supplies the live listener count;
// speechConfigured reports whether a synthesis provider is wired. The
// checkers are evaluated sequentially on each /readyz request, in the order
// provided.
func New(listeners ListenerCounter, speechConfigured bool, checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{
		listeners:        listeners,
		speechConfigured: speechConfigured,
		checkers:         c,
	}
}

// Health is a liveness probe that always returns 200 OK with the current
// listener count. A running process that can serve HTTP is considered alive.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResult{
		Status:    "ok",
		Listeners: h.listeners.Count(),
		Time:      time.Now().UTC(),
	})
}

// AudioStatus reports the audio fan-out state.
func (h *Handler) AudioStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, audioStatusResult{
		Listeners:        h.listeners.Count(),
		SpeechConfigured: h.speechConfigured,
	})
}

// Readyz is a readiness probe that returns 200 only when every registered
// [Checker] passes. Each checker is given a context with a [checkTimeout]
// deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checkers))
	allOK := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := readyResult{
		Status: "ok",
		Checks: checks,
	}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, res)
}

// Register adds the health routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /audio-status", h.AudioStatus)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
