// Package relay maintains the set of connected audio listeners and fans
// NPC reply messages out to them.
//
// The registry is transport-agnostic: listeners are registered with any
// implementation of Conn, so tests can inject in-memory fakes and the HTTP
// layer wraps real WebSocket connections. All methods are safe for
// concurrent use.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Conn is the minimal write surface the registry needs from a listener
// connection.
type Conn interface {
	// Write delivers one complete message to the peer.
	Write(ctx context.Context, data []byte) error
	// Close tears the connection down.
	Close() error
}

// Listener is one registered audio consumer.
type Listener struct {
	// ID is the ephemeral identity assigned at registration.
	ID string

	conn   Conn
	closed atomic.Bool
}

// MarkClosed flags the listener as no longer writable. Broadcast skips
// flagged listeners; removal still requires Unregister.
func (l *Listener) MarkClosed() {
	l.closed.Store(true)
}

// Registry is the shared set of connected listeners.
type Registry struct {
	logger       *slog.Logger
	writeTimeout time.Duration

	mu        sync.RWMutex
	listeners map[string]*Listener
}

// Option is a functional option for configuring the Registry.
type Option func(*Registry)

// WithWriteTimeout bounds each individual listener write during Broadcast
// and registration. Defaults to 5 s.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.writeTimeout = d
	}
}

// NewRegistry creates an empty listener registry.
func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		logger:       logger.With("component", "relay"),
		writeTimeout: 5 * time.Second,
		listeners:    make(map[string]*Listener),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register adds conn to the set and sends it the connection acknowledgement.
// If the acknowledgement cannot be delivered the listener is discarded and
// an error returned.
func (r *Registry) Register(ctx context.Context, conn Conn) (*Listener, error) {
	l := &Listener{
		ID:   uuid.NewString(),
		conn: conn,
	}

	ack, err := json.Marshal(ConnectedMessage{
		Type:       TypeConnected,
		ListenerID: l.ID,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ack: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()
	if err := conn.Write(wctx, ack); err != nil {
		return nil, fmt.Errorf("send ack: %w", err)
	}

	r.mu.Lock()
	r.listeners[l.ID] = l
	n := len(r.listeners)
	r.mu.Unlock()

	r.logger.Info("listener registered", "listener_id", l.ID, "listeners", n)
	return l, nil
}

// Unregister removes the listener from the set. Idempotent: removing an
// absent listener is a no-op.
func (r *Registry) Unregister(l *Listener) {
	if l == nil {
		return
	}
	l.MarkClosed()

	r.mu.Lock()
	_, present := r.listeners[l.ID]
	delete(r.listeners, l.ID)
	n := len(r.listeners)
	r.mu.Unlock()

	if present {
		r.logger.Info("listener unregistered", "listener_id", l.ID, "listeners", n)
	}
}

// Count returns the current number of registered listeners.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

// Broadcast serializes msg once and writes it to every writable listener.
// A listener flagged closed is skipped. A listener whose write fails is
// unregistered; the failure never aborts delivery to the rest. Returns the
// number of successful sends.
func (r *Registry) Broadcast(ctx context.Context, msg AudioMessage) (int, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("marshal broadcast: %w", err)
	}

	r.mu.RLock()
	snapshot := make([]*Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		snapshot = append(snapshot, l)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, l := range snapshot {
		if l.closed.Load() {
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
		err := l.conn.Write(wctx, data)
		cancel()
		if err != nil {
			r.logger.Warn("broadcast write failed, dropping listener",
				"listener_id", l.ID, "error", err)
			r.Unregister(l)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		r.logger.Debug("broadcast delivered",
			"type", msg.Type, "request_id", msg.RequestID, "delivered", delivered)
	}
	return delivered, nil
}

// CloseAll unregisters every listener and closes its connection. Used during
// shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	snapshot := make([]*Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		snapshot = append(snapshot, l)
	}
	r.listeners = make(map[string]*Listener)
	r.mu.Unlock()

	for _, l := range snapshot {
		l.MarkClosed()
		if err := l.conn.Close(); err != nil {
			r.logger.Debug("close listener", "listener_id", l.ID, "error", err)
		}
	}
}
