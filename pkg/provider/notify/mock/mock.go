// Package mock provides a test double for the notify.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/blockparty-gg/npcrelay/pkg/provider/notify"
)

// SendCall records a single invocation of Send.
type SendCall struct {
	// Phone is the phone number passed to Send.
	Phone string
	// Text is the message text passed to Send.
	Text string
}

// Provider is a mock implementation of notify.Provider.
// Set Err to inject a delivery failure.
type Provider struct {
	mu sync.Mutex

	// Err, if non-nil, is returned as the error from Send.
	Err error

	// SendCalls records every invocation of Send in order.
	SendCalls []SendCall
}

// Send records the call and returns Err.
func (p *Provider) Send(_ context.Context, phone, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SendCalls = append(p.SendCalls, SendCall{Phone: phone, Text: text})
	return p.Err
}

// CallCount returns the number of recorded Send invocations. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.SendCalls)
}

// Calls returns a copy of the recorded invocations. Thread-safe.
func (p *Provider) Calls() []SendCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SendCall, len(p.SendCalls))
	copy(out, p.SendCalls)
	return out
}

// Ensure Provider implements notify.Provider at compile time.
var _ notify.Provider = (*Provider)(nil)
