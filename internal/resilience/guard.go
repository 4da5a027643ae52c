package resilience

import (
	"context"

	"github.com/blockparty-gg/npcrelay/pkg/provider/notify"
	"github.com/blockparty-gg/npcrelay/pkg/provider/tts"
)

// SpeechGuard implements [tts.Provider] by routing every synthesis call
// through a circuit breaker. While the breaker is open, Synthesize fails fast
// with [ErrCircuitOpen] and the caller falls back to text-only delivery.
type SpeechGuard struct {
	inner   tts.Provider
	breaker *CircuitBreaker
}

var _ tts.Provider = (*SpeechGuard)(nil)

// GuardSpeech wraps inner with a breaker named after the provider.
func GuardSpeech(inner tts.Provider, name string) *SpeechGuard {
	return &SpeechGuard{
		inner:   inner,
		breaker: NewCircuitBreaker(Config{Name: "speech/" + name}),
	}
}

// Synthesize forwards to the wrapped provider when the breaker allows it.
func (g *SpeechGuard) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	var audio []byte
	err := g.breaker.Do(func() error {
		var innerErr error
		audio, innerErr = g.inner.Synthesize(ctx, text, voice)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

// NotifyGuard implements [notify.Provider] by routing every send through a
// circuit breaker.
type NotifyGuard struct {
	inner   notify.Provider
	breaker *CircuitBreaker
}

var _ notify.Provider = (*NotifyGuard)(nil)

// GuardNotify wraps inner with a breaker named after the provider.
func GuardNotify(inner notify.Provider, name string) *NotifyGuard {
	return &NotifyGuard{
		inner:   inner,
		breaker: NewCircuitBreaker(Config{Name: "notify/" + name}),
	}
}

// Send forwards to the wrapped provider when the breaker allows it.
func (g *NotifyGuard) Send(ctx context.Context, phone, text string) error {
	return g.breaker.Do(func() error {
		return g.inner.Send(ctx, phone, text)
	})
}
