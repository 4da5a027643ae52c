// Package tts defines the Provider interface for speech synthesis backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs) and
// presents a single request/response entry point: Synthesize takes reply text
// and returns the encoded audio bytes for one utterance. The relay broadcasts
// the resulting audio to connected listeners; there is no streaming synthesis
// in this service.
//
// Implementations must be safe for concurrent use; multiple chat requests
// may synthesize in parallel.
package tts

import "context"

// Provider is the abstraction over any speech synthesis backend.
type Provider interface {
	// Synthesize converts text into encoded audio using the given voice.
	// The returned bytes are a complete audio file in the provider's
	// configured output format (e.g., MP3).
	//
	// Returns an error if the provider cannot be reached, rejects the
	// request, or ctx expires first. Callers treat a failure as degraded
	// delivery, not a fatal condition.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)
}
