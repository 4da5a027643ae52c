package tts

// VoiceProfile identifies a synthesis voice at a provider.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is a human-readable label for logs. Optional.
	Name string

	// Provider is the owning provider name (e.g., "elevenlabs"). Optional.
	Provider string
}
