package relay

import "time"

// Message types sent to connected listeners.
const (
	// TypeConnected acknowledges a successful listener registration.
	TypeConnected = "connected"
	// TypeNPCAudio carries one NPC reply, with audio when synthesis
	// succeeded and text-only when it did not.
	TypeNPCAudio = "npc_audio"
)

// ConnectedMessage is the acknowledgement sent to a listener immediately
// after registration.
type ConnectedMessage struct {
	Type       string    `json:"type"`
	ListenerID string    `json:"listener_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// AudioMessage is the payload broadcast to every listener for one NPC reply.
// Audio is base64-encoded by the standard JSON marshaler; it is empty when
// synthesis failed or was skipped, in which case listeners fall back to the
// text reply.
type AudioMessage struct {
	Type        string    `json:"type"`
	RequestID   string    `json:"request_id"`
	NPCKey      string    `json:"npc_key"`
	NPCName     string    `json:"npc_name"`
	Reply       string    `json:"reply"`
	Timestamp   time.Time `json:"timestamp"`
	Audio       []byte    `json:"audio,omitempty"`
	AudioFormat string    `json:"audio_format,omitempty"`
}
