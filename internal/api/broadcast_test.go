package api

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/blockparty-gg/npcrelay/internal/relay"
)

// captureConn is an in-memory relay.Conn that records every write.
type captureConn struct {
	mu     sync.Mutex
	writes [][]byte
}

func (c *captureConn) Write(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.writes = append(c.writes, buf)
	return nil
}

func (c *captureConn) Close() error { return nil }

// messages decodes every recorded write as an AudioMessage, skipping the
// registration ack.
func (c *captureConn) messages(t *testing.T) []relay.AudioMessage {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []relay.AudioMessage
	for _, raw := range c.writes {
		var m relay.AudioMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("unmarshal write: %v", err)
		}
		if m.Type == relay.TypeNPCAudio {
			out = append(out, m)
		}
	}
	return out
}

func TestHandleChat_BroadcastsAudio(t *testing.T) {
	s, _, speech, _, registry := newTestServer(t, nil)

	conn := &captureConn{}
	if _, err := registry.Register(context.Background(), conn); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec := postChat(t, s, validPayload(), testToken)
	s.Wait()

	if rec.Code != 200 {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if speech.CallCount() != 1 {
		t.Fatalf("synthesis calls = %d, want 1", speech.CallCount())
	}
	if got := speech.SynthesizeCalls[0]; got.Text != "Ora ora, viajante!" || got.Voice.ID != "v1" {
		t.Errorf("synthesis call = %+v", got)
	}

	msgs := conn.messages(t)
	if len(msgs) != 1 {
		t.Fatalf("broadcast messages = %d, want 1", len(msgs))
	}
	msg := msgs[0]
	if msg.Reply != "Ora ora, viajante!" {
		t.Errorf("reply = %q", msg.Reply)
	}
	if string(msg.Audio) != "mp3" {
		t.Errorf("audio = %q, want %q", msg.Audio, "mp3")
	}
	if msg.AudioFormat != "mp3_44100_128" {
		t.Errorf("audio_format = %q", msg.AudioFormat)
	}
	if msg.NPCKey != "guarda_01" || msg.NPCName != "Guarda Real" {
		t.Errorf("npc identity = %q/%q", msg.NPCKey, msg.NPCName)
	}
	if msg.RequestID == "" {
		t.Error("request_id is empty")
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp is zero")
	}
}

func TestHandleChat_SynthesisFailureBroadcastsTextOnly(t *testing.T) {
	s, _, speech, _, registry := newTestServer(t, nil)
	speech.Err = errors.New("voice service down")

	conn := &captureConn{}
	if _, err := registry.Register(context.Background(), conn); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec := postChat(t, s, validPayload(), testToken)
	s.Wait()

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200 despite synthesis failure", rec.Code)
	}

	msgs := conn.messages(t)
	if len(msgs) != 1 {
		t.Fatalf("broadcast messages = %d, want 1 (text-only)", len(msgs))
	}
	if len(msgs[0].Audio) != 0 {
		t.Errorf("audio = %q, want empty on synthesis failure", msgs[0].Audio)
	}
	if msgs[0].Reply != "Ora ora, viajante!" {
		t.Errorf("reply = %q", msgs[0].Reply)
	}
}

func TestHandleChat_NoListenersSkipsSynthesis(t *testing.T) {
	s, _, speech, _, _ := newTestServer(t, nil)

	rec := postChat(t, s, validPayload(), testToken)
	s.Wait()

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if speech.CallCount() != 0 {
		t.Errorf("synthesis calls = %d, want 0 with no listeners", speech.CallCount())
	}
}

func TestHandleChat_NoSpeechProviderBroadcastsText(t *testing.T) {
	s, _, _, _, registry := newTestServer(t, func(o *Options) {
		o.Speech = nil
		o.SpeechFormat = ""
	})

	conn := &captureConn{}
	if _, err := registry.Register(context.Background(), conn); err != nil {
		t.Fatalf("Register: %v", err)
	}

	postChat(t, s, validPayload(), testToken)
	s.Wait()

	msgs := conn.messages(t)
	if len(msgs) != 1 {
		t.Fatalf("broadcast messages = %d, want 1", len(msgs))
	}
	if len(msgs[0].Audio) != 0 || msgs[0].AudioFormat != "" {
		t.Errorf("expected text-only broadcast, got audio=%q format=%q",
			msgs[0].Audio, msgs[0].AudioFormat)
	}
}
