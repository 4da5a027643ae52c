package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	notifymock "github.com/blockparty-gg/npcrelay/pkg/provider/notify/mock"
	"github.com/blockparty-gg/npcrelay/pkg/provider/tts"
	ttsmock "github.com/blockparty-gg/npcrelay/pkg/provider/tts/mock"
)

func TestGuardSpeech_ForwardsWhileClosed(t *testing.T) {
	inner := &ttsmock.Provider{Audio: []byte("mp3")}
	g := GuardSpeech(inner, "elevenlabs")

	audio, err := g.Synthesize(context.Background(), "oi", tts.VoiceProfile{ID: "v1"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3" {
		t.Errorf("audio = %q", audio)
	}
	if inner.CallCount() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.CallCount())
	}
}

func TestGuardSpeech_FailsFastWhenOpen(t *testing.T) {
	inner := &ttsmock.Provider{Err: errors.New("voice service down")}
	g := GuardSpeech(inner, "elevenlabs")
	g.breaker.cooldown = time.Hour

	for i := 0; i < 3; i++ {
		if _, err := g.Synthesize(context.Background(), "oi", tts.VoiceProfile{ID: "v1"}); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	_, err := g.Synthesize(context.Background(), "oi", tts.VoiceProfile{ID: "v1"})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if inner.CallCount() != 3 {
		t.Errorf("inner calls = %d, want 3 (open breaker must not forward)", inner.CallCount())
	}
}

func TestGuardNotify_ForwardsWhileClosed(t *testing.T) {
	inner := &notifymock.Provider{}
	g := GuardNotify(inner, "callmebot")

	if err := g.Send(context.Background(), "5511988887777", "recado"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if inner.CallCount() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.CallCount())
	}
}

func TestGuardNotify_FailsFastWhenOpen(t *testing.T) {
	inner := &notifymock.Provider{Err: errors.New("gateway down")}
	g := GuardNotify(inner, "callmebot")
	g.breaker.cooldown = time.Hour

	for i := 0; i < 3; i++ {
		if err := g.Send(context.Background(), "5511988887777", "recado"); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	if err := g.Send(context.Background(), "5511988887777", "recado"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if inner.CallCount() != 3 {
		t.Errorf("inner calls = %d, want 3", inner.CallCount())
	}
}
