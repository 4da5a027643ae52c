package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blockparty-gg/npcrelay/internal/observe"
	"github.com/blockparty-gg/npcrelay/internal/phone"
	"github.com/blockparty-gg/npcrelay/internal/relay"
	"github.com/blockparty-gg/npcrelay/pkg/provider/llm"
)

// authHeader carries the shared secret on chat requests.
const authHeader = "X-Auth-Token"

// replyFallback is returned when the model produces an empty completion.
const replyFallback = "..."

// chatMessage is one history entry in a chat request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the payload the game client posts to /npc-chat.
type chatRequest struct {
	NPCKey        string        `json:"npc_key"`
	NPCName       string        `json:"npc_name"`
	SystemMessage string        `json:"system_message"`
	UserID        int64         `json:"user_id"`
	UserName      string        `json:"user_name"`
	UserDisplay   string        `json:"user_display"`
	UserText      string        `json:"user_text"`
	Messages      []chatMessage `json:"messages"`
	MaxTokens     int           `json:"max_tokens"`
}

// validate checks the payload shape. Enumerated role values are enforced
// here; everything else the orchestration tolerates.
func (p *chatRequest) validate() error {
	if p.NPCKey == "" {
		return fmt.Errorf("npc_key is required")
	}
	if p.NPCName == "" {
		return fmt.Errorf("npc_name is required")
	}
	if p.UserText == "" {
		return fmt.Errorf("user_text is required")
	}
	for i, m := range p.Messages {
		switch m.Role {
		case "system", "user", "assistant":
		default:
			return fmt.Errorf("messages[%d].role %q is invalid", i, m.Role)
		}
	}
	return nil
}

// chatReply is the success response body.
type chatReply struct {
	Reply string `json:"reply"`
}

// whitespaceRun collapses any whitespace run in a model reply to one space.
var whitespaceRun = regexp.MustCompile(`\s+`)

// handleChat serves POST /npc-chat. The synchronous path is validate,
// authenticate, complete, post-process, reply. Notification dispatch and the
// synthesis/broadcast stage run in the background and never delay or fail
// the reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observe.Logger(ctx).With("handler", "npc-chat")

	if !s.authenticate(r) {
		log.Warn("unauthorized chat request", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		log.Warn("malformed chat payload", "error", err)
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	if err := req.validate(); err != nil {
		log.Warn("invalid chat payload", "error", err)
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}

	log.Info("chat request",
		"npc", req.NPCKey,
		"user_id", req.UserID,
		"user", req.UserName,
		"text", req.UserText,
	)

	completion, err := s.complete(ctx, &req)
	if err != nil {
		log.Error("completion failed", "npc", req.NPCKey, "error", err)
		s.metrics.RecordChatRequest(ctx, req.NPCKey, "error")
		s.metrics.RecordProviderError(ctx, s.cfg.Providers.Completion.Name, "completion")
		writeError(w, http.StatusInternalServerError, "completion_failed")
		return
	}

	reply := strings.TrimSpace(completion)
	if reply == "" {
		reply = replyFallback
	}
	reply = whitespaceRun.ReplaceAllString(reply, " ")

	requestID := observe.CorrelationID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	// Side channels run detached from the request context: the client gets
	// its reply regardless of how they fare.
	bgCtx := context.WithoutCancel(ctx)
	s.dispatchNotifications(bgCtx, &req)
	s.broadcastReply(bgCtx, requestID, &req, reply)

	s.metrics.RecordChatRequest(ctx, req.NPCKey, "ok")
	log.Info("chat reply", "npc", req.NPCKey, "length", len(reply))
	writeJSON(w, http.StatusOK, chatReply{Reply: reply})
}

// authenticate compares the shared token header in constant time. When no
// token is configured, authentication is disabled.
func (s *Server) authenticate(r *http.Request) bool {
	want := s.cfg.Server.AuthToken
	if want == "" {
		return true
	}
	got := r.Header.Get(authHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// complete composes the message list and calls the completion provider with
// a bounded token budget.
func (s *Server) complete(ctx context.Context, req *chatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	systemPrefix := fmt.Sprintf(
		"Responda em frases curtas e claras, cada balão ≤ %d caracteres. Evite jargão.",
		s.cfg.Chat.MaxBubbleChars,
	)

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	resp, err := s.completion.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrefix + "\n\n" + req.SystemMessage,
		Messages:     messages,
		Temperature:  s.cfg.Chat.Temperature,
		MaxTokens:    s.tokenBudget(req.MaxTokens),
	})
	s.metrics.CompletionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}

// tokenBudget clamps the caller-requested completion budget to the
// configured ceiling, falling back to the default when unset.
func (s *Server) tokenBudget(requested int) int {
	if requested <= 0 {
		requested = s.cfg.Chat.DefaultMaxTokens
	}
	return min(requested, s.cfg.Chat.MaxTokensCeiling)
}

// dispatchNotifications scans the user text for phone candidates and fires
// one best-effort notification per candidate. No-op when no notifier is
// configured.
func (s *Server) dispatchNotifications(ctx context.Context, req *chatRequest) {
	if s.notifier == nil {
		return
	}
	candidates := phone.Extract(req.UserText)
	if len(candidates) == 0 {
		return
	}

	text := fmt.Sprintf("%s: %s (id %d) deixou um recado no jogo: %s",
		req.NPCName, req.UserDisplay, req.UserID, req.UserText)

	for _, number := range candidates {
		number := number
		s.go1(func() {
			nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
			defer cancel()

			start := time.Now()
			err := s.notifier.Send(nctx, number, text)
			s.metrics.NotifyDuration.Record(nctx, time.Since(start).Seconds())
			if err != nil {
				s.metrics.RecordNotification(nctx, "error")
				s.metrics.RecordProviderError(nctx, s.cfg.Providers.Notify.Name, "notify")
				s.logger.Warn("notification dispatch failed", "error", err)
				return
			}
			s.metrics.RecordNotification(nctx, "ok")
			s.logger.Info("notification dispatched", "npc", req.NPCKey)
		})
	}
}

// broadcastReply synthesizes audio for the reply (when a speech provider is
// configured) and fans the message out to connected listeners. Skipped
// entirely when nobody is listening; synthesis failure degrades to a
// text-only broadcast.
func (s *Server) broadcastReply(ctx context.Context, requestID string, req *chatRequest, reply string) {
	if s.registry.Count() == 0 {
		return
	}

	s.go1(func() {
		msg := relay.AudioMessage{
			Type:      relay.TypeNPCAudio,
			RequestID: requestID,
			NPCKey:    req.NPCKey,
			NPCName:   req.NPCName,
			Reply:     reply,
			Timestamp: time.Now().UTC(),
		}

		if s.speech != nil {
			sctx, cancel := context.WithTimeout(ctx, synthesisTimeout)
			start := time.Now()
			audio, err := s.speech.Synthesize(sctx, reply, s.speechVoice)
			s.metrics.SynthesisDuration.Record(sctx, time.Since(start).Seconds())
			cancel()

			if err != nil {
				s.metrics.RecordProviderError(ctx, s.cfg.Providers.Speech.Name, "synthesis")
				s.logger.Warn("synthesis failed, broadcasting text-only",
					"request_id", requestID, "error", err)
			} else {
				msg.Audio = audio
				msg.AudioFormat = s.speechFormat
			}
		}

		delivered, err := s.registry.Broadcast(ctx, msg)
		if err != nil {
			s.logger.Error("broadcast failed", "request_id", requestID, "error", err)
			return
		}
		s.metrics.BroadcastsDelivered.Add(ctx, int64(delivered))
	})
}
