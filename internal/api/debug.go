package api

import "net/http"

// debugEnvResponse summarizes the effective configuration with secrets
// reduced to presence flags.
type debugEnvResponse struct {
	ListenAddr        string `json:"listen_addr"`
	LogLevel          string `json:"log_level"`
	AuthConfigured    bool   `json:"auth_configured"`
	CompletionName    string `json:"completion_provider"`
	CompletionModel   string `json:"completion_model"`
	SpeechName        string `json:"speech_provider"`
	SpeechVoice       string `json:"speech_voice"`
	NotifyName        string `json:"notify_provider"`
	NotifyConfigured  bool   `json:"notify_configured"`
	ConnectedClients  int    `json:"connected_listeners"`
}

// handleDebugEnv serves GET /debug-env. Only mounted when debug mode is on;
// it never exposes secret values, only whether they are set.
func (s *Server) handleDebugEnv(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, debugEnvResponse{
		ListenAddr:       s.cfg.Server.ListenAddr,
		LogLevel:         string(s.cfg.Server.LogLevel),
		AuthConfigured:   s.cfg.Server.AuthToken != "",
		CompletionName:   s.cfg.Providers.Completion.Name,
		CompletionModel:  s.cfg.Providers.Completion.Model,
		SpeechName:       s.cfg.Providers.Speech.Name,
		SpeechVoice:      s.cfg.Providers.Speech.Voice,
		NotifyName:       s.cfg.Providers.Notify.Name,
		NotifyConfigured: s.notifier != nil,
		ConnectedClients: s.registry.Count(),
	})
}
