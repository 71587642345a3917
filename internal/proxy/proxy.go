// Package proxy implements the stateless gateway that fronts the
// upstream chat-completions API: it holds the credentials, forwards
// {messages} requests, and best-effort pre-parses any JSON payload the
// model embedded in its reply so clients need not repeat the work.
package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"glowchat/internal/extract"
)

// Config holds the resolved proxy settings.
type Config struct {
	UpstreamURL string
	APIKey      string
	Model       string
	MaxTokens   int
	// TokenLimitField is the upstream token-limit field name
	// ("max_tokens" or "max_completion_tokens").
	TokenLimitField string
	Timeout         time.Duration
}

// Server is the gateway HTTP server.
type Server struct {
	cfg      Config
	upstream *http.Client
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

// NewServer creates a gateway server.
func NewServer(cfg Config, log *zap.Logger) *Server {
	if cfg.TokenLimitField == "" {
		cfg.TokenLimitField = "max_completion_tokens"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	return &Server{
		cfg:      cfg,
		upstream: &http.Client{Timeout: cfg.Timeout},
		log:      log,
		registry: reg,
		metrics:  newMetrics(reg),
	}
}

// Handler returns the routed HTTP handler: the chat endpoint at /,
// plus /healthz and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleChat)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// chatRequest is the accepted client body. userContext is passed
// through untouched; the proxy is stateless.
type chatRequest struct {
	Messages    []json.RawMessage `json:"messages"`
	UserContext json.RawMessage   `json:"userContext,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		s.metrics.requests.WithLabelValues("method_not_allowed").Inc()
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Messages == nil {
		s.metrics.requests.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "invalid request: expected { messages: [...] } in JSON body", "")
		return
	}

	upstreamBody := map[string]any{
		"model":               s.cfg.Model,
		"messages":            req.Messages,
		s.cfg.TokenLimitField: s.cfg.MaxTokens,
	}
	payload, err := json.Marshal(upstreamBody)
	if err != nil {
		s.metrics.requests.WithLabelValues("internal_error").Inc()
		writeError(w, http.StatusInternalServerError, "failed to build upstream request", err.Error())
		return
	}

	upReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.cfg.UpstreamURL, bytes.NewReader(payload))
	if err != nil {
		s.metrics.requests.WithLabelValues("internal_error").Inc()
		writeError(w, http.StatusInternalServerError, "failed to build upstream request", err.Error())
		return
	}
	upReq.Header.Set("Content-Type", "application/json")
	upReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.upstream.Do(upReq)
	if err != nil {
		s.metrics.requests.WithLabelValues("upstream_unreachable").Inc()
		s.log.Warn("upstream request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream request failed", err.Error())
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		s.metrics.requests.WithLabelValues("upstream_unreachable").Inc()
		writeError(w, http.StatusBadGateway, "upstream request failed", err.Error())
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.metrics.requests.WithLabelValues("upstream_error").Inc()
		s.log.Warn("upstream reported failure", zap.Int("status", resp.StatusCode))
		// Relay status and body verbatim; the client classifies.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(raw)
		return
	}

	s.metrics.requests.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.normalize(raw))
}

// normalize attaches the pre-parsed embedded payload to the reply as
// choices[0].message.parsed, using the same extraction algorithm the
// client carries. Any failure leaves the upstream body untouched; the
// raw reply is always returned intact.
func (s *Server) normalize(raw []byte) []byte {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return raw
	}
	var choices []map[string]json.RawMessage
	if err := json.Unmarshal(body["choices"], &choices); err != nil || len(choices) == 0 {
		return raw
	}
	var message map[string]json.RawMessage
	if err := json.Unmarshal(choices[0]["message"], &message); err != nil {
		return raw
	}
	var content string
	if err := json.Unmarshal(message["content"], &content); err != nil || content == "" {
		return raw
	}

	parsed, ok := extract.TryExtractRaw(content)
	if !ok {
		return raw
	}
	s.metrics.normalized.Inc()

	message["parsed"] = parsed
	msgRaw, err := json.Marshal(message)
	if err != nil {
		return raw
	}
	choices[0]["message"] = msgRaw
	choicesRaw, err := json.Marshal(choices)
	if err != nil {
		return raw
	}
	body["choices"] = choicesRaw
	out, err := json.Marshal(body)
	if err != nil {
		return raw
	}
	return out
}

func setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	_ = json.NewEncoder(w).Encode(body)
}
