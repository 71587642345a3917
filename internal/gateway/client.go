// Package gateway performs the request/response round trip to the
// stateless proxy that fronts the upstream model, normalizing
// transport- and upstream-level failures into a single error taxonomy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"glowchat/internal/conversation"
	"glowchat/internal/profile"
)

// Config holds the client knobs.
type Config struct {
	URL     string
	Timeout time.Duration
}

// DefaultTimeout bounds a round trip when no timeout is configured.
// The core itself enforces no deadline; timeouts live in the transport
// and surface as *TransportError.
const DefaultTimeout = 60 * time.Second

// Client is the gateway client. One Send per turn, no automatic retry:
// the caller decides whether to let the user resubmit.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a gateway client.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// wireMessage is the outbound message shape.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request is the outbound body: {messages} plus the optional
// {userContext} enrichment.
type request struct {
	Messages    []wireMessage        `json:"messages"`
	UserContext *profile.UserContext `json:"userContext,omitempty"`
}

// envelope is the expected success body shape:
// {choices:[{message:{content, parsed?}}]}.
type envelope struct {
	Choices []struct {
		Message struct {
			Content string          `json:"content"`
			Parsed  json.RawMessage `json:"parsed,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

// Reply is a successful round trip: the raw reply text and, when the
// gateway pre-normalized one, the pre-parsed structured payload.
type Reply struct {
	Content string
	Parsed  json.RawMessage
}

// Send posts the transcript (and optional user context) to the gateway
// and classifies the outcome. Exactly one attempt.
func (c *Client) Send(ctx context.Context, msgs []conversation.Message, uc *profile.UserContext) (*Reply, error) {
	out := request{Messages: make([]wireMessage, 0, len(msgs)), UserContext: uc}
	for _, m := range msgs {
		out.Messages = append(out.Messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	c.log.Debug("gateway round trip",
		zap.Int("status", resp.StatusCode),
		zap.Int("messages", len(out.Messages)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, RawBody: string(raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Warn("gateway contract violation: unparseable envelope", zap.Error(err))
		return nil, &MalformedResponseError{RawBody: string(raw)}
	}
	if len(env.Choices) == 0 || env.Choices[0].Message.Content == "" {
		c.log.Warn("gateway contract violation: envelope has no reply content")
		return nil, &EmptyReplyError{}
	}

	return &Reply{
		Content: env.Choices[0].Message.Content,
		Parsed:  env.Choices[0].Message.Parsed,
	}, nil
}
