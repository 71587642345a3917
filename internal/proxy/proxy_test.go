package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// newUpstream fakes the chat-completions API and records the request
// body it receives.
func newUpstream(t *testing.T, status int, body string, gotBody *map[string]json.RawMessage) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotBody != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func doChat(s *Server, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChatForwardsAndRelaysReply(t *testing.T) {
	var gotUpstream map[string]json.RawMessage
	up := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"hello"}}]}`, &gotUpstream)
	defer up.Close()

	s := NewServer(Config{
		UpstreamURL: up.URL,
		APIKey:      "test-key",
		Model:       "gpt-4o",
		MaxTokens:   300,
	}, nil)

	rec := doChat(s, http.MethodPost, `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"choices":[{"message":{"content":"hello"}}]}`, rec.Body.String())

	// The upstream body carries the configured model and token limit and
	// the client's messages verbatim.
	require.JSONEq(t, `"gpt-4o"`, string(gotUpstream["model"]))
	require.JSONEq(t, `300`, string(gotUpstream["max_completion_tokens"]))
	require.JSONEq(t, `[{"role":"user","content":"hi"}]`, string(gotUpstream["messages"]))
}

func TestChatTokenLimitFieldKnob(t *testing.T) {
	var gotUpstream map[string]json.RawMessage
	up := newUpstream(t, http.StatusOK, `{}`, &gotUpstream)
	defer up.Close()

	s := NewServer(Config{
		UpstreamURL:     up.URL,
		Model:           "gpt-4o",
		MaxTokens:       150,
		TokenLimitField: "max_tokens",
	}, nil)

	rec := doChat(s, http.MethodPost, `{"messages":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `150`, string(gotUpstream["max_tokens"]))
	_, hasDefault := gotUpstream["max_completion_tokens"]
	require.False(t, hasDefault)
}

func TestChatSendsBearerAuth(t *testing.T) {
	var gotAuth string
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer up.Close()

	s := NewServer(Config{UpstreamURL: up.URL, APIKey: "sk-secret"}, nil)
	doChat(s, http.MethodPost, `{"messages":[]}`)
	require.Equal(t, "Bearer sk-secret", gotAuth)
}

func TestChatCORSPreflight(t *testing.T) {
	s := NewServer(Config{UpstreamURL: "http://unused"}, nil)

	rec := doChat(s, http.MethodOptions, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
}

func TestChatMethodNotAllowed(t *testing.T) {
	s := NewServer(Config{UpstreamURL: "http://unused"}, nil)

	rec := doChat(s, http.MethodGet, "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	// CORS headers ride along even on errors.
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestChatBadRequest(t *testing.T) {
	s := NewServer(Config{UpstreamURL: "http://unused"}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not_json", "{{{"},
		{"missing_messages", `{"foo":1}`},
		{"empty_body", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doChat(s, http.MethodPost, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Equal(t, "invalid request: expected { messages: [...] } in JSON body", got["error"])
		})
	}
}

func TestChatEmptyMessagesArrayIsAccepted(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`, nil)
	defer up.Close()

	s := NewServer(Config{UpstreamURL: up.URL}, nil)
	rec := doChat(s, http.MethodPost, `{"messages":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestChatUpstreamUnreachable(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	up.Close()

	s := NewServer(Config{UpstreamURL: up.URL}, nil)
	rec := doChat(s, http.MethodPost, `{"messages":[]}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "upstream request failed", got["error"])
	require.NotEmpty(t, got["details"])
}

func TestChatRelaysUpstreamErrorVerbatim(t *testing.T) {
	up := newUpstream(t, http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, nil)
	defer up.Close()

	s := NewServer(Config{UpstreamURL: up.URL}, nil)
	rec := doChat(s, http.MethodPost, `{"messages":[]}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.JSONEq(t, `{"error":{"message":"rate limited"}}`, rec.Body.String())
}

func TestChatNormalizesEmbeddedPayload(t *testing.T) {
	reply := `{"choices":[{"message":{"content":"Sure! {\"recommendations\":[{\"id\":\"p001\"}]}"}}],"usage":{"total_tokens":42}}`
	up := newUpstream(t, http.StatusOK, reply, nil)
	defer up.Close()

	s := NewServer(Config{UpstreamURL: up.URL}, nil)
	rec := doChat(s, http.MethodPost, `{"messages":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Choices []struct {
			Message struct {
				Content string          `json:"content"`
				Parsed  json.RawMessage `json:"parsed"`
			} `json:"message"`
		} `json:"choices"`
		Usage json.RawMessage `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Choices, 1)

	// The raw content survives untouched; parsed is attached alongside.
	require.Contains(t, got.Choices[0].Message.Content, "Sure!")
	require.JSONEq(t, `{"recommendations":[{"id":"p001"}]}`, string(got.Choices[0].Message.Parsed))

	// Sibling fields ride through the rewrite.
	require.JSONEq(t, `{"total_tokens":42}`, string(got.Usage))
}

func TestChatNormalizeLeavesPlainRepliesAlone(t *testing.T) {
	reply := `{"choices":[{"message":{"content":"no structure here"}}]}`
	up := newUpstream(t, http.StatusOK, reply, nil)
	defer up.Close()

	s := NewServer(Config{UpstreamURL: up.URL}, nil)
	rec := doChat(s, http.MethodPost, `{"messages":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, reply, rec.Body.String())
}

func TestChatNormalizeToleratesOddBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not_an_object", `[1,2,3]`},
		{"no_choices", `{"id":"x"}`},
		{"empty_choices", `{"choices":[]}`},
		{"message_not_object", `{"choices":[{"message":"oops"}]}`},
		{"empty_content", `{"choices":[{"message":{"content":""}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpstream(t, http.StatusOK, tt.body, nil)
			defer up.Close()

			s := NewServer(Config{UpstreamURL: up.URL}, nil)
			rec := doChat(s, http.MethodPost, `{"messages":[]}`)
			require.Equal(t, http.StatusOK, rec.Code)
			require.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestHealthz(t *testing.T) {
	s := NewServer(Config{UpstreamURL: "http://unused"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"{\"a\":1}"}}]}`, nil)
	defer up.Close()

	s := NewServer(Config{UpstreamURL: up.URL}, nil)
	doChat(s, http.MethodPost, `{"messages":[]}`)
	doChat(s, http.MethodGet, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `glowchat_proxy_requests_total{outcome="ok"} 1`)
	require.Contains(t, body, `glowchat_proxy_requests_total{outcome="method_not_allowed"} 1`)
	require.Contains(t, body, "glowchat_proxy_replies_normalized_total 1")
}
